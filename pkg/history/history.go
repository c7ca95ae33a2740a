// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history persists navigation outcomes in an embedded BadgerDB
// journal.
//
// Every Navigate call can be recorded through the store's Recorder hook,
// giving `traverse history` a local, queryable log of what ran against
// which device and how it ended. Records are keyed by start time, so
// listing newest-first is a reverse key scan with no secondary index.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/traverse/pkg/logging"
	"github.com/AleutianAI/traverse/pkg/navigator"
)

// recordPrefix namespaces journal keys so future record kinds can share
// the database.
const recordPrefix = "run:"

// ErrEmptyPath is returned by Open when no database directory is given.
var ErrEmptyPath = errors.New("history database path is empty")

// Record is one persisted navigation outcome.
type Record struct {
	// ID uniquely identifies the run. Assigned on Append when empty.
	ID string `json:"id"`

	From string   `json:"from"`
	To   string   `json:"to"`
	Path []string `json:"path,omitempty"`

	// Status mirrors the navigator outcome: completed, failed, no_path,
	// or noop.
	Status string `json:"status"`

	// Error holds the failure reason for failed runs.
	Error string `json:"error,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to logging.Default().
func WithLogger(log *logging.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSyncWrites forces every append to fsync. Slower, but a crash loses
// nothing. Off by default; a navigation journal tolerates losing the
// last write.
func WithSyncWrites() Option {
	return func(s *Store) {
		s.syncWrites = true
	}
}

// Store is a BadgerDB-backed journal of navigation runs. Safe for
// concurrent use.
type Store struct {
	db         *badger.DB
	log        *logging.Logger
	syncWrites bool
}

// Open opens or creates the journal at dir.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, ErrEmptyPath
	}
	s := newStore(opts)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create history directory %s: %w", dir, err)
	}
	badgerOpts := badger.DefaultOptions(dir).
		WithSyncWrites(s.syncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: s.log.Slog()})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	s.db = db
	return s, nil
}

// OpenInMemory opens a journal that lives only for the process. Used by
// tests and by navigations that should leave no trace on disk.
func OpenInMemory(opts ...Option) (*Store, error) {
	s := newStore(opts)
	badgerOpts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(&badgerLogger{logger: s.log.Slog()})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory history database: %w", err)
	}
	s.db = db
	return s, nil
}

func newStore(opts []Option) *Store {
	s := &Store{log: logging.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append writes one record. Empty ID and zero StartedAt are filled in.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	key := recordKey(rec.StartedAt, rec.ID)

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, payload)
	}); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// List returns records newest-first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordPrefix)
		// Reverse iteration needs a seek key past every record key.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) >= limit {
				return nil
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode record %s: %w", it.Item().Key(), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix([]byte(recordPrefix)); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

// Close releases the database. The store is unusable afterwards.
func (s *Store) Close() error {
	return s.db.Close()
}

// Recorder adapts the store to the navigator's outcome hook:
//
//	nav := navigator.New(reg, navigator.WithRecorder(store.Recorder()))
//
// Append failures are logged, never surfaced, matching the navigator's
// best-effort recording contract.
func (s *Store) Recorder() navigator.RecordFunc {
	return func(ctx context.Context, o navigator.Outcome) {
		rec := Record{
			From:      o.From,
			To:        o.To,
			Path:      o.Path,
			Status:    string(o.Status),
			Error:     o.Reason,
			StartedAt: o.StartedAt,
			Duration:  o.Duration,
		}
		if err := s.Append(ctx, rec); err != nil {
			s.log.Warn("failed to record navigation outcome",
				"from", o.From, "to", o.To, "error", err)
		}
	}
}

// recordKey orders records chronologically: the zero-padded hex
// timestamp sorts bytewise, and the ID suffix keeps same-instant keys
// unique.
func recordKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%016x:%s", recordPrefix, ts.UnixNano(), id))
}

// badgerLogger adapts slog to BadgerDB's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Badger reports table opens and compactions at info; those stay at
// debug so they never reach CLI output.
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
