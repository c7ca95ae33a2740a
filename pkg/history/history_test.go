// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/traverse/pkg/logging"
	"github.com/AleutianAI/traverse/pkg/navigator"
)

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: logging.LevelError, Quiet: true})
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(WithLogger(testLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// appendAt writes a record with a fixed start time so ordering tests are
// deterministic.
func appendAt(t *testing.T, s *Store, id string, startedAt time.Time) {
	t.Helper()
	require.NoError(t, s.Append(context.Background(), Record{
		ID:        id,
		From:      "PageLaunch",
		To:        "PageSettings",
		Path:      []string{"PageLaunch", "PageSettings"},
		Status:    "completed",
		StartedAt: startedAt,
	}))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("", WithLogger(testLogger()))
	require.ErrorIs(t, err, ErrEmptyPath)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, WithLogger(testLogger()))
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, Record{
		From:   "PageLaunch",
		To:     "PageInbox",
		Status: "completed",
	}))
	require.NoError(t, s.Close())

	s, err = Open(dir, WithLogger(testLogger()))
	require.NoError(t, err)
	defer s.Close()

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "PageInbox", records[0].To)
}

func TestAppend_FillsDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, Record{From: "PageA", To: "PageB", Status: "failed"}))

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID, "ID assigned on append")
	assert.False(t, records[0].StartedAt.IsZero(), "StartedAt assigned on append")
}

func TestAppend_ContextCanceled(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Append(ctx, Record{From: "PageA", To: "PageB"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestList_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)

	appendAt(t, s, "first", base)
	appendAt(t, s, "second", base.Add(time.Minute))
	appendAt(t, s, "third", base.Add(2*time.Minute))

	records, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "third", records[0].ID)
	assert.Equal(t, "second", records[1].ID)
	assert.Equal(t, "first", records[2].ID)
}

func TestList_Limit(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		appendAt(t, s, id, base.Add(time.Duration(i)*time.Second))
	}

	records, err := s.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "d", records[0].ID)
	assert.Equal(t, "c", records[1].ID)

	all, err := s.List(context.Background(), -1)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestList_Empty(t *testing.T) {
	s := openTestStore(t)

	records, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestList_RoundTripsFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2025, 8, 25, 9, 30, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, Record{
		ID:        "run-1",
		From:      "PageInbox",
		To:        "PageThread",
		Path:      []string{"PageInbox", "PageThread"},
		Status:    "failed",
		Error:     "page \"PageThread\" did not become current within 55s",
		StartedAt: started,
		Duration:  55 * time.Second,
	}))

	records, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, []string{"PageInbox", "PageThread"}, rec.Path)
	assert.Equal(t, "failed", rec.Status)
	assert.Contains(t, rec.Error, "did not become current")
	assert.True(t, rec.StartedAt.Equal(started))
	assert.Equal(t, 55*time.Second, rec.Duration)
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	appendAt(t, s, "a", time.Now())
	appendAt(t, s, "b", time.Now().Add(time.Second))

	require.NoError(t, s.Clear(ctx))

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	// The store stays usable after a clear.
	appendAt(t, s, "c", time.Now())
	records, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConcurrentAppends(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Append(ctx, Record{From: "PageA", To: "PageB", Status: "completed"})
		}()
	}
	wg.Wait()

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 10)
}

func TestRecorder_AppendsOutcomes(t *testing.T) {
	s := openTestStore(t)
	record := s.Recorder()
	started := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)

	record(context.Background(), navigator.Outcome{
		From:      "PageLaunch",
		To:        "PageSettings",
		Path:      []string{"PageLaunch", "PageMain", "PageSettings"},
		Status:    navigator.StatusCompleted,
		StartedAt: started,
		Duration:  1200 * time.Millisecond,
	})
	record(context.Background(), navigator.Outcome{
		From:      "PageSettings",
		To:        "PageGhost",
		Status:    navigator.StatusNoPath,
		Reason:    "no_path",
		StartedAt: started.Add(time.Minute),
	})

	records, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "no_path", records[0].Status)
	assert.Equal(t, "completed", records[1].Status)
	assert.Equal(t, []string{"PageLaunch", "PageMain", "PageSettings"}, records[1].Path)
}
