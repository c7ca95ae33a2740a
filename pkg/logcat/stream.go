// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logcat

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AleutianAI/traverse/pkg/logging"
)

const (
	// DefaultReconnectInterval is the pause before redialing after the
	// websocket drops, typically because the device rebooted or the
	// session was recycled.
	DefaultReconnectInterval = time.Second

	// DefaultHandshakeTimeout bounds the websocket dial.
	DefaultHandshakeTimeout = 5 * time.Second
)

// WSURL derives the log broadcast websocket endpoint from an automation
// server URL and session identifier. The scheme flips http to ws and
// https to wss.
func WSURL(serverURL, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session id is empty")
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws/session/" + sessionID + "/appium/device/logcat"
	u.RawQuery = ""
	return u.String(), nil
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithFilter drops entries the filter rejects before they reach the
// consumer. Unparseable lines always pass through so buffer markers stay
// visible.
func WithFilter(f Filter) StreamOption {
	return func(s *Stream) {
		s.filter = f
	}
}

// WithReconnectInterval sets the pause between redial attempts.
func WithReconnectInterval(d time.Duration) StreamOption {
	return func(s *Stream) {
		if d > 0 {
			s.reconnect = d
		}
	}
}

// WithDialer substitutes the websocket dialer.
func WithDialer(d *websocket.Dialer) StreamOption {
	return func(s *Stream) {
		if d != nil {
			s.dialer = d
		}
	}
}

// WithStreamLogger sets the logger. Defaults to logging.Default().
func WithStreamLogger(log *logging.Logger) StreamOption {
	return func(s *Stream) {
		if log != nil {
			s.log = log
		}
	}
}

// Stream reads the log broadcast and delivers parsed entries on a
// channel. It survives connection drops by redialing until stopped.
type Stream struct {
	url       string
	dialer    *websocket.Dialer
	reconnect time.Duration
	filter    Filter
	log       *logging.Logger

	entries chan Entry

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	running bool
}

// NewStream creates a stream for the websocket endpoint at rawURL,
// usually built with WSURL.
func NewStream(rawURL string, opts ...StreamOption) *Stream {
	s := &Stream{
		url:       rawURL,
		dialer:    &websocket.Dialer{HandshakeTimeout: DefaultHandshakeTimeout},
		reconnect: DefaultReconnectInterval,
		log:       logging.Default(),
		entries:   make(chan Entry, 256),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entries is the channel entries arrive on. It is closed after Stop, or
// when the start context ends.
func (s *Stream) Entries() <-chan Entry {
	return s.entries
}

// Start begins reading in the background and returns immediately. A
// Stream runs at most once: a second Start, before or after Stop, is a
// no-op. Create a new Stream for a new capture.
func (s *Stream) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(ctx)
}

// Stop ends the stream and waits for the reader to exit. Safe to call
// repeatedly and without a prior Start.
func (s *Stream) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.entries)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("logcat stream interrupted", "url", s.url, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnect):
		}
	}
}

// consume dials once and reads until the connection fails or the context
// ends.
func (s *Stream) consume(ctx context.Context) error {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %w (http %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Reads block without a deadline; closing the connection when the
	// context ends is what unblocks them.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	s.log.Debug("logcat stream connected", "url", s.url)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		for _, line := range splitLines(string(data)) {
			entry, parsed := ParseLine(line)
			if parsed && !s.filter.Match(entry) {
				continue
			}
			select {
			case s.entries <- entry:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// splitLines handles broadcasts that batch several lines per message.
func splitLines(data string) []string {
	var lines []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
