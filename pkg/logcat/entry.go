// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logcat consumes the Android log broadcast that the automation
// server publishes over a websocket.
//
// The server relays raw logcat lines in threadtime format. This package
// parses them into structured entries, applies level and tag filters, and
// keeps the stream alive across device reconnects. The traverse CLI
// renders the entries either as plain lines or in the interactive viewer.
package logcat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Level is an Android log priority.
type Level int8

const (
	LevelVerbose Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the single-letter priority used by logcat itself.
func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "V"
	case LevelDebug:
		return "D"
	case LevelInfo:
		return "I"
	case LevelWarn:
		return "W"
	case LevelError:
		return "E"
	case LevelFatal:
		return "F"
	default:
		return "?"
	}
}

// Name returns the long form, e.g. "verbose".
func (l Level) Name() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ParseLevel accepts both the single-letter and long forms, in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v", "verbose":
		return LevelVerbose, nil
	case "d", "debug":
		return LevelDebug, nil
	case "i", "info":
		return LevelInfo, nil
	case "w", "warn", "warning":
		return LevelWarn, nil
	case "e", "error":
		return LevelError, nil
	case "f", "fatal":
		return LevelFatal, nil
	default:
		return LevelVerbose, fmt.Errorf("unknown log level: %q", s)
	}
}

// Entry is one parsed logcat line.
type Entry struct {
	// Time is the device timestamp. Logcat omits the year, so the
	// current year is assumed.
	Time time.Time

	// PID and TID identify the emitting process and thread.
	PID int
	TID int

	Level   Level
	Tag     string
	Message string

	// Raw is the line as received, preserved for passthrough output.
	Raw string
}

// threadtimeRe matches logcat -v threadtime:
//
//	08-25 14:03:07.123  1234  5678 I ActivityManager: Start proc ...
var threadtimeRe = regexp.MustCompile(
	`^(\d{2})-(\d{2})\s+(\d{2}):(\d{2}):(\d{2})\.(\d{3})\s+(\d+)\s+(\d+)\s+([VDIWEF])\s+(.*?)\s*:\s?(.*)$`)

// ParseLine parses one threadtime line. Lines that do not match, such as
// the "--------- beginning of main" buffer markers, return ok=false with
// only Raw populated.
func ParseLine(line string) (Entry, bool) {
	m := threadtimeRe.FindStringSubmatch(line)
	if m == nil {
		return Entry{Raw: line}, false
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	hour, _ := strconv.Atoi(m[3])
	minute, _ := strconv.Atoi(m[4])
	second, _ := strconv.Atoi(m[5])
	millis, _ := strconv.Atoi(m[6])
	pid, _ := strconv.Atoi(m[7])
	tid, _ := strconv.Atoi(m[8])
	level, _ := ParseLevel(m[9])

	ts := time.Date(time.Now().Year(), time.Month(month), day,
		hour, minute, second, millis*int(time.Millisecond), time.Local)

	return Entry{
		Time:    ts,
		PID:     pid,
		TID:     tid,
		Level:   level,
		Tag:     m[10],
		Message: m[11],
		Raw:     line,
	}, true
}

// Filter selects entries by priority, tag, and process. The zero value
// matches everything.
type Filter struct {
	// MinLevel drops entries below this priority.
	MinLevel Level

	// Tags, when non-empty, keeps only entries whose tag equals one of
	// them, compared case-insensitively.
	Tags []string

	// PID, when non-zero, keeps only entries from that process.
	PID int
}

// Match reports whether the entry passes the filter.
func (f Filter) Match(e Entry) bool {
	if e.Level < f.MinLevel {
		return false
	}
	if f.PID != 0 && e.PID != f.PID {
		return false
	}
	if len(f.Tags) > 0 {
		matched := false
		for _, tag := range f.Tags {
			if strings.EqualFold(tag, e.Tag) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
