// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logcat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_Threadtime(t *testing.T) {
	line := "08-25 14:03:07.123  1234  5678 I ActivityManager: Start proc 9876:com.example.mail/u0a123"

	e, ok := ParseLine(line)
	require.True(t, ok)

	assert.Equal(t, time.August, e.Time.Month())
	assert.Equal(t, 25, e.Time.Day())
	assert.Equal(t, 14, e.Time.Hour())
	assert.Equal(t, 3, e.Time.Minute())
	assert.Equal(t, 7, e.Time.Second())
	assert.Equal(t, 123*int(time.Millisecond), e.Time.Nanosecond())
	assert.Equal(t, 1234, e.PID)
	assert.Equal(t, 5678, e.TID)
	assert.Equal(t, LevelInfo, e.Level)
	assert.Equal(t, "ActivityManager", e.Tag)
	assert.Equal(t, "Start proc 9876:com.example.mail/u0a123", e.Message)
	assert.Equal(t, line, e.Raw)
}

func TestParseLine_MessageKeepsColons(t *testing.T) {
	e, ok := ParseLine("01-02 03:04:05.006   100   200 E AndroidRuntime: java.lang.NullPointerException: null view")
	require.True(t, ok)
	assert.Equal(t, "AndroidRuntime", e.Tag)
	assert.Equal(t, "java.lang.NullPointerException: null view", e.Message)
}

func TestParseLine_AllLevels(t *testing.T) {
	for letter, want := range map[string]Level{
		"V": LevelVerbose,
		"D": LevelDebug,
		"I": LevelInfo,
		"W": LevelWarn,
		"E": LevelError,
		"F": LevelFatal,
	} {
		e, ok := ParseLine("08-25 10:00:00.000     1     2 " + letter + " Tag: msg")
		require.True(t, ok, "level %s should parse", letter)
		assert.Equal(t, want, e.Level, "level %s", letter)
	}
}

func TestParseLine_EmptyMessage(t *testing.T) {
	e, ok := ParseLine("08-25 10:00:00.000     1     2 D chatty: ")
	require.True(t, ok)
	assert.Equal(t, "chatty", e.Tag)
	assert.Empty(t, e.Message)
}

func TestParseLine_BufferMarker(t *testing.T) {
	line := "--------- beginning of main"
	e, ok := ParseLine(line)
	assert.False(t, ok)
	assert.Equal(t, line, e.Raw)
	assert.Empty(t, e.Tag)
}

func TestParseLine_Garbage(t *testing.T) {
	for _, line := range []string{
		"",
		"not a log line",
		"08-25 totally broken",
	} {
		_, ok := ParseLine(line)
		assert.False(t, ok, "line %q should not parse", line)
	}
}

func TestLevel_StringAndName(t *testing.T) {
	assert.Equal(t, "V", LevelVerbose.String())
	assert.Equal(t, "F", LevelFatal.String())
	assert.Equal(t, "?", Level(42).String())

	assert.Equal(t, "warn", LevelWarn.Name())
	assert.Equal(t, "unknown", Level(42).Name())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"V", LevelVerbose, false},
		{"verbose", LevelVerbose, false},
		{"d", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"w", LevelWarn, false},
		{"warning", LevelWarn, false},
		{" e ", LevelError, false},
		{"fatal", LevelFatal, false},
		{"", LevelVerbose, true},
		{"silent", LevelVerbose, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestFilter_ZeroMatchesEverything(t *testing.T) {
	e, ok := ParseLine("08-25 10:00:00.000     1     2 V chatty: uid=1000 expire 3 lines")
	require.True(t, ok)
	assert.True(t, Filter{}.Match(e))
}

func TestFilter_MinLevel(t *testing.T) {
	f := Filter{MinLevel: LevelWarn}

	info, _ := ParseLine("08-25 10:00:00.000     1     2 I Tag: below threshold")
	warn, _ := ParseLine("08-25 10:00:00.000     1     2 W Tag: at threshold")
	errE, _ := ParseLine("08-25 10:00:00.000     1     2 E Tag: above threshold")

	assert.False(t, f.Match(info))
	assert.True(t, f.Match(warn))
	assert.True(t, f.Match(errE))
}

func TestFilter_Tags(t *testing.T) {
	f := Filter{Tags: []string{"ActivityManager", "WindowManager"}}

	am, _ := ParseLine("08-25 10:00:00.000     1     2 I activitymanager: case-insensitive match")
	other, _ := ParseLine("08-25 10:00:00.000     1     2 I Zygote: no match")

	assert.True(t, f.Match(am))
	assert.False(t, f.Match(other))
}

func TestFilter_PID(t *testing.T) {
	f := Filter{PID: 1234}

	mine, _ := ParseLine("08-25 10:00:00.000  1234     2 I Tag: mine")
	theirs, _ := ParseLine("08-25 10:00:00.000  9999     2 I Tag: theirs")

	assert.True(t, f.Match(mine))
	assert.False(t, f.Match(theirs))
}

func TestFilter_Combined(t *testing.T) {
	f := Filter{MinLevel: LevelInfo, Tags: []string{"Tag"}, PID: 1234}

	pass, _ := ParseLine("08-25 10:00:00.000  1234     2 W Tag: all conditions met")
	wrongPID, _ := ParseLine("08-25 10:00:00.000  5678     2 W Tag: wrong pid")
	tooLow, _ := ParseLine("08-25 10:00:00.000  1234     2 D Tag: below level")

	assert.True(t, f.Match(pass))
	assert.False(t, f.Match(wrongPID))
	assert.False(t, f.Match(tooLow))
}
