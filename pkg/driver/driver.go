// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package driver defines the device automation contract that page
// transitions are written against.
//
// A Driver abstracts one connected device or emulator. Page objects use it
// to tap controls, read the UI hierarchy, and check which application is in
// the foreground; the navigation engine itself never imports a concrete
// driver. The uia2 subpackage provides the Android UiAutomator2
// implementation over the WebDriver wire protocol.
package driver

import (
	"context"
	"sync"
	"time"
)

// Point is a screen coordinate in physical pixels. The origin is the top
// left corner of the display.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is the device viewport in physical pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the midpoint of a viewport of this size.
func (s Size) Center() Point {
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// Driver is the set of device operations page objects rely on. All calls
// honor context cancellation; implementations must be safe for concurrent
// use because polling and transitions may overlap.
type Driver interface {
	// Tap presses and releases the touch pointer at p.
	Tap(ctx context.Context, p Point) error

	// Swipe drags the touch pointer from start to end over the given
	// duration. A zero duration lets the implementation pick a default
	// fast enough to register as a fling.
	Swipe(ctx context.Context, start, end Point, duration time.Duration) error

	// Back triggers the platform back affordance.
	Back(ctx context.Context) error

	// Source returns the current UI hierarchy as XML.
	Source(ctx context.Context) (string, error)

	// WindowSize returns the device viewport dimensions.
	WindowSize(ctx context.Context) (Size, error)

	// CurrentPackage returns the application package in the foreground.
	CurrentPackage(ctx context.Context) (string, error)

	// Screenshot captures the display as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
}

// Page factories run at registration time, long before any session exists,
// so they cannot capture the live driver directly. The process default
// bridges the gap: the application installs its session client with
// SetDefault, and page code reads it lazily from inside IsCurrent and
// transition closures.
var (
	defaultMu     sync.RWMutex
	defaultDriver Driver
)

// SetDefault installs d as the process-wide driver returned by Default.
// Passing nil clears it, which callers should do after closing a session.
func SetDefault(d Driver) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultDriver = d
}

// Default returns the driver installed by SetDefault, or nil when no
// session is active.
func Default() Driver {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultDriver
}
