// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package page defines the page capability contract and the singleton
// registry behind it.
//
// A page models one distinct screen of the application under test. Each page
// type declares its outgoing edges: transitions that drive the UI to another
// page and return that page's instance. The navigator consumes pages purely
// through this contract; it never touches the device directly.
//
// Page identity is the concrete type name. At most one live instance per
// type exists process-wide, held by a Registry and created lazily on first
// access.
package page

import (
	"context"
	"reflect"
)

// Transition performs the UI interaction that moves the app from one page to
// another and returns the resulting page. Implementations typically tap a
// control through the driver and hand back the target page's singleton.
type Transition func(ctx context.Context) (Page, error)

// Edges maps a target page identifier to the transition that reaches it.
type Edges map[string]Transition

// Page is the capability every screen representation must implement to take
// part in navigation.
type Page interface {
	// Edges returns the live outgoing transitions, keyed by target page
	// identifier. The navigator reads this property at execution time, so
	// implementations may vary it with app state.
	Edges() Edges

	// IsCurrent reports whether this page is what the device currently
	// shows. The navigator polls it after every transition.
	IsCurrent(ctx context.Context) bool
}

// Key resolves a page identifier from either a raw identifier string or a
// Page value. For a Page, the identifier is the concrete type's name with
// pointer indirection stripped, so *PageSettings and PageSettings share the
// identifier "PageSettings". Any other value falls back to its type name.
func Key(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case nil:
		return ""
	default:
		t := reflect.TypeOf(p)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		return t.Name()
	}
}
