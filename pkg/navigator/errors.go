// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package navigator

import (
	"errors"
	"fmt"
)

// Sentinel errors for navigation operations. Use errors.Is to test for them.
var (
	// ErrNilFromPage indicates Navigate was called with a nil source page.
	ErrNilFromPage = errors.New("from page must not be nil")

	// ErrNilToPage indicates Navigate was called with a nil target page.
	ErrNilToPage = errors.New("to page must not be nil")

	// ErrNegativeTimeout indicates a negative timeout argument.
	ErrNegativeTimeout = errors.New("timeout must be non-negative")

	// ErrEmptyPath indicates PerformNavigation received an empty path.
	ErrEmptyPath = errors.New("path must not be empty")

	// ErrPathTooShort indicates a path with fewer than two pages.
	ErrPathTooShort = errors.New("path must contain at least two pages")

	// ErrNilSource indicates AutoDiscover received a nil discovery source.
	ErrNilSource = errors.New("discovery source must not be nil")

	// ErrNavigationFailed is the kind shared by every NavigationError.
	ErrNavigationFailed = errors.New("navigation failed")

	// ErrEdgeNotDeclared indicates a page's live edge set has no action for
	// the step the path requires. It can only arise when a page diverges
	// from the edges it registered with.
	ErrEdgeNotDeclared = errors.New("page declares no edge to target")
)

// NavigationError reports a failed step of a path execution. It always names
// the step that did not complete. errors.Is(err, ErrNavigationFailed)
// matches every NavigationError; Unwrap exposes the underlying cause.
type NavigationError struct {
	// From is the step's source page identifier.
	From string

	// To is the step's target page identifier.
	To string

	// Err is the underlying cause: a resolution failure, a transition
	// error, a verification timeout, or a canceled context.
	Err error
}

// Error returns a message naming the failing step.
func (e *NavigationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("navigation failed at step %s -> %s: %v", e.From, e.To, e.Err)
	}
	return fmt.Sprintf("navigation failed at step %s -> %s", e.From, e.To)
}

// Unwrap returns the underlying cause.
func (e *NavigationError) Unwrap() error {
	return e.Err
}

// Is marks every NavigationError as an ErrNavigationFailed.
func (e *NavigationError) Is(target error) bool {
	return target == ErrNavigationFailed
}
