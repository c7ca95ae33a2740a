// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package page

import (
	"errors"
	"fmt"
)

// Sentinel errors for page operations. Use errors.Is to test for them.
var (
	// ErrNilPage indicates a nil page was passed where a page is required.
	ErrNilPage = errors.New("page must not be nil")

	// ErrNilFactory indicates a nil factory was passed to Register.
	ErrNilFactory = errors.New("factory must not be nil")

	// ErrPageNotFound indicates an identifier absent from the registry.
	ErrPageNotFound = errors.New("page not found")
)

// NotFoundError reports a registry lookup for an unregistered identifier.
// It unwraps to ErrPageNotFound.
type NotFoundError struct {
	// ID is the identifier that was requested.
	ID string
}

// Error returns a message naming the missing identifier.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("page not found: %s", e.ID)
}

// Unwrap enables errors.Is(err, ErrPageNotFound).
func (e *NotFoundError) Unwrap() error {
	return ErrPageNotFound
}
