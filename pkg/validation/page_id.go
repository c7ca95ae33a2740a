// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation for identifiers that cross
// the framework boundary.
//
// Page identifiers come from three places: Go type names (via reflection),
// YAML manifests authored by hand, and HTTP/CLI arguments. All three funnel
// through the validators here before they reach the registry or the graph,
// so malformed or hostile input fails early with a clear message.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// PagePrefix is the naming convention for page types. Discovery uses it as a
// registration-time filter; the registry and graph do not enforce it.
const PagePrefix = "Page"

// MaxPageIDLength bounds identifier length. Type names longer than this are
// almost certainly a mistake, and the cap keeps log lines and map keys sane.
const MaxPageIDLength = 128

// pageIDPattern matches valid page identifiers: a Go-exported-style name,
// letters first, then letters, digits, or underscores.
var pageIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidatePageID validates a page identifier.
//
// Valid identifiers:
//   - 1-128 characters
//   - Start with a letter
//   - Contain only letters, digits, and underscores
//
// Returns an error describing the violation, or nil.
//
// Example:
//
//	if err := validation.ValidatePageID(id); err != nil {
//	    return fmt.Errorf("invalid page id: %w", err)
//	}
func ValidatePageID(id string) error {
	if id == "" {
		return fmt.Errorf("page identifier cannot be empty")
	}

	if len(id) > MaxPageIDLength {
		return fmt.Errorf("page identifier too long: %d chars (max %d)", len(id), MaxPageIDLength)
	}

	if !pageIDPattern.MatchString(id) {
		return fmt.Errorf("invalid page identifier: %q (must start with a letter and contain only letters, digits, or underscores)", id)
	}

	return nil
}

// ValidatePageIDs validates multiple identifiers.
// Returns an error listing every invalid identifier if any fail.
func ValidatePageIDs(ids []string) error {
	var invalid []string
	for _, id := range ids {
		if err := ValidatePageID(id); err != nil {
			invalid = append(invalid, id)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid page identifiers: %v", invalid)
	}
	return nil
}

// HasPagePrefix reports whether the identifier follows the page naming
// convention. "Page" alone does not qualify: the prefix must be followed by
// at least one character.
func HasPagePrefix(id string) bool {
	return len(id) > len(PagePrefix) && strings.HasPrefix(id, PagePrefix)
}

// SanitizePageID trims surrounding whitespace and validates the result.
// Returns the cleaned identifier, or an error if it is not valid.
//
// Use this for identifiers arriving from manifests or request payloads:
//
//	id, err := validation.SanitizePageID(raw)
//	if err != nil {
//	    return err
//	}
func SanitizePageID(id string) (string, error) {
	cleaned := strings.TrimSpace(id)
	if err := ValidatePageID(cleaned); err != nil {
		return "", err
	}
	return cleaned, nil
}
