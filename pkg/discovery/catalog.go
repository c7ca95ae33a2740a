// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package discovery turns page declarations into navigator registrations.
//
// The core never scans anything: page packages register factories into a
// Catalog (usually from init functions), and the navigator consumes the
// catalog through the Source interface. The filesystem only appears at the
// edges of this package, where manifests describing the expected page set
// are scanned and watched for the doctor and watch tooling.
package discovery

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/AleutianAI/traverse/pkg/page"
	"github.com/AleutianAI/traverse/pkg/validation"
)

// ErrDuplicateRegistration indicates a catalog already holds the identifier.
var ErrDuplicateRegistration = errors.New("page already registered in catalog")

// Registration ties a page identifier to the factory that builds it.
type Registration struct {
	// ID is the page identifier, by convention the concrete type name.
	ID string

	// Source names where the registration came from, as a slash-separated
	// package or directory path. Used only for filtering and diagnostics.
	Source string

	// Build constructs the page.
	Build page.Factory
}

// Source supplies pre-resolved page registrations. The navigator's
// AutoDiscover accepts any Source; Catalog and Filtered both implement it.
type Source interface {
	Pages() []Registration
}

// Catalog is an explicit page registry for plugin-style registration.
type Catalog struct {
	mu      sync.RWMutex
	entries []Registration
	index   map[string]struct{}
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]struct{})}
}

// Register adds a registration. The identifier is sanitized and validated;
// nil factories and duplicate identifiers are rejected.
func (c *Catalog) Register(r Registration) error {
	id, err := validation.SanitizePageID(r.ID)
	if err != nil {
		return fmt.Errorf("catalog register: %w", err)
	}
	if r.Build == nil {
		return fmt.Errorf("catalog register %q: %w", id, page.ErrNilFactory)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[id]; ok {
		return fmt.Errorf("catalog register %q: %w", id, ErrDuplicateRegistration)
	}
	r.ID = id
	c.entries = append(c.entries, r)
	c.index[id] = struct{}{}
	return nil
}

// Pages returns the registrations in registration order.
func (c *Catalog) Pages() []Registration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Registration, len(c.entries))
	copy(out, c.entries)
	return out
}

// Contains reports whether the identifier is registered.
func (c *Catalog) Contains(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[id]
	return ok
}

// Len returns the number of registrations.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Default is the process-wide catalog that page packages register into from
// their init functions.
var Default = NewCatalog()

// Register adds a registration to the Default catalog.
func Register(r Registration) error {
	return Default.Register(r)
}

// DefaultIgnoreDirs returns the directory names discovery skips: build
// output, caches, editor state, vendored and version-control trees.
func DefaultIgnoreDirs() []string {
	return []string{
		".git", ".hg", ".svn",
		".idea", ".vscode",
		"node_modules", "vendor", "testdata",
		"build", "dist",
		"__pycache__", ".venv", "venv",
	}
}

// FilterOptions controls Filtered.
type FilterOptions struct {
	// Prefix keeps only identifiers starting with it, with at least one
	// character after. Empty disables the prefix filter.
	Prefix string

	// IgnoreDirs drops registrations whose Source path contains one of
	// these names as a segment.
	IgnoreDirs []string
}

// DefaultFilterOptions applies the page naming convention and the standard
// ignored directories.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		Prefix:     validation.PagePrefix,
		IgnoreDirs: DefaultIgnoreDirs(),
	}
}

// Filtered wraps a source with the discovery conventions: the naming-prefix
// filter and the ignored-directory set. The conventions live here, at
// discovery time; the registry and graph accept any valid identifier.
func Filtered(src Source, opts FilterOptions) Source {
	ignore := make(map[string]struct{}, len(opts.IgnoreDirs))
	for _, dir := range opts.IgnoreDirs {
		ignore[dir] = struct{}{}
	}
	return &filteredSource{src: src, prefix: opts.Prefix, ignore: ignore}
}

type filteredSource struct {
	src    Source
	prefix string
	ignore map[string]struct{}
}

func (f *filteredSource) Pages() []Registration {
	var out []Registration
	for _, r := range f.src.Pages() {
		if f.prefix != "" && !hasPrefix(r.ID, f.prefix) {
			continue
		}
		if f.ignored(r.Source) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// hasPrefix requires at least one character after the prefix, so the bare
// prefix itself never qualifies.
func hasPrefix(id, prefix string) bool {
	return len(id) > len(prefix) && strings.HasPrefix(id, prefix)
}

func (f *filteredSource) ignored(source string) bool {
	if source == "" || len(f.ignore) == 0 {
		return false
	}
	for _, segment := range strings.Split(source, "/") {
		if _, ok := f.ignore[segment]; ok {
			return true
		}
	}
	return false
}
