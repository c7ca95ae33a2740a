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
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/traverse/pkg/validation"
)

// Factory constructs a page instance. It is the zero-argument accessor of
// the capability contract; closures capture whatever the page needs (the
// driver, the app context).
type Factory func() (Page, error)

// Registry holds page factories and their lazily-built singleton instances.
//
// One Registry is shared by all page types: identifier -> factory and
// identifier -> instance live in the same object, so clearing one type's
// instance never affects another's. The zero value is not usable; call
// NewRegistry.
//
// Navigation itself is single-flight, but the inspector service reads the
// registry concurrently with CLI-driven mutation, so access is guarded.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Page
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Page),
	}
}

// Register adds a factory under the given identifier. The identifier is
// validated; a nil factory is rejected. Re-registering an identifier
// replaces the factory and drops any cached instance so the next access
// rebuilds it.
func (r *Registry) Register(id string, build Factory) error {
	cleaned, err := validation.SanitizePageID(id)
	if err != nil {
		return fmt.Errorf("register page: %w", err)
	}
	if build == nil {
		return fmt.Errorf("register page %q: %w", cleaned, ErrNilFactory)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[cleaned] = build
	delete(r.instances, cleaned)
	return nil
}

// GetOrCreate returns the singleton instance for the identifier, building it
// on first access. An unregistered identifier yields a *NotFoundError naming
// it. A factory failure is returned as-is and nothing is cached, so a later
// call retries construction.
func (r *Registry) GetOrCreate(id string) (Page, error) {
	r.mu.RLock()
	if p, ok := r.instances[id]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	build, ok := r.factories[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	p, err := build()
	if err != nil {
		return nil, fmt.Errorf("build page %q: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("build page %q: %w", id, ErrNilPage)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have built it between the unlock and here; keep
	// the first instance so the singleton invariant holds.
	if existing, ok := r.instances[id]; ok {
		return existing, nil
	}
	r.instances[id] = p
	return p, nil
}

// Clear drops the cached instance for one identifier. The factory stays
// registered; the next GetOrCreate rebuilds the instance. Other identifiers
// are unaffected.
func (r *Registry) Clear(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, id)
}

// Unregister drops the identifier's factory and any cached instance. A
// no-op for unknown identifiers.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, id)
	delete(r.instances, id)
}

// Reset drops all factories and instances.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]Factory)
	r.instances = make(map[string]Page)
}

// Contains reports whether the identifier has a registered factory.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// IDs returns all registered identifiers, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered factories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}
