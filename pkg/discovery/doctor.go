// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package discovery

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/traverse/pkg/validation"
)

// FindingKind classifies a doctor finding.
type FindingKind string

const (
	// FindingNotRegistered flags a page declared in a manifest with no
	// catalog registration backing it.
	FindingNotRegistered FindingKind = "declared_not_registered"

	// FindingNotDeclared flags a catalog registration no manifest claims.
	FindingNotDeclared FindingKind = "registered_not_declared"

	// FindingMissingTarget flags a declared edge target that is neither
	// declared nor registered anywhere.
	FindingMissingTarget FindingKind = "target_missing"

	// FindingBadPrefix flags an identifier outside the naming convention.
	FindingBadPrefix FindingKind = "prefix_violation"
)

// Finding is one doctor diagnostic.
type Finding struct {
	Kind      FindingKind
	PageID    string
	Namespace string
	Detail    string
}

// Report is the result of a doctor run.
type Report struct {
	Findings      []Finding
	ManifestCount int
	DeclaredPages int
	CatalogPages  int
}

// Clean reports whether the doctor found nothing to complain about.
func (r Report) Clean() bool {
	return len(r.Findings) == 0
}

// Doctor cross-checks manifest declarations against a registration source.
// It flags pages declared but not registered, registered but not declared,
// declared edge targets that resolve to nothing, and naming-convention
// violations on either side. Findings are sorted for stable output.
func Doctor(manifests []Manifest, src Source) Report {
	report := Report{ManifestCount: len(manifests)}

	registered := make(map[string]string) // id -> source
	if src != nil {
		for _, r := range src.Pages() {
			registered[r.ID] = r.Source
		}
	}
	report.CatalogPages = len(registered)

	declared := make(map[string]string) // id -> namespace
	for _, m := range manifests {
		for _, p := range m.Pages {
			id, err := validation.SanitizePageID(p.ID)
			if err != nil {
				report.Findings = append(report.Findings, Finding{
					Kind:      FindingBadPrefix,
					PageID:    p.ID,
					Namespace: m.Namespace,
					Detail:    err.Error(),
				})
				continue
			}
			declared[id] = m.Namespace
		}
	}
	report.DeclaredPages = len(declared)

	known := func(id string) bool {
		_, d := declared[id]
		_, r := registered[id]
		return d || r
	}

	for id, ns := range declared {
		if !validation.HasPagePrefix(id) {
			report.Findings = append(report.Findings, Finding{
				Kind:      FindingBadPrefix,
				PageID:    id,
				Namespace: ns,
				Detail:    fmt.Sprintf("identifier does not start with %q", validation.PagePrefix),
			})
		}
		if _, ok := registered[id]; !ok {
			report.Findings = append(report.Findings, Finding{
				Kind:      FindingNotRegistered,
				PageID:    id,
				Namespace: ns,
				Detail:    "declared in manifest but absent from the catalog",
			})
		}
	}

	for id, source := range registered {
		if _, ok := declared[id]; !ok {
			report.Findings = append(report.Findings, Finding{
				Kind:      FindingNotDeclared,
				PageID:    id,
				Namespace: source,
				Detail:    "registered in the catalog but declared in no manifest",
			})
		}
	}

	for _, m := range manifests {
		for _, p := range m.Pages {
			for _, target := range p.Targets {
				if !known(target) {
					report.Findings = append(report.Findings, Finding{
						Kind:      FindingMissingTarget,
						PageID:    p.ID,
						Namespace: m.Namespace,
						Detail:    fmt.Sprintf("edge target %q is neither declared nor registered", target),
					})
				}
			}
		}
	}

	sort.Slice(report.Findings, func(i, j int) bool {
		a, b := report.Findings[i], report.Findings[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.PageID != b.PageID {
			return a.PageID < b.PageID
		}
		return a.Detail < b.Detail
	})
	return report
}
