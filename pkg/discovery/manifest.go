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
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/traverse/pkg/logging"
)

// ManifestName is the file name the scanner looks for in source trees.
const ManifestName = "pages.yaml"

// Manifest declares the pages a source tree is expected to register. Page
// packages ship one next to their code; the doctor compares declarations
// against the live catalog.
type Manifest struct {
	// Namespace labels the declaring package or directory. Defaults to
	// the manifest's parent directory name when omitted.
	Namespace string `yaml:"namespace"`

	// Pages lists the declared pages.
	Pages []ManifestPage `yaml:"pages"`

	// Path is the manifest file location, set by the scanner.
	Path string `yaml:"-"`
}

// ManifestPage is one declared page and its expected outgoing edges.
type ManifestPage struct {
	ID      string   `yaml:"id"`
	Targets []string `yaml:"targets,omitempty"`
}

// Scanner locates page manifests under configured source roots.
//
// The scan mirrors the tolerance rules of page discovery: roots that do not
// exist or are not directories are skipped, ignored directory names are
// pruned, and a manifest that fails to parse is logged and skipped. A scan
// as a whole always completes; it never returns an error.
type Scanner struct {
	roots  []string
	ignore map[string]struct{}
	log    *logging.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithIgnoreDirs replaces the ignored directory set.
func WithIgnoreDirs(dirs []string) ScannerOption {
	return func(s *Scanner) {
		s.ignore = make(map[string]struct{}, len(dirs))
		for _, dir := range dirs {
			s.ignore[dir] = struct{}{}
		}
	}
}

// WithScanLogger sets the logger. Defaults to logging.Default().
func WithScanLogger(log *logging.Logger) ScannerOption {
	return func(s *Scanner) {
		if log != nil {
			s.log = log
		}
	}
}

// NewScanner returns a scanner over the given source roots.
func NewScanner(roots []string, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		roots: roots,
		log:   logging.Default(),
	}
	WithIgnoreDirs(DefaultIgnoreDirs())(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks every root and returns the manifests found. The context only
// bounds the walk; cancellation returns whatever was collected so far.
func (s *Scanner) Scan(ctx context.Context) []Manifest {
	var manifests []Manifest

	for _, root := range s.roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			s.log.Debug("skipping source root", "root", root)
			continue
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if _, ok := s.ignore[d.Name()]; ok {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() != ManifestName {
				return nil
			}

			m, err := loadManifest(path)
			if err != nil {
				s.log.Warn("skipping unreadable page manifest", "path", path, "error", err)
				return nil
			}
			manifests = append(manifests, m)
			return nil
		})
	}

	s.log.Debug("manifest scan complete", "roots", len(s.roots), "manifests", len(manifests))
	return manifests
}

// loadManifest reads and parses one manifest file.
func loadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}

	m.Path = path
	if m.Namespace == "" {
		m.Namespace = filepath.Base(filepath.Dir(path))
	}
	return m, nil
}
