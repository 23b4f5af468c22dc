// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tandemlabs/tandem/internal/logging"
)

// File is a Provider backed by a YAML catalog file:
//
//	templates:
//	  - id: act-hike-001
//	    category: outdoor
//	    title: Sunrise hike
//	    traits:
//	      initiative: 0.8
//	    duration_minutes: 120
//
// The file is parsed once on first use and cached; Reload re-reads it.
type File struct {
	path string

	mu        sync.RWMutex
	templates []Template
	loaded    bool
}

// NewFile creates a file-backed catalog provider. The file is not read
// until the first Templates call, so a missing file surfaces as an
// ErrUnavailable at read time rather than at construction.
func NewFile(path string) *File {
	return &File{path: path}
}

// Templates returns the parsed template pool, loading the file on first use.
func (f *File) Templates(ctx context.Context) ([]Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	f.mu.RLock()
	if f.loaded {
		out := make([]Template, len(f.templates))
		copy(out, f.templates)
		f.mu.RUnlock()
		return out, nil
	}
	f.mu.RUnlock()

	if err := f.Reload(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Template, len(f.templates))
	copy(out, f.templates)
	return out, nil
}

// Reload re-reads and re-parses the catalog file.
func (f *File) Reload() error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(f.path), yaml.Parser()); err != nil {
		return fmt.Errorf("%w: load %s: %v", ErrUnavailable, f.path, err)
	}

	var templates []Template
	if err := k.Unmarshal("templates", &templates); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrUnavailable, f.path, err)
	}

	for i, tpl := range templates {
		if tpl.ID == "" {
			return fmt.Errorf("%w: %s: template %d has no id", ErrUnavailable, f.path, i)
		}
		if tpl.Category == "" {
			return fmt.Errorf("%w: %s: template %q has no category", ErrUnavailable, f.path, tpl.ID)
		}
	}

	f.mu.Lock()
	f.templates = templates
	f.loaded = true
	f.mu.Unlock()

	logging.Info().Str("path", f.path).Int("templates", len(templates)).Msg("catalog loaded")
	return nil
}
