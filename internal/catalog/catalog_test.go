// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestStatic_Templates(t *testing.T) {
	pool := []Template{
		{ID: "a", Category: "outdoor"},
		{ID: "b", Category: "quiet"},
	}
	p := NewStatic(pool)

	got, err := p.Templates(context.Background())
	if err != nil {
		t.Fatalf("Templates() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Templates() returned %d, want 2", len(got))
	}

	// The returned slice is a copy; mutating it must not affect the pool.
	got[0].ID = "mutated"
	again, _ := p.Templates(context.Background())
	if again[0].ID != "a" {
		t.Error("Templates() returned a shared slice")
	}
}

func TestStatic_EmptyPool(t *testing.T) {
	got, err := NewStatic(nil).Templates(context.Background())
	if err != nil {
		t.Fatalf("Templates() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Templates() returned %d, want 0", len(got))
	}
}

func TestFile_Templates(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    int
		wantErr bool
	}{
		{
			name: "valid catalog",
			yaml: `templates:
  - id: act-001
    category: outdoor
    title: Sunrise hike
    traits:
      initiative: 0.8
    duration_minutes: 120
  - id: act-002
    category: quiet
    title: Reading night
`,
			want: 2,
		},
		{
			name: "missing id rejected",
			yaml: `templates:
  - category: outdoor
    title: Nameless
`,
			wantErr: true,
		},
		{
			name: "missing category rejected",
			yaml: `templates:
  - id: act-003
    title: Uncategorized
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}

			got, err := NewFile(path).Templates(context.Background())
			if tt.wantErr {
				if !errors.Is(err, ErrUnavailable) {
					t.Errorf("Templates() error = %v, want ErrUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Templates() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Templates() returned %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFile_MissingFile(t *testing.T) {
	p := NewFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := p.Templates(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Templates() error = %v, want ErrUnavailable", err)
	}
}

// failing is a Provider that always errors.
type failing struct{}

func (failing) Templates(ctx context.Context) ([]Template, error) {
	return nil, fmt.Errorf("%w: backend down", ErrUnavailable)
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b := NewBreaker(failing{}, BreakerConfig{ConsecutiveFailures: 3})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := b.Templates(ctx); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: error = %v, want ErrUnavailable", i, err)
		}
	}
}

func TestBreaker_PassesThroughSuccess(t *testing.T) {
	pool := []Template{{ID: "a", Category: "outdoor"}}
	b := NewBreaker(NewStatic(pool), BreakerConfig{})

	got, err := b.Templates(context.Background())
	if err != nil {
		t.Fatalf("Templates() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Templates() = %+v, want the static pool", got)
	}
}
