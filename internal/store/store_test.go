// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// storeFactories builds each Store implementation under test.
func storeFactories(t *testing.T) map[string]Store {
	t.Helper()

	bs, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = bs.Close() })

	return map[string]Store{
		"badger": bs,
		"memory": NewMemoryStore(),
	}
}

func TestStore_CreateGet(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := s.Create(ctx, CollectionProfiles, Document{ID: "user-1", Data: []byte(`{"a":1}`)})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if created.UpdatedAt.IsZero() {
				t.Error("Create() did not assign a server timestamp")
			}

			got, err := s.Get(ctx, CollectionProfiles, "user-1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got.Data) != `{"a":1}` {
				t.Errorf("Get() data = %s, want %s", got.Data, `{"a":1}`)
			}

			// Creating the same ID again is a collision.
			if _, err := s.Create(ctx, CollectionProfiles, Document{ID: "user-1"}); !errors.Is(err, ErrExists) {
				t.Errorf("Create() duplicate error = %v, want ErrExists", err)
			}
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(context.Background(), CollectionProfiles, "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_UpdateMissing(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Update(context.Background(), CollectionItems, "nope", nil); !errors.Is(err, ErrNotFound) {
				t.Errorf("Update() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_Upsert(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first, err := s.Upsert(ctx, CollectionProfiles, "user-2", []byte("v1"))
			if err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
			second, err := s.Upsert(ctx, CollectionProfiles, "user-2", []byte("v2"))
			if err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
			if !second.UpdatedAt.After(first.UpdatedAt) {
				t.Errorf("timestamps not monotonic: %v then %v", first.UpdatedAt, second.UpdatedAt)
			}

			got, err := s.Get(ctx, CollectionProfiles, "user-2")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got.Data) != "v2" {
				t.Errorf("Get() data = %s, want v2 (later write wins)", got.Data)
			}
		})
	}
}

func TestStore_QueryPrefixOrderLimit(t *testing.T) {
	for name, s := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ids := []string{"u1:001:a", "u1:002:b", "u1:003:c", "u2:001:d"}
			for _, id := range ids {
				if _, err := s.Create(ctx, CollectionEvents, Document{ID: id, Data: []byte(id)}); err != nil {
					t.Fatalf("Create(%s) error = %v", id, err)
				}
			}

			tests := []struct {
				name string
				q    Query
				want []string
			}{
				{
					name: "prefix ascending",
					q:    Query{Prefix: "u1:"},
					want: []string{"u1:001:a", "u1:002:b", "u1:003:c"},
				},
				{
					name: "prefix descending",
					q:    Query{Prefix: "u1:", Descending: true},
					want: []string{"u1:003:c", "u1:002:b", "u1:001:a"},
				},
				{
					name: "descending with limit",
					q:    Query{Prefix: "u1:", Descending: true, Limit: 2},
					want: []string{"u1:003:c", "u1:002:b"},
				},
				{
					name: "other user isolated",
					q:    Query{Prefix: "u2:"},
					want: []string{"u2:001:d"},
				},
				{
					name: "no match",
					q:    Query{Prefix: "u3:"},
					want: nil,
				},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					docs, err := s.Query(ctx, CollectionEvents, tt.q)
					if err != nil {
						t.Fatalf("Query() error = %v", err)
					}
					if len(docs) != len(tt.want) {
						t.Fatalf("Query() returned %d docs, want %d", len(docs), len(tt.want))
					}
					for i, doc := range docs {
						if doc.ID != tt.want[i] {
							t.Errorf("docs[%d].ID = %s, want %s", i, doc.ID, tt.want[i])
						}
					}
				})
			}
		})
	}
}

func TestWithRetry_TransientThenSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 3, InitialBackoff: 1, MaxBackoff: 1}, "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Transient("test", fmt.Errorf("flaky"))
		}
		return nil
	})
	if err != nil {
		t.Errorf("WithRetry() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_NonTransientNotRetried(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 5, InitialBackoff: 1}, "test", func(ctx context.Context) error {
		calls++
		return ErrNotFound
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("WithRetry() error = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on non-transient errors)", calls)
	}
}

func TestWithRetry_Exhaustion(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 3, InitialBackoff: 1, MaxBackoff: 1}, "test", func(ctx context.Context) error {
		calls++
		return Transient("test", fmt.Errorf("still down"))
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !IsTransient(err) {
		t.Errorf("exhausted error should remain transient, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "transient wrapper", err: Transient("op", fmt.Errorf("io")), want: true},
		{name: "wrapped transient", err: fmt.Errorf("outer: %w", Transient("op", fmt.Errorf("io"))), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "not found", err: ErrNotFound, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}
