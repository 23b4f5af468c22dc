// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package store provides the document-store boundary for the engine.
//
// Every engine component (profile, recommend, schedule, growth) persists
// and reads state exclusively through the narrow Store interface defined
// here: keyed document CRUD plus prefix-filtered, ordered, limited
// queries. The interface deliberately exposes nothing beyond that, so
// engines never assume store-specific query capabilities.
//
// Two implementations are provided: a BadgerDB-backed store for
// production and an in-memory store for tests. Both assign a
// server-side monotonic timestamp to every write.
package store

import (
	"context"
	"time"
)

// Collection names used by the engine.
const (
	// CollectionProfiles holds one UserProfile document per user.
	CollectionProfiles = "profiles"

	// CollectionItems holds ScheduledItem documents keyed
	// "<userID>:<startUnixNano>:<itemID>" so that a prefix query over a
	// user returns items in start-time order.
	CollectionItems = "items"

	// CollectionEvents holds append-only GrowthEvent documents keyed
	// "<userID>:<tsUnixNano>:<eventID>" for time-ordered timeline scans.
	CollectionEvents = "events"

	// CollectionItemIndex maps a bare item ID to its composite key in
	// CollectionItems, so items can be addressed by ID alone.
	CollectionItemIndex = "item_index"
)

// Document is a stored record: an identity within a collection, an opaque
// serialized body, and the server-assigned write timestamp.
type Document struct {
	// ID is the document identity within its collection.
	ID string `json:"id"`

	// Data is the serialized document body.
	Data []byte `json:"data"`

	// UpdatedAt is the server-assigned timestamp of the last write.
	// Timestamps are strictly monotonic per store instance, so
	// last-write-wins ordering is well defined.
	UpdatedAt time.Time `json:"updated_at"`
}

// Query describes a filtered, ordered, limited scan over a collection.
type Query struct {
	// Prefix restricts results to document IDs with this prefix.
	// Empty matches the whole collection.
	Prefix string

	// Descending reverses the ID ordering (IDs embed timestamps where
	// recency ordering matters, so descending means most-recent-first).
	Descending bool

	// Limit caps the number of returned documents. Zero means no limit.
	Limit int
}

// Store is the document CRUD boundary consumed by all engine components.
//
// Implementations must return ErrNotFound for missing documents,
// ErrExists from Create on an ID collision, and wrap infrastructure
// failures in *TransientError so callers can retry them.
type Store interface {
	// Get returns the document with the given ID.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns documents matching q, ordered by ID.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)

	// Create persists a new document and returns it with the
	// server-assigned timestamp.
	Create(ctx context.Context, collection string, doc Document) (Document, error)

	// Update replaces the body of an existing document and returns it
	// with the new server-assigned timestamp.
	Update(ctx context.Context, collection, id string, data []byte) (Document, error)

	// Upsert writes a document whether or not it exists. The later
	// write wins on the server timestamp; used for derived, rebuildable
	// documents such as profiles.
	Upsert(ctx context.Context, collection, id string, data []byte) (Document, error)

	// Close releases underlying resources.
	Close() error
}
