// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. It mirrors the Badger
// store's semantics (prefix queries, monotonic timestamps) and is used
// in tests and as a fallback when no store path is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]Document // collection -> id -> doc
	lastTS time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]Document)}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// stamp returns a strictly monotonic server timestamp.
// Must be called with mu held.
func (s *MemoryStore) stamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastTS) {
		now = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = now
	return now
}

// Get returns the document with the given ID.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, Transient("memory.get", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// Query returns documents matching q, in ID order.
func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Transient("memory.query", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for id, doc := range s.data[collection] {
		if strings.HasPrefix(id, q.Prefix) {
			docs = append(docs, doc)
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		if q.Descending {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].ID < docs[j].ID
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

// Create persists a new document, rejecting ID collisions.
func (s *MemoryStore) Create(ctx context.Context, collection string, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, Transient("memory.create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][doc.ID]; ok {
		return Document{}, ErrExists
	}

	doc.UpdatedAt = s.stamp()
	s.put(collection, doc)
	return doc, nil
}

// Update replaces the body of an existing document.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, Transient("memory.update", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][id]; !ok {
		return Document{}, ErrNotFound
	}

	doc := Document{ID: id, Data: data, UpdatedAt: s.stamp()}
	s.put(collection, doc)
	return doc, nil
}

// Upsert writes a document whether or not it exists.
func (s *MemoryStore) Upsert(ctx context.Context, collection, id string, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, Transient("memory.upsert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := Document{ID: id, Data: data, UpdatedAt: s.stamp()}
	s.put(collection, doc)
	return doc, nil
}

// put stores a document. Must be called with mu held.
func (s *MemoryStore) put(collection string, doc Document) {
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]Document)
	}
	s.data[collection][doc.ID] = doc
}
