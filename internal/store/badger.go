// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tandemlabs/tandem/internal/logging"
)

// BadgerStore implements Store on an embedded BadgerDB.
// Documents are stored under "<collection>:<id>" keys, so prefix queries
// map directly onto Badger prefix iteration.
type BadgerStore struct {
	db *badger.DB

	// tsMu guards lastTS for monotonic write timestamps.
	tsMu   sync.Mutex
	lastTS time.Time
}

// OpenBadger opens (or creates) a Badger-backed store at path.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Badger's own logger is noisy; we log at the store boundary.

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}

	logging.Info().Str("path", path).Msg("document store opened")
	return &BadgerStore{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// stamp returns a server timestamp strictly after every previously
// issued one, even when the wall clock stalls or steps backwards.
func (s *BadgerStore) stamp() time.Time {
	s.tsMu.Lock()
	defer s.tsMu.Unlock()

	now := time.Now().UTC()
	if !now.After(s.lastTS) {
		now = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = now
	return now
}

// key builds the storage key for a document.
func key(collection, id string) []byte {
	return []byte(collection + ":" + id)
}

// Get returns the document with the given ID.
func (s *BadgerStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, Transient("badger.get", err)
	}

	var doc Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return Transient("badger.get", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Query returns documents matching q, in ID order.
func (s *BadgerStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Transient("badger.query", err)
	}

	prefix := key(collection, q.Prefix)
	var docs []Document

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Reverse = q.Descending
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if q.Descending {
			// Reverse iteration seeks past the last key in the prefix range.
			seek = append(append([]byte{}, prefix...), 0xFF)
		}

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if q.Limit > 0 && len(docs) >= q.Limit {
				break
			}
			var doc Document
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			})
			if err != nil {
				return Transient("badger.query", err)
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Create persists a new document, rejecting ID collisions.
func (s *BadgerStore) Create(ctx context.Context, collection string, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, Transient("badger.create", err)
	}

	doc.UpdatedAt = s.stamp()
	data, err := json.Marshal(doc)
	if err != nil {
		return Document{}, fmt.Errorf("marshal document: %w", err)
	}

	k := key(collection, doc.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get(k)
		if getErr == nil {
			return ErrExists
		}
		if !errors.Is(getErr, badger.ErrKeyNotFound) {
			return Transient("badger.create", getErr)
		}
		if setErr := txn.Set(k, data); setErr != nil {
			return Transient("badger.create", setErr)
		}
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Update replaces the body of an existing document.
func (s *BadgerStore) Update(ctx context.Context, collection, id string, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, Transient("badger.update", err)
	}

	doc := Document{ID: id, Data: data, UpdatedAt: s.stamp()}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return Document{}, fmt.Errorf("marshal document: %w", err)
	}

	k := key(collection, id)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get(k)
		if errors.Is(getErr, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if getErr != nil {
			return Transient("badger.update", getErr)
		}
		if setErr := txn.Set(k, encoded); setErr != nil {
			return Transient("badger.update", setErr)
		}
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Upsert writes a document whether or not it already exists.
// Profile writes use this: the profile is a derived, rebuildable cache
// and the later write wins on the server timestamp.
func (s *BadgerStore) Upsert(ctx context.Context, collection, id string, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, Transient("badger.upsert", err)
	}

	doc := Document{ID: id, Data: data, UpdatedAt: s.stamp()}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return Document{}, fmt.Errorf("marshal document: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if setErr := txn.Set(key(collection, id), encoded); setErr != nil {
			return Transient("badger.upsert", setErr)
		}
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}
