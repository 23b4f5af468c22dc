// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package cache provides a small thread-safe in-memory TTL cache.
package cache

import (
	"sync"
	"time"
)

// cleanupInterval is how often expired entries are swept out.
const cleanupInterval = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a thread-safe map whose entries expire after a fixed
// duration.
type TTL[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once

	hits   int64
	misses int64
}

// New creates a TTL cache. Entries live for ttl after each Set; a
// background goroutine sweeps expired entries until Stop is called.
func New[V any](ttl time.Duration) *TTL[V] {
	c := &TTL[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the value for key if present and unexpired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		c.mu.Lock()
		c.misses++
		if ok {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.value, true
}

// Set stores value under key for the cache's TTL.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes key.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Stats returns hit and miss counts.
func (c *TTL[V]) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Stop terminates the background cleanup goroutine.
func (c *TTL[V]) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *TTL[V]) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
