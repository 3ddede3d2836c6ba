// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package cachetest provides in-memory cache and lock doubles for engine tests.
package cachetest

import (
	"context"
	"sync"

	"github.com/taibuivan/resona/internal/platform/apperr"
)

// Cache is an in-memory cache.Cache recording invalidations.
type Cache struct {
	mu      sync.Mutex
	entries map[string]map[string][]byte

	// Invalidated lists every region invalidated, in order.
	Invalidated []string
	// Flushes counts InvalidateAll calls.
	Flushes int
}

// NewCache creates an empty in-memory cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]map[string][]byte{}}
}

func (c *Cache) GetOrCompute(ctx context.Context, region, key string, factory func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	if value, found := c.entries[region][key]; found {
		c.mu.Unlock()
		return value, nil
	}
	c.mu.Unlock()

	value, err := factory(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[region] == nil {
		c.entries[region] = map[string][]byte{}
	}
	c.entries[region][key] = value
	return value, nil
}

func (c *Cache) Invalidate(_ context.Context, region string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, region)
	c.Invalidated = append(c.Invalidated, region)
	return nil
}

func (c *Cache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]map[string][]byte{}
	c.Flushes++
	return nil
}

// WasInvalidated reports whether the region was invalidated at least once.
func (c *Cache) WasInvalidated(region string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.Invalidated {
		if r == region {
			return true
		}
	}
	return false
}

// Locker is an in-memory cache.Locker enforcing single-holder semantics.
type Locker struct {
	mu   sync.Mutex
	held map[string]bool

	// Acquired lists every entity locked, in order.
	Acquired []string
}

// NewLocker creates an empty in-memory locker.
func NewLocker() *Locker {
	return &Locker{held: map[string]bool{}}
}

func (l *Locker) Acquire(_ context.Context, entity string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[entity] {
		return nil, apperr.Locked(entity)
	}
	l.held[entity] = true
	l.Acquired = append(l.Acquired, entity)

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, entity)
	}, nil
}
