// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package assetcache

import (
	"os"
	"path/filepath"
	"sync"
)

// DefaultMaxBytes is the budget of the shared cache used by scenes.
const DefaultMaxBytes = 64 << 20

// Key identifies one version of a file.
type Key struct {
	Path    string
	Size    int64
	ModTime int64 // UnixNano
}

// Stat returns the key of the file currently at path.
func Stat(path string) (Key, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Key{}, err
	}
	return Key{Path: abs, Size: fi.Size(), ModTime: fi.ModTime().UnixNano()}, nil
}

// Stats holds cache counters.
type Stats struct {
	Entries   int
	Bytes     int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a thread-safe LRU of file contents bounded by total size.
// Returned slices are shared and must not be modified.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	order    recency
	bytes    int64
	maxBytes int64

	hits, misses, evictions uint64
}

// New creates a cache holding at most maxBytes of file data. The most
// recently added entry is always kept, even when it alone exceeds the
// budget. maxBytes <= 0 disables eviction.
func New(maxBytes int64) *Cache {
	return &Cache{
		entries:  make(map[Key]*entry),
		maxBytes: maxBytes,
	}
}

// Shared is the process-wide cache used by scene asset loading.
var Shared = New(DefaultMaxBytes)

// Get returns the cached contents for k.
func (c *Cache) Get(k Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.moveToFront(e)
	return e.data, true
}

// Put stores data under k, evicting least recently used entries while over
// budget.
func (c *Cache) Put(k Key, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[k]; ok {
		c.bytes += int64(len(data)) - int64(len(e.data))
		e.data = data
		c.order.moveToFront(e)
	} else {
		e := &entry{key: k, data: data}
		c.entries[k] = e
		c.order.pushFront(e)
		c.bytes += int64(len(data))
	}

	for c.maxBytes > 0 && c.bytes > c.maxBytes && c.order.len > 1 {
		old := c.order.popBack()
		delete(c.entries, old.key)
		c.bytes -= int64(len(old.data))
		c.evictions++
	}
}

// ReadFile returns the contents of the file at path, reading it only when
// its size or modification time changed since the last read.
func (c *Cache) ReadFile(path string) ([]byte, error) {
	k, err := Stat(path)
	if err != nil {
		return nil, err
	}
	if data, ok := c.Get(k); ok {
		return data, nil
	}
	data, err := os.ReadFile(k.Path)
	if err != nil {
		return nil, err
	}
	c.Put(k, data)
	return data, nil
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*entry)
	c.order = recency{}
	c.bytes = 0
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.entries),
		Bytes:     c.bytes,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
