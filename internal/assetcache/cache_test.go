// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package assetcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(name string) Key { return Key{Path: name} }

func TestGetPut(t *testing.T) {
	c := New(0)

	_, ok := c.Get(key("a"))
	assert.False(t, ok)

	c.Put(key("a"), []byte("alpha"))
	data, ok := c.Get(key("a"))
	require.True(t, ok)
	assert.Equal(t, "alpha", string(data))

	c.Put(key("a"), []byte("al"))
	st := c.Stats()
	assert.Equal(t, 1, st.Entries)
	assert.EqualValues(t, 2, st.Bytes)
	assert.EqualValues(t, 1, st.Hits)
	assert.EqualValues(t, 1, st.Misses)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(10)

	c.Put(key("a"), make([]byte, 4))
	c.Put(key("b"), make([]byte, 4))
	_, _ = c.Get(key("a"))
	c.Put(key("c"), make([]byte, 4))

	_, ok := c.Get(key("b"))
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get(key("a"))
	assert.True(t, ok)
	_, ok = c.Get(key("c"))
	assert.True(t, ok)
	assert.EqualValues(t, 1, c.Stats().Evictions)
	assert.EqualValues(t, 8, c.Stats().Bytes)
}

func TestOversizedEntryKept(t *testing.T) {
	c := New(4)
	c.Put(key("a"), make([]byte, 2))
	c.Put(key("big"), make([]byte, 16))

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(key("big"))
	assert.True(t, ok)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asset.bin")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o600))

	c := New(0)
	data, err := c.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	data, err = c.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
	assert.EqualValues(t, 1, c.Stats().Hits)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	data, err = c.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.Equal(t, 2, c.Len())
}

func TestReadFileMissing(t *testing.T) {
	c := New(0)
	_, err := c.ReadFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, c.Len())
}

func TestClear(t *testing.T) {
	c := New(0)
	c.Put(key("a"), []byte("x"))
	c.Clear()
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Stats().Bytes)
}
