// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package assetcache keeps the contents of files referenced by scene
// documents so that a reload does not hit the disk for unchanged assets.
//
// Entries are keyed by file identity: path, size and modification time.
// A rewritten file produces a new key and is read again; the stale entry
// ages out of the LRU once the byte budget is exceeded.
package assetcache
