// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package assetcache

// entry is a node in the recency list. The head is the most recently used.
type entry struct {
	key  Key
	data []byte
	prev *entry
	next *entry
}

// recency is a doubly-linked list of entries. It is not thread-safe.
type recency struct {
	head *entry
	tail *entry
	len  int
}

func (l *recency) pushFront(e *entry) {
	e.prev = nil
	e.next = l.head
	if l.head != nil {
		l.head.prev = e
	}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
	l.len++
}

func (l *recency) moveToFront(e *entry) {
	if e == l.head {
		return
	}
	l.unlink(e)
	l.pushFront(e)
}

// popBack removes and returns the least recently used entry, or nil.
func (l *recency) popBack() *entry {
	e := l.tail
	if e != nil {
		l.unlink(e)
	}
	return e
}

func (l *recency) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev = nil
	e.next = nil
	l.len--
}
