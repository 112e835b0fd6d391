/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package replay tracks recently seen NTS UniqueIdentifier extension
// fields so a server can reject a replayed request instead of answering it
// twice. The codec itself is stateless and has no opinion on replay; this
// is ambient server-side bookkeeping built on top of it.
package replay

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash"
)

// Cache is a fixed-capacity, least-recently-inserted cache of
// UniqueIdentifier digests. It is safe for concurrent use.
//
// Identifiers are hashed with xxhash rather than stored whole: RFC 8915
// places no upper bound on a UniqueIdentifier's length, and a server under
// load shouldn't pay for unbounded key storage just to detect replays.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint64]*list.Element
	order    *list.List
}

// NewCache builds a Cache holding up to capacity distinct identifiers.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[uint64]*list.Element, capacity),
		order:    list.New(),
	}
}

// Seen records id and reports whether it had already been recorded. A
// true result means the caller is looking at a replay and should drop the
// request.
func (c *Cache) Seen(id []byte) bool {
	key := xxhash.Sum64(id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return true
	}

	if c.capacity <= 0 {
		return false
	}

	elem := c.order.PushFront(key)
	c.entries[key] = elem

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(uint64))
	}

	return false
}

// Len reports how many identifiers the cache currently holds.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
