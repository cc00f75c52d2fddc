// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataflow

import (
	"fmt"
	"sync"

	"github.com/awslabs/flow-go-tools/analysis/ir"
)

// A CacheKey identifies one cached function graph. Two functions with the
// same name but different revisions cache separately; editing a function
// must never serve the stale graph.
type CacheKey struct {
	Fn       ir.FuncID
	Revision string
}

// A CacheInconsistencyError reports that two graphs built for the same
// (function, revision) pair differ structurally. Graph construction is
// deterministic, so this only happens when a caller reuses a revision string
// for changed IR.
type CacheInconsistencyError struct {
	Key CacheKey
}

func (e *CacheInconsistencyError) Error() string {
	return fmt.Sprintf("inconsistent graphs cached for %s@%s: same revision, different structure",
		e.Key.Fn, e.Key.Revision)
}

// A Cache stores constructed function graphs keyed by (function, revision).
// It is safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	graphs map[CacheKey]*FunctionGraph

	hits, misses int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{graphs: map[CacheKey]*FunctionGraph{}}
}

func key(fn *ir.Function) CacheKey {
	return CacheKey{Fn: fn.Name, Revision: fn.Revision}
}

// Get returns the cached graph for fn's (name, revision), if any.
func (c *Cache) Get(fn *ir.Function) (*FunctionGraph, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.graphs[key(fn)]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return g, ok
}

// Put stores g under fn's (name, revision). When an entry already exists the
// last write wins, but a structurally different graph under the same key is
// reported as a *CacheInconsistencyError; the new graph is stored anyway so
// that later readers observe the most recent build.
func (c *Cache) Put(fn *ir.Function, g *FunctionGraph) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(fn)
	prev, ok := c.graphs[k]
	c.graphs[k] = g
	if ok && !prev.Equal(g) {
		return &CacheInconsistencyError{Key: k}
	}
	return nil
}

// Invalidate drops every cached revision of fn.
func (c *Cache) Invalidate(fn ir.FuncID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.graphs {
		if k.Fn == fn {
			delete(c.graphs, k)
		}
	}
}

// Len returns the number of cached graphs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.graphs)
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
