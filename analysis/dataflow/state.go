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

	"github.com/awslabs/flow-go-tools/analysis/config"
	"github.com/awslabs/flow-go-tools/analysis/ir"
)

// State carries the objects shared by every analysis pass over one program:
// the configuration, the loggers, the call resolver and the per-function
// graph cache. A State is safe for concurrent use; the cache serializes its
// own accesses.
type State struct {
	Config *config.Config
	Logger *config.LogGroup

	// Resolver maps call targets to function bodies. A nil resolver treats
	// every callee as external.
	Resolver ir.Resolver

	cache *Cache
}

// NewState returns a fresh analysis state. A nil cfg selects the default
// configuration.
func NewState(cfg *config.Config, logger *config.LogGroup, resolver ir.Resolver) *State {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if logger == nil {
		logger = config.NewLogGroup(cfg)
	}
	return &State{
		Config:   cfg,
		Logger:   logger,
		Resolver: resolver,
		cache:    NewCache(),
	}
}

// Cache returns the state's per-function graph cache.
func (s *State) Cache() *Cache { return s.cache }

// resolve looks up a callee's body through the state's resolver.
func (s *State) resolve(callee ir.FuncID) (*ir.Function, bool) {
	if s.Resolver == nil {
		return nil, false
	}
	return s.Resolver.ResolveCall(callee)
}

// FunctionGraph returns the dependence graph of fn, building it on a cache
// miss. Identical (name, revision) pairs always return the cached graph.
func (s *State) FunctionGraph(fn *ir.Function) (*FunctionGraph, error) {
	if g, ok := s.cache.Get(fn); ok {
		s.Logger.Tracef("cache hit for %s@%s", fn.Name, fn.Revision)
		return g, nil
	}
	g, err := BuildGraph(s, fn)
	if err != nil {
		return nil, fmt.Errorf("building graph for %s: %w", fn.Name, err)
	}
	if err := s.cache.Put(fn, g); err != nil {
		return nil, err
	}
	return g, nil
}

// BuildAll builds the graphs of every function of prog, using up to
// Config.NumWorkers goroutines, and leaves them in the cache. The first
// build error encountered is returned; remaining functions are still
// attempted.
func (s *State) BuildAll(prog *ir.Program) error {
	fns := prog.Functions()
	jobs := make(chan *ir.Function, len(fns))
	for _, fn := range fns {
		jobs <- fn
	}
	close(jobs)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for i := 0; i < s.Config.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fn := range jobs {
				if _, err := s.FunctionGraph(fn); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}
