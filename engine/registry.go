/*
 * Copyright 2024 The WeaveGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package engine

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/weavego/weavego/api/types"
)

// ErrInvalidAdvice is returned when a registered advice implements none of
// the four advice shapes.
var ErrInvalidAdvice = errors.New("advice implements no advice shape")

// NewAdvisorRegistry creates an empty advisor registry. config.Logger
// receives reports about misbehaving matchers.
func NewAdvisorRegistry(config types.Config) *AdvisorRegistry {
	return &AdvisorRegistry{config: config}
}

// AdvisorRegistry is the default types.AdvisorRegistry implementation. It is
// append-only during setup and safe for concurrent reads afterwards; the
// sorted view is computed lazily and cached until the next mutation.
type AdvisorRegistry struct {
	config   types.Config
	advisors []*types.Advisor
	// sorted is the cached ascending-by-order view, nil when invalidated.
	sorted  []*types.Advisor
	seq     int64
	version int64
	sync.RWMutex
}

var _ types.AdvisorRegistry = (*AdvisorRegistry)(nil)

// Register appends an advisor. The advice must implement at least one advice
// shape and the matcher must be non-nil.
func (r *AdvisorRegistry) Register(advisor *types.Advisor) error {
	if advisor == nil || advisor.Matcher == nil {
		return errors.New("advisor and its matcher must not be nil")
	}
	if !isAdviceShape(advisor.Advice) {
		return fmt.Errorf("advisor %q: %w", advisor.Id, ErrInvalidAdvice)
	}
	r.Lock()
	defer r.Unlock()
	r.seq++
	advisor.SetSequence(r.seq)
	r.advisors = append(r.advisors, advisor)
	r.sorted = nil
	r.version++
	return nil
}

// Advisors returns all advisors sorted ascending by order, stable on ties by
// registration sequence.
func (r *AdvisorRegistry) Advisors() []*types.Advisor {
	r.RLock()
	if r.sorted != nil {
		defer r.RUnlock()
		return r.sorted
	}
	r.RUnlock()

	r.Lock()
	defer r.Unlock()
	if r.sorted == nil {
		sorted := make([]*types.Advisor, len(r.advisors))
		copy(sorted, r.advisors)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Order != sorted[j].Order {
				return sorted[i].Order < sorted[j].Order
			}
			return sorted[i].Sequence() < sorted[j].Sequence()
		})
		r.sorted = sorted
	}
	return r.sorted
}

// AdvisorsFor returns the advisors statically matching method, in execution
// order.
func (r *AdvisorRegistry) AdvisorsFor(method types.Method) []*types.Advisor {
	var matched []*types.Advisor
	for _, advisor := range r.Advisors() {
		if r.safeMatches(advisor, method) {
			matched = append(matched, advisor)
		}
	}
	return matched
}

// HasAnyMatch reports whether any advisor matches any exported method of
// targetType. Collaborators use it to decide whether a type needs a proxy at
// all.
func (r *AdvisorRegistry) HasAnyMatch(targetType reflect.Type) bool {
	methods := types.MethodsOf(targetType, targetType)
	for _, advisor := range r.Advisors() {
		for _, method := range methods {
			if r.safeMatches(advisor, method) {
				return true
			}
		}
	}
	return false
}

// Version increases on every mutation; chain caches key on it.
func (r *AdvisorRegistry) Version() int64 {
	r.RLock()
	defer r.RUnlock()
	return r.version
}

// safeMatches evaluates the advisor's matcher, treating a panic as a
// non-match. A broken matcher must never abort chain construction.
func (r *AdvisorRegistry) safeMatches(advisor *types.Advisor, method types.Method) (matched bool) {
	defer func() {
		if caught := recover(); caught != nil {
			matched = false
			if r.config.Logger != nil {
				r.config.Logger.Printf("matcher of advisor %q panicked on %s, treated as non-match: %v", advisor.Id, method.Key(), caught)
			}
		}
	}()
	return advisor.Matcher.Matches(method)
}

// safeMatchesRuntime evaluates a runtime matcher against call arguments,
// treating a panic as a non-match.
func (r *AdvisorRegistry) safeMatchesRuntime(advisor *types.Advisor, rm types.RuntimeMatcher, method types.Method, args []interface{}) (matched bool) {
	defer func() {
		if caught := recover(); caught != nil {
			matched = false
			if r.config.Logger != nil {
				r.config.Logger.Printf("runtime matcher of advisor %q panicked on %s, treated as non-match: %v", advisor.Id, method.Key(), caught)
			}
		}
	}()
	return rm.MatchesRuntime(method, args)
}

func isAdviceShape(advice types.Advice) bool {
	switch advice.(type) {
	case types.BeforeAdvice, types.AfterReturningAdvice, types.AfterThrowingAdvice, types.AroundAdvice:
		return true
	default:
		return false
	}
}

// ComponentRegistry is the default registry for advice components.
type ComponentRegistry struct {
	// components is a map of advice component prototypes keyed by type.
	components map[string]types.AdviceComponent
	// RWMutex is a read/write mutex lock.
	sync.RWMutex
}

var _ types.ComponentRegistry = (*ComponentRegistry)(nil)

// Register adds an advice component prototype to the registry.
func (r *ComponentRegistry) Register(component types.AdviceComponent) error {
	r.Lock()
	defer r.Unlock()
	if r.components == nil {
		r.components = make(map[string]types.AdviceComponent)
	}
	if _, ok := r.components[component.Type()]; ok {
		return errors.New("the component already exists. componentType=" + component.Type())
	}
	r.components[component.Type()] = component
	return nil
}

// Unregister removes a component prototype by type.
func (r *ComponentRegistry) Unregister(componentType string) error {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.components[componentType]; !ok {
		return fmt.Errorf("component not found. componentType=%s", componentType)
	}
	delete(r.components, componentType)
	return nil
}

// NewAdvice creates a new advice instance for componentType.
func (r *ComponentRegistry) NewAdvice(componentType string) (types.AdviceComponent, error) {
	r.RLock()
	defer r.RUnlock()
	prototype, ok := r.components[componentType]
	if !ok {
		return nil, fmt.Errorf("component not found. componentType=%s", componentType)
	}
	return prototype.New(), nil
}

// GetComponents returns a copy of the registered component prototypes.
func (r *ComponentRegistry) GetComponents() map[string]types.AdviceComponent {
	r.RLock()
	defer r.RUnlock()
	components := make(map[string]types.AdviceComponent, len(r.components))
	for k, v := range r.components {
		components[k] = v
	}
	return components
}
