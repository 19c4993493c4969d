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

package types

import (
	"reflect"
	"sync"
)

// ComponentRegistry holds advice component prototypes used when advisors are
// built from declarative definitions.
type ComponentRegistry interface {
	// Register adds an advice component prototype. Returns an `already
	// exists` error if component.Type() is taken.
	Register(component AdviceComponent) error
	// Unregister removes a component prototype by type.
	Unregister(componentType string) error
	// NewAdvice creates a new advice instance for componentType.
	NewAdvice(componentType string) (AdviceComponent, error)
	// GetComponents returns all registered component prototypes.
	GetComponents() map[string]AdviceComponent
}

// AdvisorRegistry is the ordered collection of advisors backing chain
// construction. Registration is append-only during setup; reads are safe for
// concurrent use once setup completes.
type AdvisorRegistry interface {
	// Register appends an advisor. Order and matcher must be final before
	// registration; any sorted view or chain derived from the registry is
	// invalidated.
	Register(advisor *Advisor) error
	// AdvisorsFor returns the advisors statically matching method, sorted
	// ascending by order, stable by registration sequence. A zero-match
	// result is valid and yields a transparent passthrough proxy.
	AdvisorsFor(method Method) []*Advisor
	// HasAnyMatch reports whether any advisor matches any exported method
	// of targetType. Collaborators use it to decide whether a type needs a
	// proxy at all.
	HasAnyMatch(targetType reflect.Type) bool
	// Advisors returns the sorted advisor view.
	Advisors() []*Advisor
	// Version increases on every mutation; chain caches key on it.
	Version() int64
}

// SafeComponentSlice is a thread-safe slice of advice component prototypes,
// used by component packages to publish their components for registration.
type SafeComponentSlice struct {
	components []AdviceComponent
	sync.Mutex
}

// Add appends component prototypes.
func (p *SafeComponentSlice) Add(components ...AdviceComponent) {
	p.Lock()
	defer p.Unlock()
	p.components = append(p.components, components...)
}

// Components returns the published component prototypes.
func (p *SafeComponentSlice) Components() []AdviceComponent {
	p.Lock()
	defer p.Unlock()
	return p.components
}
