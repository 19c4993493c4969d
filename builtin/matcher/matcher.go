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

// Package matcher provides the built-in pointcut matchers: name patterns,
// type assignability, expression pointcuts, schedule windows and boolean
// composition of any of them.
package matcher

import (
	"github.com/weavego/weavego/api/types"
)

// All returns a matcher accepting every join point.
func All() types.Matcher {
	return allMatcher{}
}

type allMatcher struct{}

func (allMatcher) Matches(types.Method) bool {
	return true
}

// And composes matchers conjunctively with short-circuit evaluation: the
// first non-match wins. If any member is a RuntimeMatcher the composite is
// one too, and runtime refinement applies the same short-circuit.
func And(matchers ...types.Matcher) types.Matcher {
	return newComposite(matchers, false)
}

// Or composes matchers disjunctively with short-circuit evaluation: the
// first match wins.
func Or(matchers ...types.Matcher) types.Matcher {
	return newComposite(matchers, true)
}

// Not inverts a matcher. Runtime refinement of the wrapped matcher is
// inverted as well.
func Not(m types.Matcher) types.Matcher {
	if _, ok := m.(types.RuntimeMatcher); ok {
		return notRuntimeMatcher{notMatcher{m}}
	}
	return notMatcher{m}
}

func newComposite(matchers []types.Matcher, disjunctive bool) types.Matcher {
	c := compositeMatcher{matchers: matchers, disjunctive: disjunctive}
	for _, m := range matchers {
		if _, ok := m.(types.RuntimeMatcher); ok {
			return compositeRuntimeMatcher{c}
		}
	}
	return c
}

type compositeMatcher struct {
	matchers    []types.Matcher
	disjunctive bool
}

func (c compositeMatcher) Matches(method types.Method) bool {
	for _, m := range c.matchers {
		if m.Matches(method) == c.disjunctive {
			return c.disjunctive
		}
	}
	return !c.disjunctive
}

type compositeRuntimeMatcher struct {
	compositeMatcher
}

func (c compositeRuntimeMatcher) MatchesRuntime(method types.Method, args []interface{}) bool {
	for _, m := range c.matchers {
		matched := true
		if rm, ok := m.(types.RuntimeMatcher); ok {
			matched = rm.MatchesRuntime(method, args)
		} else {
			matched = m.Matches(method)
		}
		if matched == c.disjunctive {
			return c.disjunctive
		}
	}
	return !c.disjunctive
}

type notMatcher struct {
	wrapped types.Matcher
}

func (n notMatcher) Matches(method types.Method) bool {
	return !n.wrapped.Matches(method)
}

type notRuntimeMatcher struct {
	notMatcher
}

func (n notRuntimeMatcher) MatchesRuntime(method types.Method, args []interface{}) bool {
	return !n.wrapped.(types.RuntimeMatcher).MatchesRuntime(method, args)
}
