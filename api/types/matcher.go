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

// Matcher is the pointcut predicate deciding whether an advisor applies to a
// join point. Implementations must be side-effect free and deterministic for
// a given descriptor; chain caching depends on it. A matcher that panics is
// treated as a non-match and logged, it never aborts chain construction.
type Matcher interface {
	Matches(method Method) bool
}

// RuntimeMatcher refines a static match against the runtime arguments of a
// single call. An advisor guarded by a runtime matcher participates in the
// chain per call; its position in the chain never changes, only whether it
// takes part.
type RuntimeMatcher interface {
	Matcher
	MatchesRuntime(method Method, args []interface{}) bool
}

// MatcherFunc adapts an ordinary function to Matcher.
type MatcherFunc func(method Method) bool

func (f MatcherFunc) Matches(method Method) bool {
	return f(method)
}

// Advisor pairs a pointcut with its advice and ordering. Lower order runs
// first and outermost; ties are broken by registration sequence. Order is
// fixed for the advisor's lifetime once registered.
type Advisor struct {
	// Id optionally names the advisor, for diagnostics and the inspector
	// endpoint.
	Id string
	// Matcher selects the join points the advice applies to.
	Matcher Matcher
	// Advice is the behavior to run, implementing at least one advice shape.
	Advice Advice
	// Order is the execution order, the smaller the value, the higher the
	// priority.
	Order int

	// sequence is the registration order, assigned by the registry and used
	// to break order ties.
	sequence int64
}

// Sequence returns the registration sequence assigned by the registry.
func (a *Advisor) Sequence() int64 {
	return a.sequence
}

// SetSequence is called by the registry when the advisor is registered.
func (a *Advisor) SetSequence(seq int64) {
	a.sequence = seq
}
