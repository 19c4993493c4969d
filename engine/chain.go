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
	"github.com/weavego/weavego/api/types"
)

// chainEntry is one advisor's contribution to a method chain. When runtime
// is non-nil the entry participates per call, after the runtime matcher has
// seen the actual arguments; its position in the chain never changes.
type chainEntry struct {
	advisor     *types.Advisor
	interceptor types.Interceptor
	runtime     types.RuntimeMatcher
}

// chain is the ordered interceptor sequence computed for one method. It is
// immutable once built and cached by the method identity token until the
// registry version moves.
type chain struct {
	entries      []chainEntry
	argSensitive bool
	version      int64
	// static is the precomputed interceptor sequence, only set when no
	// entry is argument sensitive.
	static []types.Interceptor
}

// buildChain filters the registry for method and normalizes each matching
// advisor's advice shape into the Interceptor capability. Outer-to-inner
// follows ascending advisor order: the lowest-order advisor's Before logic
// executes first and its AfterReturning/AfterThrowing logic executes last.
func buildChain(registry *AdvisorRegistry, method types.Method) *chain {
	version := registry.Version()
	advisors := registry.AdvisorsFor(method)
	c := &chain{version: version}
	for _, advisor := range advisors {
		rm, _ := advisor.Matcher.(types.RuntimeMatcher)
		if rm != nil {
			c.argSensitive = true
		}
		c.entries = append(c.entries, chainEntry{
			advisor:     advisor,
			interceptor: normalizeAdvice(advisor.Advice),
			runtime:     rm,
		})
	}
	if !c.argSensitive {
		c.static = make([]types.Interceptor, len(c.entries))
		for i, entry := range c.entries {
			c.static[i] = entry.interceptor
		}
	}
	return c
}

// interceptorsFor returns the interceptor sequence for one call. For
// argument-insensitive chains this is the cached static sequence; otherwise
// the runtime matchers re-filter participation against args without
// re-sorting.
func (c *chain) interceptorsFor(registry *AdvisorRegistry, method types.Method, args []interface{}) []types.Interceptor {
	if !c.argSensitive {
		return c.static
	}
	interceptors := make([]types.Interceptor, 0, len(c.entries))
	for _, entry := range c.entries {
		if entry.runtime != nil && !registry.safeMatchesRuntime(entry.advisor, entry.runtime, method, args) {
			continue
		}
		interceptors = append(interceptors, entry.interceptor)
	}
	return interceptors
}

// normalizeAdvice converts any advice shape into an Interceptor. An advice
// implementing Around is normalized to that shape alone, since the Around
// body owns the whole wrap. Otherwise the implemented shapes form one onion
// layer, nested Before > AfterThrowing > AfterReturning, so Before runs
// ahead of the continuation and the after shapes observe its outcome.
func normalizeAdvice(advice types.Advice) types.Interceptor {
	var interceptor types.Interceptor = terminalForwarder{}
	if a, ok := advice.(types.AroundAdvice); ok {
		return aroundInterceptor{advice: a}
	}
	if a, ok := advice.(types.AfterReturningAdvice); ok {
		interceptor = afterReturningInterceptor{advice: a, next: interceptor}
	}
	if a, ok := advice.(types.AfterThrowingAdvice); ok {
		interceptor = afterThrowingInterceptor{advice: a, next: interceptor}
	}
	if a, ok := advice.(types.BeforeAdvice); ok {
		interceptor = beforeInterceptor{advice: a, next: interceptor}
	}
	return interceptor
}

// terminalForwarder ends the per-advice nesting and hands control back to
// the invocation's chain.
type terminalForwarder struct{}

func (terminalForwarder) Execute(inv types.Invocation) (interface{}, error) {
	return inv.Proceed()
}

// beforeInterceptor runs the advice ahead of the continuation. An advice
// error vetoes the call: the continuation is never reached and the error
// propagates unchanged.
type beforeInterceptor struct {
	advice types.BeforeAdvice
	next   types.Interceptor
}

func (i beforeInterceptor) Execute(inv types.Invocation) (interface{}, error) {
	if err := i.advice.Before(inv.Context(), inv.Method(), inv.Arguments()); err != nil {
		return nil, err
	}
	return i.next.Execute(inv)
}

// afterReturningInterceptor runs the advice after a successful return. An
// advice error replaces the successful result with a failure. The advice
// does not run if the continuation itself failed.
type afterReturningInterceptor struct {
	advice types.AfterReturningAdvice
	next   types.Interceptor
}

func (i afterReturningInterceptor) Execute(inv types.Invocation) (interface{}, error) {
	result, err := i.next.Execute(inv)
	if err != nil {
		return result, err
	}
	if adviceErr := i.advice.AfterReturning(inv.Context(), inv.Method(), result, inv.Arguments()); adviceErr != nil {
		return nil, adviceErr
	}
	return result, nil
}

// afterThrowingInterceptor notifies the advice of a failure and always
// rethrows: either the original error, or a replacement the advice chose to
// return. A failure is never converted into success.
type afterThrowingInterceptor struct {
	advice types.AfterThrowingAdvice
	next   types.Interceptor
}

func (i afterThrowingInterceptor) Execute(inv types.Invocation) (interface{}, error) {
	result, err := i.next.Execute(inv)
	if err == nil {
		return result, nil
	}
	if em, ok := i.advice.(types.ErrorMatcher); ok && !em.MatchesError(err) {
		return nil, err
	}
	if replacement := i.advice.AfterThrowing(inv.Context(), inv.Method(), inv.Arguments(), err); replacement != nil {
		return nil, replacement
	}
	return nil, err
}

// aroundInterceptor delegates entirely to the advice body, which owns the
// decision whether and when to call inv.Proceed().
type aroundInterceptor struct {
	advice types.AroundAdvice
}

func (i aroundInterceptor) Execute(inv types.Invocation) (interface{}, error) {
	return i.advice.Around(inv)
}
