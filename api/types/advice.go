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

import "context"

// The advice interfaces provide the AOP (Aspect Oriented Programming)
// mechanism of the engine. They allow adding extra behavior around method
// calls of a plain object without modifying the object's code, and let
// common behaviors (logging, metrics, rate limiting, degradation, caching)
// be separated from the business logic.
//
// An advice object implements one or more of the four canonical shapes
// below. At chain build time every shape is normalized into the single
// Interceptor capability, so the invocation only ever deals with one unit
// type.

// Advice is the marker for all advice shapes. A registered advice must
// implement at least one of BeforeAdvice, AfterReturningAdvice,
// AfterThrowingAdvice or AroundAdvice; registering anything else is a
// configuration error. Advice objects are owned by whoever registers them;
// the registry holds a reference and never copies or mutates them.
type Advice interface{}

// BeforeAdvice runs before the target call. It may inspect and mutate the
// shared argument slice, and may veto the call by returning an error; the
// target is then never reached and the error propagates unchanged.
type BeforeAdvice interface {
	Before(ctx context.Context, method Method, args []interface{}) error
}

// AfterReturningAdvice runs after a successful return. It observes but by
// convention does not replace the result. A non-nil error returned here
// converts the successful outcome into a failure; the advice does not run
// at all if the call path failed.
type AfterReturningAdvice interface {
	AfterReturning(ctx context.Context, method Method, result interface{}, args []interface{}) error
}

// AfterThrowingAdvice runs only when the call path failed. The original
// failure always resurfaces to the caller unless the advice returns a
// non-nil replacement error; a nil return keeps the original. A failure is
// never converted into success by this shape.
//
// An advice may additionally implement ErrorMatcher to be notified only for
// failures it cares about.
type AfterThrowingAdvice interface {
	AfterThrowing(ctx context.Context, method Method, args []interface{}, cause error) error
}

// ErrorMatcher optionally narrows an AfterThrowingAdvice to specific
// failures. When implemented, the advice is only invoked if MatchesError
// returns true; the failure propagates either way.
type ErrorMatcher interface {
	MatchesError(err error) bool
}

// AroundAdvice wraps the continuation entirely. The advice body decides
// whether and when to call inv.Proceed(), may replace arguments before
// continuing, may replace or discard the result and may translate errors.
//
// The contract guarantees at-most-once semantics for Proceed: calling it
// more than once on the same invocation is a caller error with undefined
// behavior, not something the engine defends against.
type AroundAdvice interface {
	Around(inv Invocation) (interface{}, error)
}

// BeforeFunc adapts an ordinary function to BeforeAdvice.
type BeforeFunc func(ctx context.Context, method Method, args []interface{}) error

func (f BeforeFunc) Before(ctx context.Context, method Method, args []interface{}) error {
	return f(ctx, method, args)
}

// AfterReturningFunc adapts an ordinary function to AfterReturningAdvice.
type AfterReturningFunc func(ctx context.Context, method Method, result interface{}, args []interface{}) error

func (f AfterReturningFunc) AfterReturning(ctx context.Context, method Method, result interface{}, args []interface{}) error {
	return f(ctx, method, result, args)
}

// AfterThrowingFunc adapts an ordinary function to AfterThrowingAdvice.
type AfterThrowingFunc func(ctx context.Context, method Method, args []interface{}, cause error) error

func (f AfterThrowingFunc) AfterThrowing(ctx context.Context, method Method, args []interface{}, cause error) error {
	return f(ctx, method, args, cause)
}

// AroundFunc adapts an ordinary function to AroundAdvice.
type AroundFunc func(inv Invocation) (interface{}, error)

func (f AroundFunc) Around(inv Invocation) (interface{}, error) {
	return f(inv)
}

// AdviceComponent is the lifecycle contract for advice implementations that
// can be instantiated from a declarative advisor definition. It mirrors the
// component model of the engine registry: a prototype is registered once,
// New creates a fresh instance per definition and Init applies the
// definition's configuration.
type AdviceComponent interface {
	// New creates a new instance of the component. Each advisor definition
	// gets its own instance with independent state.
	New() AdviceComponent
	// Type is the component type used in advisor definitions. It must be
	// unique within a component registry.
	Type() string
	// Init applies the definition configuration. It is called once, before
	// the advisor serves any traffic.
	Init(config Config, configuration Configuration) error
}

// Configuration holds the raw key/value configuration of a component
// definition.
type Configuration map[string]interface{}
