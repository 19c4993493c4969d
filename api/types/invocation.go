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
	"context"
	"errors"
	"reflect"
)

// ErrNoActiveProxy is returned by CurrentProxy when no exposed proxy is
// active on the calling context, either because the call did not go through
// a proxy or because the proxy was created without exposure.
var ErrNoActiveProxy = errors.New("no active proxy")

// Invocation is a single call's execution context. It is owned exclusively
// by the call that created it, is never shared across calls and must not be
// held past the call's completion.
//
// The argument slice is a single shared mutable record threaded through the
// chain: a mutation made by one interceptor is observed by every later
// interceptor and by the terminal call. Once the terminal call has started,
// further mutation has no effect.
type Invocation interface {
	// Context returns the call context. When the proxy has exposure enabled
	// this context carries the proxy handle.
	Context() context.Context
	// Target returns the real object behind the proxy.
	Target() interface{}
	// Method returns the join point descriptor of the call.
	Method() Method
	// Arguments returns the shared mutable argument slice, mirroring the
	// target parameter list. For methods whose first parameter is a
	// context.Context, Arguments()[0] is the injected call context.
	Arguments() []interface{}
	// SetArgument replaces the argument at index before the continuation
	// consumes it.
	SetArgument(index int, value interface{})
	// Proxy returns the proxy handling this call.
	Proxy() Proxy
	// Id returns the unique id of this invocation, used for tracing.
	Id() string
	// Proceed advances to the next interceptor in the chain, or performs
	// the terminal call on the target when the chain is exhausted. Calling
	// it more than once from the same Around advice is a caller error.
	Proceed() (interface{}, error)
}

// Interceptor is the normalized, chainable unit produced from any advice
// shape. Execute runs the interceptor's own logic and decides whether to
// continue the chain through inv.Proceed().
type Interceptor interface {
	Execute(inv Invocation) (interface{}, error)
}

// ProxyStrategy selects how the proxy surface is derived from the target.
type ProxyStrategy string

const (
	// StrategyAuto picks the interface strategy when at least one interface
	// type was supplied and implemented, otherwise the struct strategy.
	StrategyAuto ProxyStrategy = "auto"
	// StrategyInterface restricts the proxyable method set to supplied
	// interface types. Calls made directly on the raw target bypass
	// interception; that is a documented limitation, not a bug.
	StrategyInterface ProxyStrategy = "interface"
	// StrategyStruct proxies the full exported method set of the concrete
	// type. Unexported methods are not interceptable.
	StrategyStruct ProxyStrategy = "struct"
)

// Proxy is the callable surrogate standing in for a target object. It is
// created once per target configuration and reused across many calls.
type Proxy interface {
	// Call dispatches a method call through the interceptor chain. The
	// argument list mirrors the target parameter list except that a leading
	// context.Context parameter is injected from ctx and must not be passed
	// in args.
	//
	// The single non-error result surfaces as interface{}; methods with
	// multiple non-error results surface them as []interface{}.
	Call(ctx context.Context, methodName string, args ...interface{}) (interface{}, error)
	// Bind fills the exported func fields of the struct pointed to by
	// facade, routing each through the interceptor chain, so that call
	// sites stay statically typed. Every func field must match a proxyable
	// method by name and signature.
	Bind(facade interface{}) error
	// Target returns the raw target object.
	Target() interface{}
	// TargetType returns the concrete type of the target.
	TargetType() reflect.Type
	// Methods returns the proxyable method descriptors.
	Methods() []Method
	// Strategy returns the effective proxying strategy.
	Strategy() ProxyStrategy
}
