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
	"context"
	"fmt"
	"reflect"

	"github.com/gofrs/uuid/v5"

	"github.com/weavego/weavego/api/types"
)

// DefaultInvocation is the per-call execution record. It is created by the
// proxy for one call and never reused; the cursor advances monotonically
// from 0 to the chain length, where the terminal call on the target runs
// with the current arguments.
type DefaultInvocation struct {
	ctx    context.Context
	proxy  types.Proxy
	method types.Method
	// fn is the bound target method value, the terminal step of the chain.
	fn    reflect.Value
	args  []interface{}
	chain []types.Interceptor
	// cursor is the index of the next interceptor to run.
	cursor int
	id     string
}

var _ types.Invocation = (*DefaultInvocation)(nil)

func newInvocation(ctx context.Context, proxy types.Proxy, method types.Method, fn reflect.Value, args []interface{}, interceptors []types.Interceptor) *DefaultInvocation {
	return &DefaultInvocation{
		ctx:    ctx,
		proxy:  proxy,
		method: method,
		fn:     fn,
		args:   args,
		chain:  interceptors,
		id:     uuid.Must(uuid.NewV4()).String(),
	}
}

func (inv *DefaultInvocation) Context() context.Context {
	return inv.ctx
}

func (inv *DefaultInvocation) Target() interface{} {
	return inv.proxy.Target()
}

func (inv *DefaultInvocation) Method() types.Method {
	return inv.method
}

func (inv *DefaultInvocation) Arguments() []interface{} {
	return inv.args
}

func (inv *DefaultInvocation) SetArgument(index int, value interface{}) {
	inv.args[index] = value
}

func (inv *DefaultInvocation) Proxy() types.Proxy {
	return inv.proxy
}

func (inv *DefaultInvocation) Id() string {
	return inv.id
}

// Proceed advances through the chain one interceptor at a time. Each
// interceptor may recursively call Proceed to continue; the recursion depth
// is bounded by the number of advisors. When the chain is exhausted the real
// call runs on the target and its outcome flows back up unchanged unless an
// enclosing interceptor replaces it.
func (inv *DefaultInvocation) Proceed() (interface{}, error) {
	if inv.cursor < len(inv.chain) {
		next := inv.chain[inv.cursor]
		inv.cursor++
		return next.Execute(inv)
	}
	return inv.invokeTarget()
}

// invokeTarget performs the terminal reflect call with the current argument
// values. A trailing error result is split off as the invocation error;
// remaining results surface as a single value or a slice.
func (inv *DefaultInvocation) invokeTarget() (interface{}, error) {
	in, err := inv.convertArguments()
	if err != nil {
		return nil, err
	}
	out := inv.fn.Call(in)
	return splitResults(inv.method, out)
}

// convertArguments maps the interface{} argument slice onto the parameter
// types of the method. nil arguments become zero values of the parameter
// type; convertible values are converted.
func (inv *DefaultInvocation) convertArguments() ([]reflect.Value, error) {
	params := inv.method.ParamTypes
	args := inv.args
	if inv.method.Variadic {
		if len(args) < len(params)-1 {
			return nil, fmt.Errorf("method %s expects at least %d arguments, got %d", inv.method.Key(), len(params)-1, len(args))
		}
	} else if len(args) != len(params) {
		return nil, fmt.Errorf("method %s expects %d arguments, got %d", inv.method.Key(), len(params), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		pt := paramTypeAt(inv.method, i)
		if arg == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		rv := reflect.ValueOf(arg)
		switch {
		case rv.Type().AssignableTo(pt):
			in[i] = rv
		case isNumericConversion(rv.Type(), pt):
			in[i] = rv.Convert(pt)
		default:
			return nil, fmt.Errorf("method %s argument %d: cannot use %s as %s", inv.method.Key(), i, rv.Type(), pt)
		}
	}
	return in, nil
}

// isNumericConversion reports whether converting between the two types only
// crosses numeric kinds. reflect.Type.ConvertibleTo is wider than that: it
// also admits Go's integer-to-string code point conversion, which would turn
// a mistyped argument into a garbage string instead of an error. Anything
// non-numeric must be assignable.
func isNumericConversion(from reflect.Type, to reflect.Type) bool {
	return isNumericKind(from.Kind()) && isNumericKind(to.Kind())
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// paramTypeAt resolves the declared type of positional argument i, unrolling
// the variadic tail to its element type.
func paramTypeAt(method types.Method, i int) reflect.Type {
	params := method.ParamTypes
	if method.Variadic && i >= len(params)-1 {
		return params[len(params)-1].Elem()
	}
	return params[i]
}

// splitResults shapes the reflect call results: a trailing error is
// separated, zero remaining values yield nil, one yields the value itself
// and several yield a []interface{}.
func splitResults(method types.Method, out []reflect.Value) (interface{}, error) {
	var err error
	if method.ReturnsError() {
		last := out[len(out)-1]
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	switch len(out) {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	default:
		values := make([]interface{}, len(out))
		for i, v := range out {
			values[i] = v.Interface()
		}
		return values, err
	}
}
