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
	"reflect"
	"strings"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// Method is an immutable join point descriptor identifying a candidate call
// site. It is derived once from static type information; matching and chain
// caching rely on it being a pure value.
//
// DeclaringType is the interface the method was taken from when the proxy
// uses the interface strategy, otherwise it equals TargetType.
type Method struct {
	// DeclaringType is the type the method set was enumerated from.
	DeclaringType reflect.Type
	// TargetType is the concrete type of the proxied target.
	TargetType reflect.Type
	// Name is the method name.
	Name string
	// ParamTypes are the parameter types, receiver excluded.
	ParamTypes []reflect.Type
	// ReturnTypes are the result types.
	ReturnTypes []reflect.Type
	// Variadic reports whether the final parameter is variadic.
	Variadic bool

	key string
}

// NewMethod builds a Method descriptor from a reflect.Method. For methods
// enumerated from a concrete (non-interface) type the receiver is stripped
// from the parameter list.
func NewMethod(declaring reflect.Type, target reflect.Type, rm reflect.Method) Method {
	ft := rm.Type
	start := 0
	if declaring.Kind() != reflect.Interface {
		// Concrete method funcs carry the receiver as the first parameter.
		start = 1
	}
	params := make([]reflect.Type, 0, ft.NumIn()-start)
	for i := start; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}
	returns := make([]reflect.Type, 0, ft.NumOut())
	for i := 0; i < ft.NumOut(); i++ {
		returns = append(returns, ft.Out(i))
	}
	m := Method{
		DeclaringType: declaring,
		TargetType:    target,
		Name:          rm.Name,
		ParamTypes:    params,
		ReturnTypes:   returns,
		Variadic:      ft.IsVariadic(),
	}
	m.key = m.computeKey()
	return m
}

// MethodsOf enumerates the exported method set of t as join point
// descriptors. t may be an interface type or a concrete type; for interface
// types target must be the concrete type standing behind it.
func MethodsOf(declaring reflect.Type, target reflect.Type) []Method {
	methods := make([]Method, 0, declaring.NumMethod())
	for i := 0; i < declaring.NumMethod(); i++ {
		rm := declaring.Method(i)
		if !rm.IsExported() {
			continue
		}
		methods = append(methods, NewMethod(declaring, target, rm))
	}
	return methods
}

// Key returns the stable identity token of the method, combining declaring
// type and signature. Chains are cached by this key so that the hot path
// stays reflection free.
func (m Method) Key() string {
	return m.key
}

func (m Method) computeKey() string {
	var sb strings.Builder
	sb.WriteString(m.DeclaringType.String())
	sb.WriteByte('.')
	sb.WriteString(m.Name)
	sb.WriteByte('(')
	for i, p := range m.ParamTypes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.String())
	}
	sb.WriteByte(')')
	for i, r := range m.ReturnTypes {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteByte(',')
		}
		sb.WriteString(r.String())
	}
	return sb.String()
}

// HasContext reports whether the first parameter is a context.Context. The
// proxy injects the call context into that argument slot, which is how the
// current-proxy exposure reaches code inside the target method.
func (m Method) HasContext() bool {
	return len(m.ParamTypes) > 0 && m.ParamTypes[0] == contextType
}

// FuncType returns the func type of the method without receiver. Facade
// struct fields must match this type exactly to be bound.
func (m Method) FuncType() reflect.Type {
	return reflect.FuncOf(m.ParamTypes, m.ReturnTypes, m.Variadic)
}

// ReturnsError reports whether the final result type is error. A trailing
// error is split off as the invocation error instead of surfacing as a value.
func (m Method) ReturnsError() bool {
	return len(m.ReturnTypes) > 0 && m.ReturnTypes[len(m.ReturnTypes)-1] == errorType
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func (m Method) String() string {
	return m.key
}
