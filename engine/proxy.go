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
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/weavego/weavego/api/types"
)

var (
	// ErrNoProxyableMethods is a configuration error: the target exposes no
	// method the chosen strategy can intercept. It surfaces at proxy
	// creation, never at first call.
	ErrNoProxyableMethods = errors.New("target has no proxyable methods")
	// ErrInterfaceNotImplemented is a configuration error: the target does
	// not implement a supplied interface type.
	ErrInterfaceNotImplemented = errors.New("target does not implement interface")
	// ErrMethodNotFound reports a Call against a method outside the proxy
	// surface.
	ErrMethodNotFound = errors.New("method not found on proxy surface")
	// ErrNotAFacadeStruct reports a Bind argument that is not a pointer to
	// a struct with at least one exported func field.
	ErrNotAFacadeStruct = errors.New("facade must be a pointer to a struct with exported func fields")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// proxyMethod is one entry of the proxy's method table: the join point
// descriptor, the bound target method and the cached interceptor chain.
type proxyMethod struct {
	method types.Method
	// fn is the target method bound to the target value; calling it is the
	// terminal step of every chain.
	fn reflect.Value

	mu     sync.Mutex
	cached *chain
}

// DefaultProxy is the callable surrogate standing in for a target object.
// It is created once per target configuration and reused across many calls;
// each call builds a fresh invocation over the cached chain for its method.
type DefaultProxy struct {
	config     types.Config
	registry   *AdvisorRegistry
	target     interface{}
	targetType reflect.Type
	strategy   types.ProxyStrategy
	exposure   bool
	methods    map[string]*proxyMethod
	// ordered preserves the enumeration order of the proxy surface.
	ordered []types.Method
}

var _ types.Proxy = (*DefaultProxy)(nil)

// NewProxy creates a proxy for target over the advisors held by registry.
//
// Strategy selection: an explicit WithStrategy hint wins; otherwise the
// interface strategy is chosen when at least one interface type was supplied
// via WithInterfaces and implemented by the target, else the struct
// strategy. A target with no interceptable method fails here with
// ErrNoProxyableMethods.
//
// An empty chain for a method still dispatches through the terminal call:
// the decision to proxy is made once for the whole target, not per method.
func NewProxy(target interface{}, config types.Config, registry *AdvisorRegistry, opts ...types.ProxyOption) (*DefaultProxy, error) {
	if target == nil {
		return nil, errors.New("target must not be nil")
	}
	if registry == nil {
		return nil, errors.New("advisor registry must not be nil")
	}
	options := types.ProxyOptions{Strategy: types.StrategyAuto}
	for _, opt := range opts {
		opt(&options)
	}

	targetValue := reflect.ValueOf(target)
	targetType := targetValue.Type()

	strategy := options.Strategy
	if strategy == types.StrategyAuto || strategy == "" {
		if len(options.Interfaces) > 0 {
			strategy = types.StrategyInterface
		} else {
			strategy = types.StrategyStruct
		}
	}

	p := &DefaultProxy{
		config:     config,
		registry:   registry,
		target:     target,
		targetType: targetType,
		strategy:   strategy,
		exposure:   options.Exposure,
		methods:    make(map[string]*proxyMethod),
	}

	switch strategy {
	case types.StrategyInterface:
		if len(options.Interfaces) == 0 {
			return nil, fmt.Errorf("interface strategy requires at least one interface type: %w", ErrNoProxyableMethods)
		}
		for _, iface := range options.Interfaces {
			if iface.Kind() != reflect.Interface {
				return nil, fmt.Errorf("%s is not an interface type", iface)
			}
			if !targetType.Implements(iface) {
				return nil, fmt.Errorf("%s: %s: %w", targetType, iface, ErrInterfaceNotImplemented)
			}
			for _, method := range types.MethodsOf(iface, targetType) {
				p.addMethod(method, targetValue.MethodByName(method.Name))
			}
		}
	case types.StrategyStruct:
		for _, method := range types.MethodsOf(targetType, targetType) {
			p.addMethod(method, targetValue.MethodByName(method.Name))
		}
	default:
		return nil, fmt.Errorf("unknown proxy strategy %q", strategy)
	}

	if len(p.methods) == 0 {
		return nil, fmt.Errorf("%s: %w", targetType, ErrNoProxyableMethods)
	}
	return p, nil
}

func (p *DefaultProxy) addMethod(method types.Method, fn reflect.Value) {
	if _, ok := p.methods[method.Name]; ok {
		// Same method reachable through several supplied interfaces.
		return
	}
	p.methods[method.Name] = &proxyMethod{method: method, fn: fn}
	p.ordered = append(p.ordered, method)
}

// Call dispatches a method call through the interceptor chain. args mirrors
// the target parameter list, except that a leading context.Context parameter
// is injected from ctx and must not be passed in args.
func (p *DefaultProxy) Call(ctx context.Context, methodName string, args ...interface{}) (interface{}, error) {
	pm, ok := p.methods[methodName]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", p.targetType, methodName, ErrMethodNotFound)
	}
	if pm.method.HasContext() {
		args = append([]interface{}{nil}, args...)
	}
	return p.invoke(ctx, pm, args)
}

// invoke is the single generic handler every call surface funnels through.
// It scopes the current-proxy exposure to this call, assembles the chain and
// runs the invocation. Advice errors pass through unchanged.
func (p *DefaultProxy) invoke(ctx context.Context, pm *proxyMethod, args []interface{}) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx := ctx
	if p.exposure {
		callCtx = withCurrentProxy(ctx, p)
	}
	if pm.method.HasContext() && len(args) > 0 {
		args[0] = callCtx
	}

	interceptors := p.chainFor(pm, args)
	inv := newInvocation(callCtx, p, pm.method, pm.fn, args, interceptors)

	if p.config.OnDebug != nil {
		p.config.OnDebug(types.In, inv.Id(), pm.method, args, nil, nil)
	}
	result, err := inv.Proceed()
	if p.config.OnDebug != nil {
		p.config.OnDebug(types.Out, inv.Id(), pm.method, args, result, err)
	}
	return result, err
}

// chainFor returns the interceptor sequence for one call, rebuilding the
// cached chain when the registry has moved since it was computed.
func (p *DefaultProxy) chainFor(pm *proxyMethod, args []interface{}) []types.Interceptor {
	pm.mu.Lock()
	c := pm.cached
	if c == nil || c.version != p.registry.Version() {
		c = buildChain(p.registry, pm.method)
		pm.cached = c
	}
	pm.mu.Unlock()
	return c.interceptorsFor(p.registry, pm.method, args)
}

// Bind fills the exported func fields of the struct pointed to by facade so
// that call sites stay statically typed while still routing through the
// chain. Every func field must match a proxyable method by name, and its
// type must equal the method's func type (Method.FuncType).
//
// A result produced by an Around advice that does not fit the method's
// declared result types cannot be expressed through the typed surface and
// panics at the call site; that is a caller error of the advice, not
// something the proxy converts silently.
func (p *DefaultProxy) Bind(facade interface{}) error {
	rv := reflect.ValueOf(facade)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return ErrNotAFacadeStruct
	}
	elem := rv.Elem()
	t := elem.Type()
	bound := 0
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Type.Kind() != reflect.Func {
			continue
		}
		pm, ok := p.methods[field.Name]
		if !ok {
			return fmt.Errorf("facade field %s: %w", field.Name, ErrMethodNotFound)
		}
		if field.Type != pm.method.FuncType() {
			return fmt.Errorf("facade field %s has type %s, method requires %s", field.Name, field.Type, pm.method.FuncType())
		}
		elem.Field(i).Set(reflect.MakeFunc(field.Type, p.dispatcher(pm)))
		bound++
	}
	if bound == 0 {
		return ErrNotAFacadeStruct
	}
	return nil
}

// dispatcher adapts the typed facade call frame to the generic handler and
// back.
func (p *DefaultProxy) dispatcher(pm *proxyMethod) func(in []reflect.Value) []reflect.Value {
	return func(in []reflect.Value) []reflect.Value {
		args := make([]interface{}, 0, len(in))
		for i, v := range in {
			if pm.method.Variadic && i == len(in)-1 {
				// MakeFunc hands the variadic tail as one slice; spread it
				// so interceptors see positional arguments.
				for j := 0; j < v.Len(); j++ {
					args = append(args, v.Index(j).Interface())
				}
				continue
			}
			args = append(args, v.Interface())
		}
		var ctx context.Context
		if pm.method.HasContext() && len(args) > 0 {
			ctx, _ = args[0].(context.Context)
		}
		result, err := p.invoke(ctx, pm, args)
		return packResults(pm.method, result, err)
	}
}

// packResults maps the generic (result, error) pair back onto the method's
// declared result frame.
func packResults(method types.Method, result interface{}, err error) []reflect.Value {
	returns := method.ReturnTypes
	out := make([]reflect.Value, len(returns))
	n := len(returns)
	if method.ReturnsError() {
		n--
		errValue := reflect.New(errorType).Elem()
		if err != nil {
			errValue.Set(reflect.ValueOf(err))
		}
		out[n] = errValue
	}
	switch n {
	case 0:
	case 1:
		out[0] = resultValue(returns[0], result)
	default:
		values, _ := result.([]interface{})
		for i := 0; i < n; i++ {
			if i < len(values) {
				out[i] = resultValue(returns[i], values[i])
			} else {
				out[i] = reflect.Zero(returns[i])
			}
		}
	}
	return out
}

func resultValue(t reflect.Type, v interface{}) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		return rv
	case isNumericConversion(rv.Type(), t):
		return rv.Convert(t)
	default:
		panic(fmt.Sprintf("advice result of type %s cannot be returned as %s", rv.Type(), t))
	}
}

// Target returns the raw target object. Calls made directly on it bypass
// interception; that is a documented limitation of proxying by surrogate.
func (p *DefaultProxy) Target() interface{} {
	return p.target
}

// TargetType returns the concrete type of the target.
func (p *DefaultProxy) TargetType() reflect.Type {
	return p.targetType
}

// Methods returns the proxyable method descriptors in enumeration order.
func (p *DefaultProxy) Methods() []types.Method {
	methods := make([]types.Method, len(p.ordered))
	copy(methods, p.ordered)
	return methods
}

// Strategy returns the effective proxying strategy.
func (p *DefaultProxy) Strategy() types.ProxyStrategy {
	return p.strategy
}
