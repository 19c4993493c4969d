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

// Package weavego provides a lightweight, embedded method interception
// engine: advisors pair a pointcut matcher with an advice, and a dynamic
// proxy routes calls on a plain object through the ordered interceptor
// chain built from the matching advisors.
//
// # Usage
//
// Register an advisor, wrap a target and call through the proxy:
//
//	registry := weavego.NewAdvisorRegistry(config)
//	_ = registry.Register(&types.Advisor{
//	    Id:      "trace",
//	    Matcher: matcher.NewNameMatcher("Greet*"),
//	    Advice: types.BeforeFunc(func(ctx context.Context, m types.Method, args []interface{}) error {
//	        log.Printf("calling %s", m.Name)
//	        return nil
//	    }),
//	    Order: 10,
//	})
//
//	proxy, err := weavego.NewProxy(&GreeterService{}, config, registry)
//	result, err := proxy.Call(ctx, "Greet", "x")
//
// Advisors can also be loaded from a JSON definition:
//
//	dsl := `{
//	  "advisors": [
//	    {"id": "trace", "type": "log", "order": 10, "methods": ["Greet*"]}
//	  ]
//	}`
//	err := weavego.LoadAdvisors(config, registry, []byte(dsl))
//
// For statically typed call sites, bind a facade struct of func fields:
//
//	var facade struct {
//	    Greet func(string) string
//	}
//	err := proxy.Bind(&facade)
//	greeting := facade.Greet("x")
//
// A target wanting to call another intercepted method on itself must go
// back through the proxy; with WithExposure enabled the proxy travels on
// the call context and weavego.CurrentProxy(ctx) returns it.
package weavego

import (
	"context"
	"reflect"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/engine"
)

// Registry is the default advice component registry, preloaded with the
// built-in components.
var Registry = engine.Registry

// NewConfig creates a new Config with default values and applies the
// provided options.
func NewConfig(opts ...types.Option) types.Config {
	return types.NewConfig(opts...)
}

// NewAdvisorRegistry creates an empty advisor registry.
func NewAdvisorRegistry(config types.Config) *engine.AdvisorRegistry {
	return engine.NewAdvisorRegistry(config)
}

// RegisterAdvisor registers an advice under a pointcut matcher and order
// with the given registry.
func RegisterAdvisor(registry *engine.AdvisorRegistry, matcher types.Matcher, advice types.Advice, order int) error {
	return registry.Register(&types.Advisor{Matcher: matcher, Advice: advice, Order: order})
}

// LoadAdvisors parses a JSON advisor chain definition and registers the
// resulting advisors.
func LoadAdvisors(config types.Config, registry *engine.AdvisorRegistry, dsl []byte) error {
	return engine.LoadAdvisors(config, registry, dsl)
}

// NewProxy creates a proxy for target over the advisors held by registry.
func NewProxy(target interface{}, config types.Config, registry *engine.AdvisorRegistry, opts ...types.ProxyOption) (*engine.DefaultProxy, error) {
	return engine.NewProxy(target, config, registry, opts...)
}

// NeedsProxy reports whether any advisor in registry matches any exported
// method of target's type. Lifecycle collaborators use it to decide whether
// wrapping a managed object is worth it at all.
func NeedsProxy(target interface{}, registry *engine.AdvisorRegistry) bool {
	if target == nil {
		return false
	}
	return registry.HasAnyMatch(reflect.TypeOf(target))
}

// CurrentProxy returns the proxy handling the call in flight, or
// types.ErrNoActiveProxy when ctx carries no exposed proxy.
func CurrentProxy(ctx context.Context) (types.Proxy, error) {
	return engine.CurrentProxy(ctx)
}
