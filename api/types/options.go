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
	"time"
)

// Option is a function type that modifies the Config.
type Option func(*Config) error

// WithComponentsRegistry is an option that sets the advice components'
// registry of the Config.
func WithComponentsRegistry(componentsRegistry ComponentRegistry) Option {
	return func(c *Config) error {
		c.ComponentsRegistry = componentsRegistry
		return nil
	}
}

// WithOnDebug is an option that sets the on debug callback of the Config.
func WithOnDebug(onDebug func(flowType string, invocationId string, method Method, args []interface{}, result interface{}, err error)) Option {
	return func(c *Config) error {
		c.OnDebug = onDebug
		return nil
	}
}

// WithScriptMaxExecutionTime is an option that sets the script max execution
// time of the Config.
func WithScriptMaxExecutionTime(scriptMaxExecutionTime time.Duration) Option {
	return func(c *Config) error {
		c.ScriptMaxExecutionTime = scriptMaxExecutionTime
		return nil
	}
}

// WithLogger is an option that sets the logger of the Config.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithProperties is an option that sets the global properties of the Config.
func WithProperties(properties map[string]interface{}) Option {
	return func(c *Config) error {
		c.Properties = properties
		return nil
	}
}

// ProxyOptions configures a single proxy.
type ProxyOptions struct {
	// Strategy is the proxying strategy hint, defaulting to StrategyAuto.
	Strategy ProxyStrategy
	// Interfaces are the interface types forming the proxy surface under
	// the interface strategy.
	Interfaces []reflect.Type
	// Exposure controls whether the proxy publishes itself on the call
	// context for self-invocation through CurrentProxy.
	Exposure bool
}

// ProxyOption is a function type that modifies the ProxyOptions.
type ProxyOption func(*ProxyOptions)

// WithStrategy forces a proxying strategy instead of auto selection.
func WithStrategy(strategy ProxyStrategy) ProxyOption {
	return func(o *ProxyOptions) {
		o.Strategy = strategy
	}
}

// WithInterfaces supplies the interface types forming the proxy surface.
// InterfaceOf is the usual way to obtain the reflect.Type values.
func WithInterfaces(interfaces ...reflect.Type) ProxyOption {
	return func(o *ProxyOptions) {
		o.Interfaces = append(o.Interfaces, interfaces...)
	}
}

// WithExposure enables publishing the proxy on the call context so that the
// target can route self-invocations back through the chain.
func WithExposure() ProxyOption {
	return func(o *ProxyOptions) {
		o.Exposure = true
	}
}

// InterfaceOf returns the reflect.Type of the interface type parameter, for
// use with WithInterfaces.
func InterfaceOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
