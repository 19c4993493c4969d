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

import "time"

// Flow direction of a debug event relative to the interceptor chain.
const (
	In  = "IN"
	Out = "OUT"
)

// Config defines the configuration shared by proxies, advice components and
// the parser.
type Config struct {
	// OnDebug is a callback for invocation debug information.
	// - flowType: IN when the call enters the chain, OUT when it leaves.
	// - invocationId: the unique id of the invocation.
	// - method: the join point descriptor.
	// - args: the current argument slice.
	// - result: the result leaving the chain. Only set for OUT events.
	// - err: error information, if any. Only set for OUT events.
	OnDebug func(flowType string, invocationId string, method Method, args []interface{}, result interface{}, err error)
	// ScriptMaxExecutionTime is the maximum execution time for scripts,
	// defaulting to 2000 milliseconds.
	ScriptMaxExecutionTime time.Duration
	// ComponentsRegistry is the advice component registry used when loading
	// advisors from definitions, defaulting to `weavego.Registry`.
	ComponentsRegistry ComponentRegistry
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	Logger Logger
	// Properties are global properties in key-value format, exposed to
	// script and expression based components.
	Properties map[string]interface{}
	// Udf is a map for registering custom Golang functions that can be
	// called at runtime by the script engine.
	Udf map[string]interface{}
}

// RegisterUdf registers a custom function callable from script advice.
func (c *Config) RegisterUdf(name string, value interface{}) {
	if c.Udf == nil {
		c.Udf = make(map[string]interface{})
	}
	c.Udf[name] = value
}

// NewConfig creates a new Config with default values and applies the
// provided options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		ScriptMaxExecutionTime: time.Millisecond * 2000,
		Logger:                 DefaultLogger(),
		Properties:             make(map[string]interface{}),
	}

	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}
