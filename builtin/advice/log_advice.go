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

// Package advice provides the built-in advice components: call logging,
// metrics, concurrency limiting, failure fallback and script advice. Each
// component follows the New/Type/Init lifecycle so it can be instantiated
// from a declarative advisor definition.
package advice

import (
	"context"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/utils/maps"
)

// Registry publishes the built-in advice components for registration in the
// default component registry.
var Registry = new(types.SafeComponentSlice)

func init() {
	Registry.Add(&LogAdvice{}, &MetricsAdvice{}, &LimiterAdvice{}, &FallbackAdvice{}, &JsAdvice{})
}

var (
	// Compile-time check LogAdvice implements types.BeforeAdvice.
	_ types.BeforeAdvice = (*LogAdvice)(nil)
	// Compile-time check LogAdvice implements types.AfterReturningAdvice.
	_ types.AfterReturningAdvice = (*LogAdvice)(nil)
	// Compile-time check LogAdvice implements types.AfterThrowingAdvice.
	_ types.AfterThrowingAdvice = (*LogAdvice)(nil)
)

// LogAdviceConfiguration holds the log advice parameters.
type LogAdviceConfiguration struct {
	// Prefix is prepended to every log line.
	Prefix string
}

// LogAdvice logs method entry, return and failure through the configured
// Logger. It observes and never alters arguments, results or errors.
type LogAdvice struct {
	Config LogAdviceConfiguration
	logger types.Logger
}

func (a *LogAdvice) New() types.AdviceComponent {
	return &LogAdvice{}
}

func (a *LogAdvice) Type() string {
	return "log"
}

func (a *LogAdvice) Init(config types.Config, configuration types.Configuration) error {
	a.logger = types.NewLogger(config.Logger)
	return maps.Map2Struct(configuration, &a.Config)
}

func (a *LogAdvice) Before(_ context.Context, method types.Method, args []interface{}) error {
	a.logger.Printf("%s%s %s args=%v", a.Config.Prefix, types.In, method.Key(), args)
	return nil
}

func (a *LogAdvice) AfterReturning(_ context.Context, method types.Method, result interface{}, _ []interface{}) error {
	a.logger.Printf("%s%s %s result=%v", a.Config.Prefix, types.Out, method.Key(), result)
	return nil
}

func (a *LogAdvice) AfterThrowing(_ context.Context, method types.Method, _ []interface{}, cause error) error {
	a.logger.Printf("%s%s %s error=%v", a.Config.Prefix, types.Out, method.Key(), cause)
	return nil
}
