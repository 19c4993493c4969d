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
	"log"
	"os"
)

// Logger is the minimal logging surface the engine depends on. The advisor
// registry and the built-in advice components log through it; anything with
// a Printf method plugs in.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Compile-time check that log.Logger satisfies Logger, so the stdlib logger
// can always stand in.
var _ Logger = &log.Logger{}

// DefaultLogger returns the logger used when Config.Logger is unset, writing
// to stdout with timestamps.
func DefaultLogger() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags)
}

// NewLogger returns custom when non-nil, otherwise DefaultLogger().
func NewLogger(custom Logger) Logger {
	if custom != nil {
		return custom
	}
	return DefaultLogger()
}
