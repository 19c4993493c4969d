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

package matcher

import (
	"reflect"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/utils/str"
)

// NameMatcher matches method names against wildcard patterns, e.g. "Get*",
// "*ById", "Save". The matcher accepts a join point when any pattern
// matches.
type NameMatcher struct {
	Patterns []string
}

var _ types.Matcher = (*NameMatcher)(nil)

// NewNameMatcher creates a NameMatcher over the given patterns.
func NewNameMatcher(patterns ...string) *NameMatcher {
	return &NameMatcher{Patterns: patterns}
}

func (m *NameMatcher) Matches(method types.Method) bool {
	for _, pattern := range m.Patterns {
		if str.MatchWildcard(pattern, method.Name) {
			return true
		}
	}
	return false
}

// TypeMatcher matches join points whose target type is assignable to Type.
// With an interface type it selects every target implementing it; with a
// concrete type it selects that type only.
type TypeMatcher struct {
	Type reflect.Type
}

var _ types.Matcher = (*TypeMatcher)(nil)

// NewTypeMatcher creates a TypeMatcher for t. types.InterfaceOf is the usual
// way to obtain an interface reflect.Type.
func NewTypeMatcher(t reflect.Type) *TypeMatcher {
	return &TypeMatcher{Type: t}
}

func (m *TypeMatcher) Matches(method types.Method) bool {
	if m.Type == nil {
		return false
	}
	if m.Type.Kind() == reflect.Interface {
		return method.TargetType.Implements(m.Type)
	}
	return method.TargetType == m.Type
}
