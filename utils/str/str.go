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

package str

import "strings"

// WildcardSymbol is the wildcard used in method name patterns.
const WildcardSymbol = "*"

// MatchWildcard reports whether s matches pattern, where `*` matches any
// sequence of characters including the empty one. A pattern without `*` is
// an exact match.
func MatchWildcard(pattern string, s string) bool {
	if pattern == WildcardSymbol {
		return true
	}
	if !strings.Contains(pattern, WildcardSymbol) {
		return pattern == s
	}
	parts := strings.Split(pattern, WildcardSymbol)
	// Leading literal must anchor at the start.
	if parts[0] != "" && !strings.HasPrefix(s, parts[0]) {
		return false
	}
	// Trailing literal must anchor at the end.
	last := parts[len(parts)-1]
	if last != "" && !strings.HasSuffix(s, last) {
		return false
	}
	idx := len(parts[0])
	for i := 1; i < len(parts)-1; i++ {
		part := parts[i]
		if part == "" {
			continue
		}
		pos := strings.Index(s[idx:], part)
		if pos < 0 {
			return false
		}
		idx += pos + len(part)
	}
	return idx+len(last) <= len(s)
}
