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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/weavego/weavego/api/types"
)

type userService struct{}

func (s *userService) GetUser(id int) (string, error) {
	return "", nil
}

func (s *userService) SaveUser(name string) error {
	return nil
}

func (s *userService) Ping() string {
	return "pong"
}

type userFinder interface {
	GetUser(id int) (string, error)
}

func methodOf(t *testing.T, name string) types.Method {
	targetType := reflect.TypeOf(&userService{})
	for _, m := range types.MethodsOf(targetType, targetType) {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("no method %s", name)
	return types.Method{}
}

func TestNameMatcher(t *testing.T) {
	assert.True(t, NewNameMatcher("GetUser").Matches(methodOf(t, "GetUser")))
	assert.True(t, NewNameMatcher("Get*").Matches(methodOf(t, "GetUser")))
	assert.True(t, NewNameMatcher("*User").Matches(methodOf(t, "SaveUser")))
	assert.True(t, NewNameMatcher("*").Matches(methodOf(t, "Ping")))
	assert.False(t, NewNameMatcher("Get*").Matches(methodOf(t, "Ping")))
	assert.False(t, NewNameMatcher().Matches(methodOf(t, "Ping")))
	// Any pattern matching is enough.
	assert.True(t, NewNameMatcher("Save*", "Ping").Matches(methodOf(t, "Ping")))
}

func TestTypeMatcher(t *testing.T) {
	method := methodOf(t, "GetUser")
	assert.True(t, NewTypeMatcher(reflect.TypeOf(&userService{})).Matches(method))
	assert.True(t, NewTypeMatcher(types.InterfaceOf[userFinder]()).Matches(method))
	assert.False(t, NewTypeMatcher(reflect.TypeOf(&struct{ X int }{})).Matches(method))
	assert.False(t, NewTypeMatcher(nil).Matches(method))
}

func TestCompositeMatchers(t *testing.T) {
	get := NewNameMatcher("Get*")
	save := NewNameMatcher("Save*")
	method := methodOf(t, "GetUser")

	assert.True(t, All().Matches(method))
	assert.True(t, And(All(), get).Matches(method))
	assert.False(t, And(get, save).Matches(method))
	assert.True(t, Or(save, get).Matches(method))
	assert.False(t, Or(save, NewNameMatcher("Ping")).Matches(method))
	assert.False(t, Not(get).Matches(method))
	assert.True(t, Not(save).Matches(method))
}

func TestCompositeShortCircuit(t *testing.T) {
	evaluated := false
	spy := types.MatcherFunc(func(types.Method) bool {
		evaluated = true
		return true
	})
	method := methodOf(t, "Ping")

	// And stops at the first non-match.
	assert.False(t, And(NewNameMatcher("Get*"), spy).Matches(method))
	assert.False(t, evaluated)

	// Or stops at the first match.
	assert.True(t, Or(NewNameMatcher("Ping"), spy).Matches(method))
	assert.False(t, evaluated)
}

func TestCompositePromotesRuntime(t *testing.T) {
	em, err := NewExprMatcher(`args[0] == 'x'`)
	assert.Nil(t, err)
	composite := And(NewNameMatcher("*"), em)
	rm, ok := composite.(types.RuntimeMatcher)
	assert.True(t, ok)
	method := methodOf(t, "Ping")
	assert.True(t, rm.MatchesRuntime(method, []interface{}{"x"}))
	assert.False(t, rm.MatchesRuntime(method, []interface{}{"y"}))

	// A purely static composition stays static.
	_, ok = And(NewNameMatcher("*"), All()).(types.RuntimeMatcher)
	assert.False(t, ok)

	inverted, ok := Not(em).(types.RuntimeMatcher)
	assert.True(t, ok)
	assert.False(t, inverted.MatchesRuntime(method, []interface{}{"x"}))
	assert.True(t, inverted.MatchesRuntime(method, []interface{}{"y"}))
}

func TestExprMatcherStatic(t *testing.T) {
	em, err := NewExprMatcher(`methodName startsWith "Get"`)
	assert.Nil(t, err)
	assert.True(t, em.Matches(methodOf(t, "GetUser")))
	assert.False(t, em.Matches(methodOf(t, "Ping")))

	// `type` is a builtin function of the expression language; the target
	// type is published as targetType instead.
	em, err = NewExprMatcher(`targetType contains "userService" && paramCount == 1`)
	assert.Nil(t, err)
	assert.True(t, em.Matches(methodOf(t, "GetUser")))
	assert.False(t, em.Matches(methodOf(t, "Ping")))

	em, err = NewExprMatcher(`declaringType == targetType`)
	assert.Nil(t, err)
	assert.True(t, em.Matches(methodOf(t, "GetUser")))

	em, err = NewExprMatcher(`"error" in returns`)
	assert.Nil(t, err)
	assert.True(t, em.Matches(methodOf(t, "SaveUser")))
	assert.False(t, em.Matches(methodOf(t, "Ping")))

	_, err = NewExprMatcher(`methodName ==`)
	assert.NotNil(t, err)
}

func TestExprMatcherRuntime(t *testing.T) {
	em, err := NewExprMatcher(`len(args) > 0 && args[0] == 7`)
	assert.Nil(t, err)
	// Argument sensitive expressions match statically and decide per call.
	assert.True(t, em.Matches(methodOf(t, "GetUser")))
	assert.True(t, em.MatchesRuntime(methodOf(t, "GetUser"), []interface{}{7}))
	assert.False(t, em.MatchesRuntime(methodOf(t, "GetUser"), []interface{}{8}))
	assert.False(t, em.MatchesRuntime(methodOf(t, "GetUser"), nil))
}

func TestScheduleMatcher(t *testing.T) {
	m, err := NewScheduleMatcher("0 2 * * *", time.Minute)
	assert.Nil(t, err)
	method := methodOf(t, "Ping")
	assert.True(t, m.Matches(method))

	// Inside the window just after 02:00.
	m.now = func() time.Time {
		return time.Date(2024, 5, 10, 2, 0, 30, 0, time.UTC)
	}
	assert.True(t, m.MatchesRuntime(method, nil))

	// Well outside the window.
	m.now = func() time.Time {
		return time.Date(2024, 5, 10, 12, 0, 30, 0, time.UTC)
	}
	assert.False(t, m.MatchesRuntime(method, nil))

	// An every-minute schedule with a wider window is always open.
	m, err = NewScheduleMatcher("* * * * *", 2*time.Minute)
	assert.Nil(t, err)
	assert.True(t, m.MatchesRuntime(method, nil))

	_, err = NewScheduleMatcher("not a cron spec", time.Minute)
	assert.NotNil(t, err)
}
