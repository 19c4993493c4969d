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

package weavego

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/builtin/matcher"
)

type GreeterService struct{}

func (s *GreeterService) Greet(name string) string {
	return "hi " + name
}

func (s *GreeterService) Farewell(name string) string {
	return "bye " + name
}

func TestRegisterAdvisorAndCall(t *testing.T) {
	config := NewConfig()
	registry := NewAdvisorRegistry(config)
	var journal []string
	assert.Nil(t, RegisterAdvisor(registry, matcher.NewNameMatcher("Greet*"),
		types.BeforeFunc(func(_ context.Context, m types.Method, _ []interface{}) error {
			journal = append(journal, m.Name)
			return nil
		}), 10))

	proxy, err := NewProxy(&GreeterService{}, config, registry)
	assert.Nil(t, err)

	result, err := proxy.Call(context.Background(), "Greet", "x")
	assert.Nil(t, err)
	assert.Equal(t, "hi x", result)

	// Farewell is outside the pointcut; the call still goes through.
	result, err = proxy.Call(context.Background(), "Farewell", "x")
	assert.Nil(t, err)
	assert.Equal(t, "bye x", result)
	assert.Equal(t, []string{"Greet"}, journal)
}

func TestLoadAdvisorsFacade(t *testing.T) {
	config := NewConfig()
	registry := NewAdvisorRegistry(config)
	assert.Nil(t, LoadAdvisors(config, registry, []byte(`
{
  "advisors": [
    {"id": "trace", "type": "log", "order": 10, "methods": ["Greet*"]}
  ]
}
`)))
	assert.Equal(t, 1, len(registry.Advisors()))
}

func TestNeedsProxy(t *testing.T) {
	config := NewConfig()
	registry := NewAdvisorRegistry(config)
	assert.False(t, NeedsProxy(&GreeterService{}, registry))
	assert.False(t, NeedsProxy(nil, registry))

	assert.Nil(t, RegisterAdvisor(registry, matcher.NewNameMatcher("Greet"),
		types.BeforeFunc(func(context.Context, types.Method, []interface{}) error {
			return nil
		}), 1))
	assert.True(t, NeedsProxy(&GreeterService{}, registry))
	assert.False(t, NeedsProxy(&struct{ X int }{}, registry))
}

func TestDefaultComponentRegistry(t *testing.T) {
	components := Registry.GetComponents()
	for _, componentType := range []string{"log", "metrics", "limiter", "fallback", "js"} {
		_, ok := components[componentType]
		assert.True(t, ok)
	}
}

func TestCurrentProxyFacade(t *testing.T) {
	_, err := CurrentProxy(context.Background())
	assert.True(t, errors.Is(err, types.ErrNoActiveProxy))
}
