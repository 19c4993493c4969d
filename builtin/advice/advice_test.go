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

package advice_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/builtin/advice"
	"github.com/weavego/weavego/engine"
)

// OrderService is the proxy target used across the advice tests.
type OrderService struct {
	mu      sync.Mutex
	failing bool
	release chan struct{}
}

func (s *OrderService) Place(item string) (string, error) {
	s.mu.Lock()
	failing := s.failing
	s.mu.Unlock()
	if failing {
		return "", errors.New("order backend down")
	}
	return "placed " + item, nil
}

func (s *OrderService) SetFailing(failing bool) {
	s.mu.Lock()
	s.failing = failing
	s.mu.Unlock()
}

// Block waits until the test releases it, to hold a call in flight.
func (s *OrderService) Block() string {
	<-s.release
	return "done"
}

func matchAll() types.Matcher {
	return types.MatcherFunc(func(types.Method) bool { return true })
}

type capturingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *capturingLogger) Printf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf(format, v...))
}

func (l *capturingLogger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func newProxy(t *testing.T, config types.Config, target interface{}, dsl string) *engine.DefaultProxy {
	registry := engine.NewAdvisorRegistry(config)
	if dsl != "" {
		assert.Nil(t, engine.LoadAdvisors(config, registry, []byte(dsl)))
	}
	proxy, err := engine.NewProxy(target, config, registry)
	assert.Nil(t, err)
	return proxy
}

func TestLogAdvice(t *testing.T) {
	logger := &capturingLogger{}
	config := types.NewConfig(types.WithLogger(logger))
	proxy := newProxy(t, config, &OrderService{}, `
{
  "advisors": [
    {"id": "s1", "type": "log", "order": 1, "configuration": {"prefix": "orders "}}
  ]
}
`)

	result, err := proxy.Call(context.Background(), "Place", "book")
	assert.Nil(t, err)
	assert.Equal(t, "placed book", result)

	entries := logger.Entries()
	assert.Equal(t, 2, len(entries))
	assert.True(t, strings.HasPrefix(entries[0], "orders IN"))
	assert.True(t, strings.Contains(entries[0], "Place"))
	assert.True(t, strings.HasPrefix(entries[1], "orders OUT"))
	assert.True(t, strings.Contains(entries[1], "placed book"))

	target := proxy.Target().(*OrderService)
	target.SetFailing(true)
	_, err = proxy.Call(context.Background(), "Place", "book")
	assert.NotNil(t, err)
	entries = logger.Entries()
	assert.Equal(t, 4, len(entries))
	assert.True(t, strings.Contains(entries[3], "order backend down"))
}

func TestMetricsAdvice(t *testing.T) {
	config := types.NewConfig()
	registry := engine.NewAdvisorRegistry(config)
	metricsAdvice := advice.NewMetricsAdvice(nil)
	assert.Nil(t, registry.Register(&types.Advisor{
		Matcher: matchAll(),
		Advice:  metricsAdvice,
		Order:   1,
	}))
	target := &OrderService{}
	proxy, err := engine.NewProxy(target, config, registry)
	assert.Nil(t, err)

	_, err = proxy.Call(context.Background(), "Place", "book")
	assert.Nil(t, err)
	target.SetFailing(true)
	_, err = proxy.Call(context.Background(), "Place", "book")
	assert.NotNil(t, err)

	snapshot := metricsAdvice.GetMetrics().Snapshot()
	assert.Equal(t, int64(2), snapshot.Total)
	assert.Equal(t, int64(1), snapshot.Success)
	assert.Equal(t, int64(1), snapshot.Failed)
	assert.Equal(t, int64(0), snapshot.Current)
}

func TestLimiterAdvice(t *testing.T) {
	config := types.NewConfig()
	registry := engine.NewAdvisorRegistry(config)
	assert.Nil(t, registry.Register(&types.Advisor{
		Matcher: matchAll(),
		Advice:  advice.NewLimiterAdvice(1),
		Order:   1,
	}))
	target := &OrderService{release: make(chan struct{})}
	proxy, err := engine.NewProxy(target, config, registry)
	assert.Nil(t, err)

	started := make(chan struct{})
	finished := make(chan error, 1)
	go func() {
		close(started)
		_, err := proxy.Call(context.Background(), "Block")
		finished <- err
	}()
	<-started
	// Give the in-flight call time to take the single slot.
	time.Sleep(100 * time.Millisecond)

	_, err = proxy.Call(context.Background(), "Place", "book")
	assert.True(t, errors.Is(err, advice.ErrConcurrencyLimitReached))

	close(target.release)
	assert.Nil(t, <-finished)

	// The slot is free again after the blocked call returned.
	_, err = proxy.Call(context.Background(), "Place", "book")
	assert.Nil(t, err)
}

func TestLimiterAdviceConfiguration(t *testing.T) {
	limiter := &advice.LimiterAdvice{}
	assert.Nil(t, limiter.Init(types.NewConfig(), types.Configuration{"max": 5}))
	assert.Equal(t, int64(5), limiter.Config.Max)

	// Zero or missing max falls back to the default.
	limiter = &advice.LimiterAdvice{}
	assert.Nil(t, limiter.Init(types.NewConfig(), nil))
	assert.Equal(t, int64(100), limiter.Config.Max)
}

func TestFallbackAdvice(t *testing.T) {
	config := types.NewConfig()
	target := &OrderService{}
	target.SetFailing(true)
	proxy := newProxy(t, config, target, `
{
  "advisors": [
    {
      "id": "s1",
      "type": "fallback",
      "order": 1,
      "configuration": {
        "errorCountLimit": 2,
        "limitDurationMs": 200
      }
    }
  ]
}
`)

	// Failures up to the limit reach the target.
	_, err := proxy.Call(context.Background(), "Place", "book")
	assert.Equal(t, "order backend down", err.Error())
	_, err = proxy.Call(context.Background(), "Place", "book")
	assert.Equal(t, "order backend down", err.Error())

	// The breaker is open now.
	_, err = proxy.Call(context.Background(), "Place", "book")
	assert.True(t, errors.Is(err, advice.ErrSkipFallback))

	// After the window one probe is let through; a success closes the
	// breaker.
	time.Sleep(300 * time.Millisecond)
	target.SetFailing(false)
	result, err := proxy.Call(context.Background(), "Place", "book")
	assert.Nil(t, err)
	assert.Equal(t, "placed book", result)

	_, err = proxy.Call(context.Background(), "Place", "book")
	assert.Nil(t, err)
}

func TestJsAdvicePassthrough(t *testing.T) {
	config := types.NewConfig()
	proxy := newProxy(t, config, &OrderService{}, `
{
  "advisors": [
    {
      "id": "s1",
      "type": "js",
      "order": 1,
      "configuration": {
        "jsScript": "function OnCall(inv) { return inv.Proceed(); }"
      }
    }
  ]
}
`)
	result, err := proxy.Call(context.Background(), "Place", "book")
	assert.Nil(t, err)
	assert.Equal(t, "placed book", result)
}

func TestJsAdviceVeto(t *testing.T) {
	config := types.NewConfig()
	proxy := newProxy(t, config, &OrderService{}, `
{
  "advisors": [
    {
      "id": "s1",
      "type": "js",
      "order": 1,
      "configuration": {
        "jsScript": "function OnCall(inv) { return 'cached ' + inv.Args()[0]; }"
      }
    }
  ]
}
`)
	result, err := proxy.Call(context.Background(), "Place", "book")
	assert.Nil(t, err)
	assert.Equal(t, "cached book", result)
}

func TestJsAdviceMutatesArguments(t *testing.T) {
	config := types.NewConfig()
	proxy := newProxy(t, config, &OrderService{}, `
{
  "advisors": [
    {
      "id": "s1",
      "type": "js",
      "order": 1,
      "configuration": {
        "jsScript": "function OnCall(inv) { inv.SetArg(0, 'pen'); return inv.Proceed(); }"
      }
    }
  ]
}
`)
	result, err := proxy.Call(context.Background(), "Place", "book")
	assert.Nil(t, err)
	assert.Equal(t, "placed pen", result)
}

func TestJsAdviceKeepsFailureIdentity(t *testing.T) {
	config := types.NewConfig()
	target := &OrderService{}
	target.SetFailing(true)
	proxy := newProxy(t, config, target, `
{
  "advisors": [
    {
      "id": "s1",
      "type": "js",
      "order": 1,
      "configuration": {
        "jsScript": "function OnCall(inv) { var r = inv.Proceed(); if (inv.Failed()) { return 'ignored ' + inv.Error(); } return r; }"
      }
    }
  ]
}
`)
	// The script observed the failure; the original error still reaches the
	// caller.
	_, err := proxy.Call(context.Background(), "Place", "book")
	assert.Equal(t, "order backend down", err.Error())
}

func TestJsAdviceRequiresScript(t *testing.T) {
	jsAdvice := &advice.JsAdvice{}
	assert.NotNil(t, jsAdvice.Init(types.NewConfig(), nil))
}

func TestJsAdviceUdf(t *testing.T) {
	config := types.NewConfig()
	config.RegisterUdf("upper", strings.ToUpper)
	proxy := newProxy(t, config, &OrderService{}, `
{
  "advisors": [
    {
      "id": "s1",
      "type": "js",
      "order": 1,
      "configuration": {
        "jsScript": "function OnCall(inv) { inv.SetArg(0, upper(inv.Args()[0])); return inv.Proceed(); }"
      }
    }
  ]
}
`)
	result, err := proxy.Call(context.Background(), "Place", "book")
	assert.Nil(t, err)
	assert.Equal(t, "placed BOOK", result)
}
