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

package advice

import (
	"errors"
	"sync"
	"time"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/utils/maps"
)

// ErrSkipFallback is returned when an invocation is skipped because the
// circuit breaker for its method is open after repeated failures.
var ErrSkipFallback = errors.New("skip fallback error")

var _ types.AroundAdvice = (*FallbackAdvice)(nil)

// FallbackAdviceConfiguration holds the circuit breaker parameters.
type FallbackAdviceConfiguration struct {
	// ErrorCountLimit is the number of consecutive failures opening the
	// breaker. Defaults to 3.
	ErrorCountLimit int64
	// LimitDurationMs is how long the breaker stays open before the next
	// attempt is let through, in milliseconds. Defaults to 10000.
	LimitDurationMs int64
}

// methodErrorState tracks consecutive failures of one method.
type methodErrorState struct {
	errorCount    int64
	lastErrorTime time.Time
}

// FallbackAdvice implements a per-method circuit breaker: once a method has
// failed ErrorCountLimit times in a row, further invocations are skipped
// with ErrSkipFallback until LimitDurationMs has passed; the next attempt is
// then let through and a success closes the breaker again.
type FallbackAdvice struct {
	Config FallbackAdviceConfiguration

	mu sync.Mutex
	// states tracks failures per method identity token.
	states map[string]*methodErrorState
}

func (a *FallbackAdvice) New() types.AdviceComponent {
	return &FallbackAdvice{states: make(map[string]*methodErrorState)}
}

func (a *FallbackAdvice) Type() string {
	return "fallback"
}

func (a *FallbackAdvice) Init(config types.Config, configuration types.Configuration) error {
	if err := maps.Map2StructWeakly(configuration, &a.Config); err != nil {
		return err
	}
	if a.Config.ErrorCountLimit <= 0 {
		a.Config.ErrorCountLimit = 3
	}
	if a.Config.LimitDurationMs <= 0 {
		a.Config.LimitDurationMs = 10000
	}
	if a.states == nil {
		a.states = make(map[string]*methodErrorState)
	}
	return nil
}

func (a *FallbackAdvice) Around(inv types.Invocation) (interface{}, error) {
	key := inv.Method().Key()
	if a.isOpen(key) {
		return nil, ErrSkipFallback
	}
	result, err := inv.Proceed()
	a.record(key, err)
	return result, err
}

// isOpen reports whether the breaker for key currently rejects calls.
func (a *FallbackAdvice) isOpen(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	state, ok := a.states[key]
	if !ok || state.errorCount < a.Config.ErrorCountLimit {
		return false
	}
	if time.Since(state.lastErrorTime) >= time.Duration(a.Config.LimitDurationMs)*time.Millisecond {
		// Let the next attempt probe the method again.
		state.errorCount = a.Config.ErrorCountLimit - 1
		return false
	}
	return true
}

// record updates the failure state after an attempt.
func (a *FallbackAdvice) record(key string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.states, key)
		return
	}
	state, ok := a.states[key]
	if !ok {
		state = &methodErrorState{}
		a.states[key] = state
	}
	state.errorCount++
	state.lastErrorTime = time.Now()
}
