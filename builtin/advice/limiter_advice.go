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
	"sync/atomic"

	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/utils/maps"
)

// ErrConcurrencyLimitReached is returned when an invocation is rejected
// because the configured number of concurrent calls is already in flight.
var ErrConcurrencyLimitReached = errors.New("concurrency limit reached")

var _ types.AroundAdvice = (*LimiterAdvice)(nil)

// LimiterAdviceConfiguration holds the limiter parameters.
type LimiterAdviceConfiguration struct {
	// Max is the maximum number of concurrent invocations allowed through
	// the join points this advisor matches. Defaults to 100.
	Max int64
}

// LimiterAdvice restricts the number of concurrent invocations using atomic
// compare-and-swap, rejecting the overflow with ErrConcurrencyLimitReached
// before the continuation runs. Each advisor definition gets its own
// counter.
type LimiterAdvice struct {
	Config       LimiterAdviceConfiguration
	currentCount int64
}

// NewLimiterAdvice creates a limiter allowing max concurrent invocations.
func NewLimiterAdvice(max int64) *LimiterAdvice {
	return &LimiterAdvice{Config: LimiterAdviceConfiguration{Max: max}}
}

func (a *LimiterAdvice) New() types.AdviceComponent {
	return &LimiterAdvice{}
}

func (a *LimiterAdvice) Type() string {
	return "limiter"
}

func (a *LimiterAdvice) Init(config types.Config, configuration types.Configuration) error {
	if err := maps.Map2StructWeakly(configuration, &a.Config); err != nil {
		return err
	}
	if a.Config.Max <= 0 {
		a.Config.Max = 100
	}
	return nil
}

func (a *LimiterAdvice) Around(inv types.Invocation) (interface{}, error) {
	for {
		current := atomic.LoadInt64(&a.currentCount)
		if current >= a.Config.Max {
			return nil, ErrConcurrencyLimitReached
		}
		if atomic.CompareAndSwapInt64(&a.currentCount, current, current+1) {
			break
		}
		// CAS lost to a concurrent call, re-read and retry.
	}
	defer atomic.AddInt64(&a.currentCount, -1)
	return inv.Proceed()
}
