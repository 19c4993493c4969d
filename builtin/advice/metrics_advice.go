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
	"github.com/weavego/weavego/api/types"
	"github.com/weavego/weavego/api/types/metrics"
)

var _ types.AroundAdvice = (*MetricsAdvice)(nil)

// MetricsAdvice maintains invocation counters around the continuation:
// total and in-flight on entry, success or failed on exit. It never alters
// the outcome.
type MetricsAdvice struct {
	metrics *metrics.InvocationMetrics
}

// NewMetricsAdvice creates a metrics advice publishing into m. A nil m gets
// a fresh counter set.
func NewMetricsAdvice(m *metrics.InvocationMetrics) *MetricsAdvice {
	if m == nil {
		m = metrics.NewInvocationMetrics()
	}
	return &MetricsAdvice{
		metrics: m,
	}
}

func (a *MetricsAdvice) New() types.AdviceComponent {
	return &MetricsAdvice{metrics: metrics.NewInvocationMetrics()}
}

func (a *MetricsAdvice) Type() string {
	return "metrics"
}

func (a *MetricsAdvice) Init(config types.Config, configuration types.Configuration) error {
	if a.metrics == nil {
		a.metrics = metrics.NewInvocationMetrics()
	}
	a.metrics.Reset()
	return nil
}

func (a *MetricsAdvice) Around(inv types.Invocation) (interface{}, error) {
	a.metrics.IncrementCurrent()
	a.metrics.IncrementTotal()
	defer a.metrics.DecrementCurrent()

	result, err := inv.Proceed()
	if err != nil {
		a.metrics.IncrementFailed()
	} else {
		a.metrics.IncrementSuccess()
	}
	return result, err
}

// GetMetrics returns the counters backing this advice.
func (a *MetricsAdvice) GetMetrics() *metrics.InvocationMetrics {
	return a.metrics
}
