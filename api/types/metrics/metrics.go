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

package metrics

import (
	"sync/atomic"
)

// InvocationMetrics holds execution counters for proxied calls.
type InvocationMetrics struct {
	Current int64 // Number of currently executing invocations
	Total   int64 // Total number of invocations
	Failed  int64 // Number of failed invocations
	Success int64 // Number of successful invocations
}

// NewInvocationMetrics creates a new instance of InvocationMetrics.
func NewInvocationMetrics() *InvocationMetrics {
	m := &InvocationMetrics{}
	return m
}

// IncrementCurrent increases the count of current invocations.
func (m *InvocationMetrics) IncrementCurrent() {
	atomic.AddInt64(&m.Current, 1)
}

// DecrementCurrent decreases the count of current invocations.
func (m *InvocationMetrics) DecrementCurrent() {
	atomic.AddInt64(&m.Current, -1)
}

// IncrementTotal increases the total count of invocations.
func (m *InvocationMetrics) IncrementTotal() {
	atomic.AddInt64(&m.Total, 1)
}

// IncrementFailed increases the count of failed invocations.
func (m *InvocationMetrics) IncrementFailed() {
	atomic.AddInt64(&m.Failed, 1)
}

// IncrementSuccess increases the count of successful invocations.
func (m *InvocationMetrics) IncrementSuccess() {
	atomic.AddInt64(&m.Success, 1)
}

// Reset sets all counters back to zero.
func (m *InvocationMetrics) Reset() {
	atomic.StoreInt64(&m.Current, 0)
	atomic.StoreInt64(&m.Total, 0)
	atomic.StoreInt64(&m.Failed, 0)
	atomic.StoreInt64(&m.Success, 0)
}

// Snapshot returns a consistent copy of the counters.
func (m *InvocationMetrics) Snapshot() InvocationMetrics {
	return InvocationMetrics{
		Current: atomic.LoadInt64(&m.Current),
		Total:   atomic.LoadInt64(&m.Total),
		Failed:  atomic.LoadInt64(&m.Failed),
		Success: atomic.LoadInt64(&m.Success),
	}
}
