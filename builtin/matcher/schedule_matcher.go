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
	"time"

	"github.com/robfig/cron/v3"

	"github.com/weavego/weavego/api/types"
)

// ScheduleMatcher restricts an advisor to time windows opened by a cron
// schedule: the advisor participates while `now` lies within Window after a
// schedule activation. Typical use is advice that should only apply during
// maintenance windows.
//
// It is a runtime matcher: the advisor matches statically and participation
// is decided per call, so its chain position never depends on the clock.
type ScheduleMatcher struct {
	// Spec is a standard 5-field cron expression, e.g. "0 2 * * *".
	Spec string
	// Window is how long the advisor stays active after each activation.
	Window time.Duration

	schedule cron.Schedule
	now      func() time.Time
}

var _ types.RuntimeMatcher = (*ScheduleMatcher)(nil)

// NewScheduleMatcher parses spec and creates the matcher. Parse failures
// surface at setup time.
func NewScheduleMatcher(spec string, window time.Duration) (*ScheduleMatcher, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, err
	}
	return &ScheduleMatcher{
		Spec:     spec,
		Window:   window,
		schedule: schedule,
		now:      time.Now,
	}, nil
}

func (m *ScheduleMatcher) Matches(types.Method) bool {
	return true
}

// MatchesRuntime reports whether the current time lies inside an open
// window: some activation in the last Window interval.
func (m *ScheduleMatcher) MatchesRuntime(types.Method, []interface{}) bool {
	now := m.now()
	next := m.schedule.Next(now.Add(-m.Window))
	return !next.After(now)
}
