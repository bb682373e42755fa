// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import "time"

// BackoffPolicy controls how failed tasks are rescheduled. A task that has
// failed `attempt` times waits Delay(attempt) before its next try; once
// attempts reach MaxAttempts the task fails permanently.
type BackoffPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultBackoff is the orchestrator's retry policy unless overridden.
var DefaultBackoff = BackoffPolicy{
	MaxAttempts: 3,
	BaseDelay:   30 * time.Second,
	Multiplier:  2.0,
	MaxDelay:    10 * time.Minute,
}

// Delay returns the wait before the next try after the given attempt count.
// Attempt counts below 1 are treated as 1.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.Multiplier
	}
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Clock abstracts time for deterministic scheduling tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
