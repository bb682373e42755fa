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


package segment

import "time"

// Strategy selects how a document body is split into chunks.
type Strategy int

const (
	// StrategyAuto inspects the text: speaker-turn when speaker labels
	// dominate, time-window when timestamps dominate, topic otherwise.
	StrategyAuto Strategy = iota
	// StrategySpeakerTurn groups consecutive lines by detected speaker.
	StrategySpeakerTurn
	// StrategyTimeWindow cuts fixed-duration windows over timestamped lines.
	StrategyTimeWindow
	// StrategyTopic accumulates paragraphs up to the token budget.
	StrategyTopic
)

const (
	// DefaultTargetTokens is the preferred chunk size.
	DefaultTargetTokens = 400

	// DefaultMinTokens is the smallest chunk emitted, tail excepted.
	DefaultMinTokens = 50

	// DefaultMaxTokens is the hard ceiling before a unit is split.
	DefaultMaxTokens = 800

	// DefaultOverlapTokens is the content carried between topic chunks.
	DefaultOverlapTokens = 50

	// DefaultWindow is the time-window duration.
	DefaultWindow = 5 * time.Minute

	// DefaultWindowOverlap is the shared span between adjacent windows.
	DefaultWindowOverlap = 30 * time.Second
)

// Config holds the segmentation budget and strategy selection.
type Config struct {
	TargetTokens  int
	MinTokens     int
	MaxTokens     int
	OverlapTokens int
	Window        time.Duration
	WindowOverlap time.Duration
	Strategy      Strategy
}

// DefaultConfig returns the default segmentation configuration.
func DefaultConfig() Config {
	return Config{
		TargetTokens:  DefaultTargetTokens,
		MinTokens:     DefaultMinTokens,
		MaxTokens:     DefaultMaxTokens,
		OverlapTokens: DefaultOverlapTokens,
		Window:        DefaultWindow,
		WindowOverlap: DefaultWindowOverlap,
		Strategy:      StrategyAuto,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.MinTokens < 1 || c.TargetTokens < c.MinTokens || c.MaxTokens < c.TargetTokens {
		return ErrTokenBudget
	}
	if c.OverlapTokens < 0 || c.OverlapTokens >= c.TargetTokens {
		return ErrTokenOverlap
	}
	if c.Window <= 0 || c.WindowOverlap < 0 || c.WindowOverlap >= c.Window {
		return ErrWindow
	}
	switch c.Strategy {
	case StrategyAuto, StrategySpeakerTurn, StrategyTimeWindow, StrategyTopic:
	default:
		return ErrUnknownStrategy
	}
	return nil
}
