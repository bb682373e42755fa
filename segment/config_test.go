package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultTargetTokens, cfg.TargetTokens)
	assert.Equal(t, DefaultWindow, cfg.Window)
	assert.Equal(t, StrategyAuto, cfg.Strategy)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		err    error
	}{
		{"zero min", func(c *Config) { c.MinTokens = 0 }, ErrTokenBudget},
		{"target below min", func(c *Config) { c.TargetTokens = c.MinTokens - 1 }, ErrTokenBudget},
		{"max below target", func(c *Config) { c.MaxTokens = c.TargetTokens - 1 }, ErrTokenBudget},
		{"negative overlap", func(c *Config) { c.OverlapTokens = -1 }, ErrTokenOverlap},
		{"overlap at target", func(c *Config) { c.OverlapTokens = c.TargetTokens }, ErrTokenOverlap},
		{"zero window", func(c *Config) { c.Window = 0 }, ErrWindow},
		{"overlap at window", func(c *Config) { c.WindowOverlap = c.Window }, ErrWindow},
		{"bad strategy", func(c *Config) { c.Strategy = Strategy(99) }, ErrUnknownStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.err)
		})
	}
}

func TestHeuristicTokenizer(t *testing.T) {
	tok := HeuristicTokenizer{}
	assert.Equal(t, 0, tok.Count(""))
	assert.Equal(t, 0, tok.Count("   \n  "))
	assert.Equal(t, 1, tok.Count("abcd"))
	assert.Equal(t, 2, tok.Count("abcde"))
	assert.Equal(t, 1, tok.Count("  hi  "), "surrounding whitespace is not counted")
}

func TestParseLines(t *testing.T) {
	text := "[00:15] Bob: Thanks everyone.\nno markup here\n\n[01:02:03] Later text"
	lines, stats := parseLines(text)
	require.Len(t, lines, 4)

	assert.True(t, lines[0].timed)
	assert.Equal(t, 15*time.Second, lines[0].offset)
	assert.Equal(t, "Bob", lines[0].speaker)
	assert.Equal(t, "Thanks everyone.", lines[0].text)

	assert.False(t, lines[1].timed)
	assert.Equal(t, 15*time.Second, lines[1].offset, "untimed lines inherit the previous offset")
	assert.Empty(t, lines[1].speaker)

	assert.True(t, lines[3].timed)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, lines[3].offset)
	assert.Empty(t, lines[3].speaker)

	assert.Equal(t, 3, stats.nonempty)
	assert.Equal(t, 2, stats.timed)
	assert.Equal(t, 1, stats.labeled)
}
