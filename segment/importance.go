package segment

import (
	"github.com/poiesic/minutia/core"
)

// Importance heuristic weights. Base plus entity boosts plus density and
// length terms, clamped to [0, 1].
const (
	importanceBase = 0.30
	decisionBoost  = 0.20
	riskBoost      = 0.15
	actionBoost    = 0.15
	densityWeight  = 0.02 // per entity per 100 tokens
	densityCap     = 0.10
	lengthWeight   = 0.20
	lengthCap      = 0.20
)

func importanceScore(c *core.Chunk, config Config) float32 {
	score := float64(importanceBase)

	var decisions, risks, actions int
	for _, e := range c.Entities {
		switch e.Type {
		case core.EntityTypeDecision:
			decisions++
		case core.EntityTypeRisk:
			risks++
		case core.EntityTypeActionItem:
			actions++
		}
	}
	if decisions > 0 {
		score += decisionBoost
	}
	if risks > 0 {
		score += riskBoost
	}
	if actions > 0 {
		score += actionBoost
	}

	if c.TokenCount > 0 {
		density := float64(len(c.Entities)) / float64(c.TokenCount) * 100 * densityWeight
		if density > densityCap {
			density = densityCap
		}
		score += density

		length := float64(c.TokenCount) / float64(config.MaxTokens) * lengthWeight
		if length > lengthCap {
			length = lengthCap
		}
		score += length
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return float32(score)
}
