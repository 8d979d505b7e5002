// Package profile blends freshly computed quarter scores into a persistent
// player ability profile using temporal smoothing.
package profile

import (
	"math"

	"github.com/notfound/ballog/internal/domain/model"
)

// CarryWeight is the share of the stored value kept on each update. The
// fresh observation contributes the remainder. The ratio is a fixed product
// constant, not configuration.
const CarryWeight = 0.7

// BlendValue folds one fresh ability value into a stored one. A stored zero
// means "unset", so the first non-zero observation replaces it outright;
// afterwards it is an exponential moving average.
func BlendValue(stored, fresh int) int {
	if stored == 0 {
		return fresh
	}
	return int(math.Round(float64(stored)*CarryWeight + float64(fresh)*(1-CarryWeight)))
}

// Blend applies BlendValue to all five abilities.
func Blend(stored, fresh model.AbilityScores) model.AbilityScores {
	return model.AbilityScores{
		Attack:   BlendValue(stored.Attack, fresh.Attack),
		Defense:  BlendValue(stored.Defense, fresh.Defense),
		Speed:    BlendValue(stored.Speed, fresh.Speed),
		Stamina:  BlendValue(stored.Stamina, fresh.Stamina),
		Recovery: BlendValue(stored.Recovery, fresh.Recovery),
	}
}
