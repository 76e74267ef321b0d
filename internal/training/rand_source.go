package training

import (
	"math/rand"
	"time"
)

// defaultRandSource seeds the DP-SGD noise generator for a production
// training run. Tests that need reproducibility construct Parameters
// directly with a fixed-seed source instead of going through Engine.
func defaultRandSource() rand.Source {
	return rand.NewSource(time.Now().UnixNano())
}
