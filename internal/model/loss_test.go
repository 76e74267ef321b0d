package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coldvault/trainer/internal/tensor"
)

func TestAbsLossCompute(t *testing.T) {
	y := tensor.FromData([]float64{3, -1}, 2, 1)
	target := tensor.FromData([]float64{1, 1}, 2, 1)
	loss := AbsLoss{}
	value, dy := loss.Compute(y, target)
	assert.InDelta(t, 4.0, value, 1e-9)
	assert.InDeltaSlice(t, []float64{1, -1}, dy.Data, 1e-9)
}

func TestL2LossCompute(t *testing.T) {
	y := tensor.FromData([]float64{3, 4}, 1, 2)
	target := tensor.FromData([]float64{0, 0}, 1, 2)
	loss := L2Loss{}
	value, dy := loss.Compute(y, target)
	assert.InDelta(t, 5.0, value, 1e-9)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, dy.Data, 1e-9)
}

func TestL2LossZeroNormSample(t *testing.T) {
	y := tensor.FromData([]float64{0, 0}, 1, 2)
	target := tensor.FromData([]float64{0, 0}, 1, 2)
	loss := L2Loss{}
	value, dy := loss.Compute(y, target)
	assert.InDelta(t, 0.0, value, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0}, dy.Data, 1e-9)
}
