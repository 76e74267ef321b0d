package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerSampleL2Norm(t *testing.T) {
	g := FromData([]float64{3, 4, 0, 0}, 2, 2)
	norms := PerSampleL2Norm(g)
	assert.InDelta(t, 5.0, norms.Data[0], 1e-9)
	assert.InDelta(t, 0.0, norms.Data[1], 1e-9)
}

func TestPerSampleGlobalNorm(t *testing.T) {
	n1 := FromData([]float64{3, 0}, 2)
	n2 := FromData([]float64{4, 0}, 2)
	global := PerSampleGlobalNorm([]*Tensor{n1, n2})
	assert.InDelta(t, 5.0, global.Data[0], 1e-9)
	assert.InDelta(t, 0.0, global.Data[1], 1e-9)
}

func TestEinsumContractSample(t *testing.T) {
	c := FromData([]float64{2, 3}, 2)
	g := FromData([]float64{1, 1, 2, 2}, 2, 2)
	out := EinsumContractSample(c, g)
	assert.Equal(t, []int{2}, out.Shape)
	assert.InDelta(t, 2*1+3*2, out.Data[0], 1e-9)
	assert.InDelta(t, 2*1+3*2, out.Data[1], 1e-9)
}

func TestClamp(t *testing.T) {
	x := FromData([]float64{-1, 0.5, 2}, 3)
	clamped := x.Clamp(0, 1)
	assert.Equal(t, []float64{0, 0.5, 1}, clamped.Data)
}

func TestNoiseLikeZeroStd(t *testing.T) {
	out := NoiseLike([]int{3}, 0, rand.NewSource(1))
	assert.Equal(t, []float64{0, 0, 0}, out.Data)
}

func TestNoiseLikeShape(t *testing.T) {
	out := NoiseLike([]int{2, 3}, 1.0, rand.NewSource(1))
	assert.Equal(t, []int{2, 3}, out.Shape)
}

func TestSubInPlace(t *testing.T) {
	p := FromData([]float64{1, 2, 3}, 3)
	u := FromData([]float64{0.1, 0.2, 0.3}, 3)
	p.SubInPlace(u)
	assert.InDeltaSlice(t, []float64{0.9, 1.8, 2.7}, p.Data, 1e-9)
}
