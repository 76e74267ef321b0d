package tensor

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// FillGaussian overwrites the tensor's data in place with i.i.d. samples
// from N(0, std^2).
func (t *Tensor) FillGaussian(std float64, src rand.Source) {
	dist := distuv.Normal{Mu: 0, Sigma: std, Src: src}
	for i := range t.Data {
		t.Data[i] = dist.Rand()
	}
}

// NoiseLike generates Gaussian noise shaped like tensor with standard
// deviation std (§4.2.1). When std is zero it returns an exact zero
// tensor. Otherwise it draws four i.i.d. N(0, std^2) tensors, sums them,
// and divides by two.
//
// Summing k independent N(0, std^2) draws yields N(0, k*std^2); dividing
// by 2 scales the variance by 1/4, so with k=4 the result is again
// N(0, std^2) rather than something that scales with k. This construction
// is preserved from the original implementation because it is observable
// through noise magnitude — see the Open Question in SPEC_FULL.md.
func NoiseLike(shape []int, std float64, src rand.Source) *Tensor {
	out := New(shape...)
	if std == 0 {
		return out
	}
	draw := New(shape...)
	for i := 0; i < 4; i++ {
		draw.FillGaussian(std, src)
		out = out.Add(draw)
	}
	out.DivScalarInPlace(2)
	return out
}
