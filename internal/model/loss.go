package model

import (
	"math"

	"github.com/coldvault/trainer/internal/tensor"
)

// Loss computes both the scalar value of a loss function and the gradient
// of that loss with respect to the model's output, per sample.
type Loss interface {
	Name() string
	Compute(y, target *tensor.Tensor) (value float64, dy *tensor.Tensor)
}

// AbsLoss is the elementwise absolute-error loss used by the linear
// regression scenario in spec.md §8 ("loss = |y - t|").
type AbsLoss struct{}

// Name implements Loss.
func (AbsLoss) Name() string { return "abs" }

// Compute implements Loss.
func (AbsLoss) Compute(y, target *tensor.Tensor) (float64, *tensor.Tensor) {
	diff := y.Sub(target)
	dy := diff.Clone()
	var total float64
	for i, v := range diff.Data {
		total += math.Abs(v)
		switch {
		case v > 0:
			dy.Data[i] = 1
		case v < 0:
			dy.Data[i] = -1
		default:
			dy.Data[i] = 0
		}
	}
	return total, dy
}

// L2Loss is the per-sample L2 norm of (y - target), averaged across the
// batch: loss = mean_b ||y_b - t_b||_2. This mirrors the private_learning
// reference implementation's l2_loss.
type L2Loss struct{}

// Name implements Loss.
func (L2Loss) Name() string { return "l2" }

// Compute implements Loss.
func (L2Loss) Compute(y, target *tensor.Tensor) (float64, *tensor.Tensor) {
	b := y.Shape[0]
	sampleSize := tensor.SampleSize(y.Shape)
	diff := y.Sub(target)
	dy := tensor.New(y.Shape...)

	var sumNorms float64
	for i := 0; i < b; i++ {
		base := i * sampleSize
		var sumSq float64
		for j := 0; j < sampleSize; j++ {
			v := diff.Data[base+j]
			sumSq += v * v
		}
		norm := math.Sqrt(sumSq)
		sumNorms += norm
		if norm == 0 {
			continue
		}
		for j := 0; j < sampleSize; j++ {
			dy.Data[base+j] = diff.Data[base+j] / (norm * float64(b))
		}
	}
	return sumNorms / float64(b), dy
}
