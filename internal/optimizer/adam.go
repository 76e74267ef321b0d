package optimizer

import (
	"math"

	"github.com/coldvault/trainer/internal/tensor"
)

// AdamConfig configures the Adam optimizer (§4.2). Epsilon guards the
// denominator; AMSGrad enables the running max of the second moment.
type AdamConfig struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	WeightDecay  float64
	AMSGrad      bool
}

// DefaultAdamConfig returns the conventional Adam hyperparameters with the
// given learning rate.
func DefaultAdamConfig(learningRate float64) AdamConfig {
	return AdamConfig{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// Adam updates Parameters using the Adam algorithm (§4.2), including the
// optional AMSGrad variant.
type Adam struct {
	cfg        AdamConfig
	m, v       []*tensor.Tensor
	vHatMax    []*tensor.Tensor
	step       int
	Parameters *Parameters
}

// NewAdam returns an Adam optimizer over params configured by cfg. The
// step counter starts at 1, per §4.2.
func NewAdam(params *Parameters, cfg AdamConfig) *Adam {
	n := params.Len()
	return &Adam{
		cfg:        cfg,
		m:          make([]*tensor.Tensor, n),
		v:          make([]*tensor.Tensor, n),
		vHatMax:    make([]*tensor.Tensor, n),
		step:       1,
		Parameters: params,
	}
}

// ZeroGrad implements Optimizer.
func (a *Adam) ZeroGrad() {
	a.Parameters.ZeroGrad()
}

// Step implements Optimizer. The step counter is incremented exactly once
// per call, shared across all parameters, as specified in §4.2 (the
// original reference implementation this is adapted from never advances
// its step counter — a bug the spec's pseudocode corrects).
func (a *Adam) Step() error {
	err := a.Parameters.Update(func(i int, param *tensor.Tensor, grad *tensor.Tensor) (*tensor.Tensor, error) {
		g := grad
		if a.cfg.WeightDecay != 0 {
			g = g.Add(param.MulScalar(a.cfg.WeightDecay))
		}

		if a.m[i] == nil {
			a.m[i] = g.MulScalar(1 - a.cfg.Beta1)
		} else {
			a.m[i] = a.m[i].MulScalar(a.cfg.Beta1).Add(g.MulScalar(1 - a.cfg.Beta1))
		}
		if a.v[i] == nil {
			a.v[i] = g.Square().MulScalar(1 - a.cfg.Beta2)
		} else {
			a.v[i] = a.v[i].MulScalar(a.cfg.Beta2).Add(g.Square().MulScalar(1 - a.cfg.Beta2))
		}

		mHat := a.m[i].DivScalar(1 - math.Pow(a.cfg.Beta1, float64(a.step)))
		vHat := a.v[i].DivScalar(1 - math.Pow(a.cfg.Beta2, float64(a.step)))

		if a.cfg.AMSGrad {
			if a.vHatMax[i] == nil {
				a.vHatMax[i] = vHat.Clone()
			} else {
				a.vHatMax[i] = a.vHatMax[i].Maximum(vHat)
			}
			denom := a.vHatMax[i].Sqrt()
			for j := range denom.Data {
				denom.Data[j] += a.cfg.Epsilon
			}
			return divElem(mHat, denom).MulScalar(a.cfg.LearningRate), nil
		}

		denom := vHat.Sqrt()
		for j := range denom.Data {
			denom.Data[j] += a.cfg.Epsilon
		}
		return divElem(mHat, denom).MulScalar(a.cfg.LearningRate), nil
	})
	if err != nil {
		return err
	}
	a.step++
	return nil
}

func divElem(a, b *tensor.Tensor) *tensor.Tensor {
	out := a.Clone()
	for i := range out.Data {
		out.Data[i] /= b.Data[i]
	}
	return out
}
