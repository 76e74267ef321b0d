package optimizer

import "github.com/coldvault/trainer/internal/tensor"

// SGDConfig configures weight decay, momentum, dampening and nesterov
// updates for SGD, mirroring the full parameter set of the reference
// implementation it's adapted from (private_learning/src/lib.rs).
type SGDConfig struct {
	LearningRate float64
	WeightDecay  float64
	Momentum     float64
	Dampening    float64
	Nesterov     bool
}

// SGD updates Parameters using stochastic gradient descent with optional
// weight decay, momentum, dampening and Nesterov acceleration (§4.2).
type SGD struct {
	cfg        SGDConfig
	statistics []*tensor.Tensor // momentum buffers, lazily allocated per parameter
	Parameters *Parameters
}

// NewSGD returns an SGD optimizer over params configured by cfg.
func NewSGD(params *Parameters, cfg SGDConfig) *SGD {
	return &SGD{
		cfg:        cfg,
		statistics: make([]*tensor.Tensor, params.Len()),
		Parameters: params,
	}
}

// ZeroGrad implements Optimizer.
func (s *SGD) ZeroGrad() {
	s.Parameters.ZeroGrad()
}

// Step implements Optimizer.
func (s *SGD) Step() error {
	return s.Parameters.Update(func(i int, param *tensor.Tensor, grad *tensor.Tensor) (*tensor.Tensor, error) {
		g := grad
		if s.cfg.WeightDecay != 0 {
			g = g.Add(param.MulScalar(s.cfg.WeightDecay))
		}
		if s.cfg.Momentum != 0 {
			if s.statistics[i] == nil {
				s.statistics[i] = g.Clone()
			} else {
				s.statistics[i] = s.statistics[i].MulScalar(s.cfg.Momentum).Add(g.MulScalar(1 - s.cfg.Dampening))
			}
			if s.cfg.Nesterov {
				g = g.Add(s.statistics[i].MulScalar(s.cfg.Momentum))
			} else {
				g = s.statistics[i].Clone()
			}
		}
		return g.MulScalar(s.cfg.LearningRate), nil
	})
}
