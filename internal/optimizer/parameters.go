// Package optimizer implements the private-optimizer engine (§4.2 of the
// design): the Parameters tagged union, DP-SGD gradient clipping and
// noising, and the SGD/Adam update rules that ultimately apply the
// resulting update to each trainable tensor.
package optimizer

import (
	"fmt"
	"math/rand"

	"github.com/coldvault/trainer/internal/tensor"
)

// NumericFailure wraps an error surfaced by the tensor runtime during a
// Step. Per §4.2, Step never panics on NaN — NaN propagates as ordinary
// data — but a genuine runtime failure (a shape invariant violated by the
// caller) is reported this way instead of panicking.
type NumericFailure struct {
	Err error
}

func (n *NumericFailure) Error() string { return fmt.Sprintf("numeric failure: %v", n.Err) }
func (n *NumericFailure) Unwrap() error { return n.Err }

func numericFailure(format string, args ...interface{}) error {
	return &NumericFailure{Err: fmt.Errorf(format, args...)}
}

// LossReduction tells the DP-SGD pipeline which aggregation the training
// loss used, so the aggregated clipped gradient can be rescaled to match
// (§4.2 step 6).
type LossReduction struct {
	mean      bool
	batchSize int
}

// SumReduction declares the loss as an unreduced sum over the batch.
func SumReduction() LossReduction { return LossReduction{} }

// MeanReduction declares the loss as the mean over a batch of the given
// size. batchSize must be >= 1.
func MeanReduction(batchSize int) LossReduction {
	if batchSize < 1 {
		panic("optimizer: MeanReduction requires batchSize >= 1")
	}
	return LossReduction{mean: true, batchSize: batchSize}
}

// variant distinguishes the two kinds of Parameters without subclassing,
// per the design notes in spec.md §9 ("prefer a closed sum type").
type variant int

const (
	standardVariant variant = iota
	privateVariant
)

// Parameters holds the trainable tensors of a model plus, for the private
// variant, the DP-SGD configuration that every Step must apply. The
// length of params is fixed at construction and never changes.
type Parameters struct {
	kind   variant
	params []*tensor.Tensor

	maxGradNorm     float64
	noiseMultiplier float64
	lossReduction   LossReduction
	rngSource       rand.Source
}

// NewStandard wraps trainableVars for ordinary (non-private) training.
func NewStandard(trainableVars []*tensor.Tensor) *Parameters {
	return &Parameters{kind: standardVariant, params: trainableVars}
}

// NewPrivate wraps trainableVars for DP-SGD. maxGradNorm and
// noiseMultiplier must be >= 0. src seeds the Gaussian noise draws; pass a
// fixed-seed source in tests for reproducibility.
func NewPrivate(trainableVars []*tensor.Tensor, maxGradNorm, noiseMultiplier float64, lossReduction LossReduction, src rand.Source) *Parameters {
	if maxGradNorm < 0 || noiseMultiplier < 0 {
		panic("optimizer: maxGradNorm and noiseMultiplier must be >= 0")
	}
	return &Parameters{
		kind:            privateVariant,
		params:          trainableVars,
		maxGradNorm:     maxGradNorm,
		noiseMultiplier: noiseMultiplier,
		lossReduction:   lossReduction,
		rngSource:       src,
	}
}

// Len returns the number of contained parameter tensors.
func (p *Parameters) Len() int { return len(p.params) }

// IsPrivate reports whether this is the DP-SGD variant.
func (p *Parameters) IsPrivate() bool { return p.kind == privateVariant }

// ZeroGrad clears the accumulated gradient on every contained parameter.
// Infallible.
func (p *Parameters) ZeroGrad() {
	for _, param := range p.params {
		param.ZeroGrad()
	}
}

// Inspect zeroes gradients and returns the raw parameter tensors. Per the
// inspection semantics in §4.2, any caller observing parameters mid-
// training must first lose the attached per-sample gradients, since those
// carry sensitive per-sample information.
func (p *Parameters) Inspect() []*tensor.Tensor {
	p.ZeroGrad()
	return p.params
}

// updateFunc computes the update to subtract from param i given its
// effective gradient (which, for the private variant, is already clipped,
// noised and reduced).
type updateFunc func(i int, param *tensor.Tensor, grad *tensor.Tensor) (*tensor.Tensor, error)

// Update applies updateFn to every parameter's effective gradient and
// subtracts the result from the parameter in place, inside a no-grad
// scope. For the private variant this performs DP-SGD clipping and
// noising first (§4.2 steps 1-6); updateFn only ever sees the final
// effective gradient, standard or private.
func (p *Parameters) Update(updateFn updateFunc) error {
	var err error
	tensor.WithNoGrad(func() {
		switch p.kind {
		case standardVariant:
			err = p.updateStandard(updateFn)
		case privateVariant:
			err = p.updatePrivate(updateFn)
		}
	})
	return err
}

func (p *Parameters) updateStandard(updateFn updateFunc) error {
	for i, param := range p.params {
		grad := param.Grad
		if grad == nil {
			grad = tensor.New(param.Shape...)
		}
		update, err := updateFn(i, param, grad)
		if err != nil {
			return err
		}
		param.SubInPlace(update)
	}
	return nil
}

// epsilon guards the clip-factor division against a zero per-sample norm
// (§4.2 step 3).
const epsilon = 1e-6

func (p *Parameters) updatePrivate(updateFn updateFunc) error {
	if len(p.params) == 0 {
		return nil
	}

	perParamNorms := make([]*tensor.Tensor, len(p.params))
	for i, param := range p.params {
		grad := param.Grad
		if grad == nil {
			return numericFailure("parameter %d has no per-sample gradient attached", i)
		}
		if len(grad.Shape) == 0 {
			return numericFailure("parameter %d gradient missing the leading sample axis", i)
		}
		perParamNorms[i] = tensor.PerSampleL2Norm(grad)
	}

	globalNorm := tensor.PerSampleGlobalNorm(perParamNorms)
	maxNorm := tensor.New(globalNorm.Shape...)
	for i := range maxNorm.Data {
		maxNorm.Data[i] = p.maxGradNorm
	}
	denom := globalNorm.Clone()
	for i := range denom.Data {
		denom.Data[i] += epsilon
	}
	clipFactor := maxNorm.Clone()
	for i := range clipFactor.Data {
		clipFactor.Data[i] = maxNorm.Data[i] / denom.Data[i]
	}
	clipFactor = clipFactor.Clamp(0, 1)

	for i, param := range p.params {
		aggregated := tensor.EinsumContractSample(clipFactor, param.Grad)
		noise := tensor.NoiseLike(aggregated.Shape, p.noiseMultiplier, p.rngSource)
		effective := aggregated.Add(noise)
		if p.lossReduction.mean {
			effective.DivScalarInPlace(float64(p.lossReduction.batchSize))
		}

		update, err := updateFn(i, param, effective)
		if err != nil {
			return err
		}
		param.SubInPlace(update)
	}
	return nil
}
