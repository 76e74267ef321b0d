package tensor

import "math"

// PerSampleL2Norm reduces a [B, *rest] tensor to a length-B vector holding
// the L2 norm of each sample's slice over all remaining axes. This is the
// per-sample, per-parameter norm step of DP-SGD (§4.2 step 1).
func PerSampleL2Norm(t *Tensor) *Tensor {
	if len(t.Shape) == 0 {
		panic("tensor: PerSampleL2Norm requires at least one axis")
	}
	b := t.Shape[0]
	sampleSize := SampleSize(t.Shape)
	out := New(b)
	for i := 0; i < b; i++ {
		var sumSq float64
		base := i * sampleSize
		for j := 0; j < sampleSize; j++ {
			v := t.Data[base+j]
			sumSq += v * v
		}
		out.Data[i] = math.Sqrt(sumSq)
	}
	return out
}

// PerSampleGlobalNorm combines the per-parameter per-sample norms produced
// by PerSampleL2Norm (one length-B vector per parameter) into a single
// length-B vector: the L2 norm, per sample, across all parameters (§4.2
// step 2). It is expressed purely in terms of the adapter's elementwise
// ops (square, add, sqrt) rather than a dedicated stack primitive, since
// the contract in §4.1 does not include one.
func PerSampleGlobalNorm(perParamNorms []*Tensor) *Tensor {
	if len(perParamNorms) == 0 {
		panic("tensor: PerSampleGlobalNorm requires at least one parameter")
	}
	b := perParamNorms[0].Shape[0]
	sumSq := New(b)
	for _, n := range perParamNorms {
		sq := n.Square()
		sumSq = sumSq.Add(sq)
	}
	return sumSq.Sqrt()
}

// Sum reduces the tensor to a scalar (shape []) by summing all elements.
func (t *Tensor) Sum() *Tensor {
	var s float64
	for _, v := range t.Data {
		s += v
	}
	return FromData([]float64{s})
}

// Mean reduces the tensor to a scalar (shape []) by averaging all elements.
func (t *Tensor) Mean() *Tensor {
	if len(t.Data) == 0 {
		return FromData([]float64{0})
	}
	return FromData([]float64{t.Sum().Data[0] / float64(len(t.Data))})
}

// EinsumContractSample implements the "i, i... -> ..." contraction required
// by §4.1: c has shape [B], g has shape [B, *rest]; the result has shape
// rest and equals sum_b c[b] * g[b].
func EinsumContractSample(c *Tensor, g *Tensor) *Tensor {
	if len(c.Shape) != 1 || len(g.Shape) == 0 || g.Shape[0] != c.Shape[0] {
		panic("tensor: EinsumContractSample requires c of shape [B] and g of shape [B, ...]")
	}
	b := c.Shape[0]
	restShape := g.Shape[1:]
	sampleSize := numel(restShape)
	out := New(restShape...)
	for i := 0; i < b; i++ {
		weight := c.Data[i]
		base := i * sampleSize
		for j := 0; j < sampleSize; j++ {
			out.Data[j] += weight * g.Data[base+j]
		}
	}
	return out
}
