package artifact

import "github.com/coldvault/trainer/internal/tensor"

// Dataset is an ordered multi-tensor input plus a label tensor, along with
// a declared per-sample privacy limit (§3). Its length is the number of
// samples along the leading axis of Labels.
type Dataset struct {
	Inputs           []*tensor.Tensor
	Labels           *tensor.Tensor
	PerSamplePrivacy float64
}

// Len returns the number of samples, derived from the labels' leading
// axis.
func (d *Dataset) Len() int {
	if len(d.Labels.Shape) == 0 {
		return 0
	}
	return d.Labels.Shape[0]
}

// Batch slices out samples [start, end) along the leading axis of every
// input and the label tensor, returning a fixed-size batch for training or
// evaluation.
func (d *Dataset) Batch(start, end int) (inputs []*tensor.Tensor, labels *tensor.Tensor) {
	inputs = make([]*tensor.Tensor, len(d.Inputs))
	for i, in := range d.Inputs {
		inputs[i] = sliceLeadingAxis(in, start, end)
	}
	labels = sliceLeadingAxis(d.Labels, start, end)
	return inputs, labels
}

func sliceLeadingAxis(t *tensor.Tensor, start, end int) *tensor.Tensor {
	sampleSize := tensor.SampleSize(t.Shape)
	shape := append([]int{end - start}, t.Shape[1:]...)
	data := make([]float64, (end-start)*sampleSize)
	copy(data, t.Data[start*sampleSize:end*sampleSize])
	return tensor.FromData(data, shape...)
}
