package rpcserver

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/coldvault/trainer/internal/artifact"
	"github.com/coldvault/trainer/internal/tensor"
)

// datasetUpload is the gob envelope a send_dataset client assembles client
// side and ships as the concatenated bytes of its chunk stream: one or more
// named input tensors plus a label tensor (§3's Dataset, §6's
// RemoteDatasetReference).
type datasetUpload struct {
	InputsFlat  [][]float64
	InputShapes [][]int
	LabelsFlat  []float64
	LabelShape  []int
	PerSample   float64
}

func encodeDatasetUpload(up datasetUpload) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(up); err != nil {
		return nil, fmt.Errorf("rpcserver: encoding dataset upload: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeDatasetUpload(data []byte) (*artifact.Dataset, error) {
	var up datasetUpload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&up); err != nil {
		return nil, fmt.Errorf("rpcserver: decoding dataset upload: %w", err)
	}
	if len(up.InputsFlat) != len(up.InputShapes) {
		return nil, fmt.Errorf("rpcserver: dataset upload has %d input tensors but %d shapes", len(up.InputsFlat), len(up.InputShapes))
	}
	inputs := make([]*tensor.Tensor, len(up.InputsFlat))
	for i := range up.InputsFlat {
		inputs[i] = tensor.FromData(up.InputsFlat[i], up.InputShapes[i]...)
	}
	labels := tensor.FromData(up.LabelsFlat, up.LabelShape...)
	return &artifact.Dataset{Inputs: inputs, Labels: labels, PerSamplePrivacy: up.PerSample}, nil
}

// tensorUpload is the gob envelope for a single send_tensor upload.
type tensorUpload struct {
	Flat  []float64
	Shape []int
	DType string
}

func decodeTensorUpload(data []byte) (*artifact.TensorHandle, error) {
	var up tensorUpload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&up); err != nil {
		return nil, fmt.Errorf("rpcserver: decoding tensor upload: %w", err)
	}
	t := tensor.FromData(up.Flat, up.Shape...)
	return artifact.NewTensorHandle(t, artifact.DType(up.DType)), nil
}

// tensorMeta is the gob-encoded payload carried in a tensor Reference's
// Meta field: shape and dtype, so a caller inspecting the reference
// returned by send_tensor or send_dataset doesn't need a separate fetch
// to learn either (§6: "tensor reference + shape/dtype meta").
type tensorMeta struct {
	Shape []int
	DType string
}

func encodeTensorMeta(shape []int, dtype artifact.DType) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(tensorMeta{Shape: shape, DType: string(dtype)}); err != nil {
		return nil, fmt.Errorf("rpcserver: encoding tensor meta: %w", err)
	}
	return buf.Bytes(), nil
}
