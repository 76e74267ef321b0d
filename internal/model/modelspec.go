package model

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"

	"github.com/coldvault/trainer/internal/tensor"
)

// Spec is the architecture descriptor carried inside a model artifact's
// bytes (§6's send_model payload): enough to reconstruct the Module this
// package ships, plus any previously-trained parameter state. A real
// deployment's artifact would carry a serialized external model graph
// instead (§1); this is the stand-in for that envelope.
type Spec struct {
	InFeatures  int
	OutFeatures int
	UseBias     bool
	Params      []byte // gob-free flat float64 encoding, see checkpoint_codec.go's format; empty means zero-initialized
}

// EncodeSpec gob-encodes a Spec into the bytes stored by send_model.
func EncodeSpec(s Spec) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("model: encoding spec: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSpec reverses EncodeSpec.
func DecodeSpec(data []byte) (Spec, error) {
	var s Spec
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return Spec{}, fmt.Errorf("model: decoding spec: %w", err)
	}
	return s, nil
}

// Build reconstructs a Module from the spec, loading Params into the fresh
// layer's trainable variables when present.
func (s Spec) Build() (*Linear, error) {
	var lin *Linear
	if s.UseBias {
		lin = NewLinear(s.InFeatures, s.OutFeatures)
	} else {
		lin = NewLinearNoBias(s.InFeatures, s.OutFeatures)
	}
	if len(s.Params) == 0 {
		return lin, nil
	}
	if err := loadFlatFloat64(lin.TrainableVariables(), s.Params); err != nil {
		return nil, err
	}
	return lin, nil
}

// loadFlatFloat64 fills vars from a little-endian flat float64 encoding —
// the same wire format internal/training uses for checkpoints, duplicated
// here in miniature since model cannot import training (training already
// imports model).
func loadFlatFloat64(vars []*tensor.Tensor, buf []byte) error {
	offset := 0
	for _, v := range vars {
		for i := range v.Data {
			if offset+8 > len(buf) {
				return fmt.Errorf("model: spec params buffer too short for parameter shapes")
			}
			v.Data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset:]))
			offset += 8
		}
	}
	if offset != len(buf) {
		return fmt.Errorf("model: spec params buffer has %d trailing bytes", len(buf)-offset)
	}
	return nil
}
