package training

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/coldvault/trainer/internal/tensor"
)

// SerializeParameters flattens every trainable tensor's data, in order,
// into a byte buffer suitable for storage as a checkpoint (§4.4 step 3:
// "checkpoint the parameter bytes at the end of each epoch").
func SerializeParameters(vars []*tensor.Tensor) []byte {
	var total int
	for _, v := range vars {
		total += len(v.Data)
	}
	buf := make([]byte, total*8)
	offset := 0
	for _, v := range vars {
		for _, f := range v.Data {
			binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(f))
			offset += 8
		}
	}
	return buf
}

// LoadParameters overwrites vars' data in place from a buffer produced by
// SerializeParameters, used to resume training from a checkpoint (§4.4
// step 1, resume branch).
func LoadParameters(vars []*tensor.Tensor, buf []byte) error {
	offset := 0
	for _, v := range vars {
		for i := range v.Data {
			if offset+8 > len(buf) {
				return fmt.Errorf("training: checkpoint buffer too short for parameter shapes")
			}
			v.Data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset:]))
			offset += 8
		}
	}
	if offset != len(buf) {
		return fmt.Errorf("training: checkpoint buffer has %d trailing bytes", len(buf)-offset)
	}
	return nil
}
