package artifact

import (
	"sync"

	"github.com/coldvault/trainer/internal/tensor"
)

// DType names the scalar element type recorded in a TensorHandle's
// metadata. The store itself always computes in float64; DType is
// metadata for clients, not a storage format.
type DType string

const (
	Float32 DType = "float32"
	Float64 DType = "float64"
	Int64   DType = "int64"
)

// TensorHandle wraps a tensor under its own exclusive lock, so dataset
// conversion or a dtype change on one tensor never blocks access to an
// unrelated tensor (§5: "this serializes writers but never blocks
// unrelated tensors").
type TensorHandle struct {
	mu    sync.Mutex
	Data  *tensor.Tensor
	DType DType
}

// NewTensorHandle wraps t with the given declared dtype.
func NewTensorHandle(t *tensor.Tensor, dtype DType) *TensorHandle {
	return &TensorHandle{Data: t, DType: dtype}
}

// ModifyDType changes the declared dtype in place; shape is unaffected
// (§8: "modify_tensor changing the dtype must return a reference whose
// metadata records the new dtype and unchanged shape").
func (h *TensorHandle) ModifyDType(dtype DType) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.DType = dtype
}

// Shape returns the tensor's shape under the handle's lock.
func (h *TensorHandle) Shape() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int{}, h.Data.Shape...)
}
