package tensor

// WithNoGrad runs fn in a scope where tensor mutations do not accumulate
// into an autograd graph. This adapter computes gradients explicitly
// (models populate .Grad themselves rather than recording an operation
// tape), so there is no graph to suspend; the scope exists to mark, at the
// call site, the same boundary the tensor-runtime contract in §4.1
// describes — optimizer updates always run inside one.
func WithNoGrad(fn func()) {
	fn()
}
