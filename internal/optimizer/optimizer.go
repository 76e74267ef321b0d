package optimizer

// Optimizer is the common interface implemented by every concrete
// optimizer, dispatched as a plain interface rather than by subclassing
// (spec.md §9).
type Optimizer interface {
	ZeroGrad()
	Step() error
}
