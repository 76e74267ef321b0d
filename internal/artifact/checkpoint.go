package artifact

// Checkpoint is one entry in a model's append-only checkpoint history: a
// snapshot of trainable parameter bytes taken at an epoch boundary (§9).
type Checkpoint struct {
	Epoch int
	Bytes []byte
}

// CheckpointHistory is the append-only list of Checkpoint entries kept per
// model id. Fetch only ever needs the last entry; nothing is ever removed
// from the middle (§9: "no garbage collection between epochs").
type CheckpointHistory struct {
	Entries []Checkpoint
}

// Append adds a checkpoint to the end of the history.
func (h *CheckpointHistory) Append(c Checkpoint) {
	h.Entries = append(h.Entries, c)
}

// Last returns the most recent checkpoint and whether the history is
// non-empty.
func (h *CheckpointHistory) Last() (Checkpoint, bool) {
	if len(h.Entries) == 0 {
		return Checkpoint{}, false
	}
	return h.Entries[len(h.Entries)-1], true
}
