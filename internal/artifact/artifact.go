// Package artifact implements the content-addressed artifact store: three
// hash-keyed maps (models, datasets, checkpoints) plus a tensor table, each
// guarded by its own reader/writer lock, and the chunked stream codec used
// to ingest and egress large binary payloads.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// ClientDescriptor identifies the remote peer that produced an artifact,
// recorded alongside uploads for audit purposes. Optional — zero value
// means "unknown client".
type ClientDescriptor struct {
	ClientID string
	IP       string
}

// Artifact is a metadata-bearing wrapper around a payload of type T. The
// payload is guarded by its own lock so the owning store's map lock never
// needs to be held across a read or mutation of the payload itself (§5:
// "held-lock duration is bounded").
type Artifact[T any] struct {
	mu          sync.RWMutex
	payload     T
	Name        string
	Description string
	Meta        []byte
	Client      *ClientDescriptor
	Secret      []byte
}

// New wraps payload in an Artifact with the given display metadata.
func New[T any](payload T, name, description string, meta []byte, client *ClientDescriptor, secret []byte) *Artifact[T] {
	return &Artifact[T]{
		payload:     payload,
		Name:        name,
		Description: description,
		Meta:        meta,
		Client:      client,
		Secret:      secret,
	}
}

// Payload returns a copy of the guarded payload handle under a read lock.
func (a *Artifact[T]) Payload() T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.payload
}

// SetPayload replaces the guarded payload under a write lock.
func (a *Artifact[T]) SetPayload(payload T) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.payload = payload
}

// Identifier returns the hex-encoded SHA-256 of b, the content address used
// for model and dataset artifacts (§3, §4.3).
func Identifier(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
