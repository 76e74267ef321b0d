package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coldvault/trainer/internal/clock"
)

// ErrUnknownKey and ErrInvalidSignature distinguish an unrecognized
// public key from a known key whose signature failed to verify (§7:
// Unauthenticated vs PermissionDenied).
var (
	ErrUnknownKey       = errors.New("session: public key not provisioned")
	ErrInvalidSignature = errors.New("session: signature verification failed")
)

// ErrSessionExpired, ErrUnknownIP and ErrSessionNotFound are the
// per-request authorization failures (§4.6, §8).
var (
	ErrSessionExpired  = errors.New("session: Session Expired")
	ErrUnknownIP       = errors.New("session: Unknown IP Address!")
	ErrSessionNotFound = errors.New("session: Session not found!")
)

// ClientDescriptor identifies the peer that established a session.
type ClientDescriptor struct {
	Name string
}

type entry struct {
	peerIP     string
	expiry     time.Time
	clientInfo ClientDescriptor
}

// Manager issues challenges, verifies signatures at session creation, and
// enforces per-IP bounded-lifetime tokens on every subsequent call (§4.6).
// A nil Keys disables authentication: CreateSession always succeeds and
// issues the fixed all-zero token.
type Manager struct {
	Keys     *KeyManagement
	TTL      time.Duration
	Clock    clock.Clock
	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewManager returns a Manager. Pass a nil keys to disable authentication.
func NewManager(keys *KeyManagement, ttl time.Duration, c clock.Clock) *Manager {
	return &Manager{Keys: keys, TTL: ttl, Clock: c, sessions: make(map[string]*entry)}
}

// AuthEnabled reports whether a key directory was provisioned.
func (m *Manager) AuthEnabled() bool { return m.Keys != nil }

// NewChallenge returns 32 random bytes for the client to sign (§4.6 step 1).
func (m *Manager) NewChallenge() ([]byte, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// PresentedSignature is one signature header from a create_session call:
// the hex SHA-256 hash of the signing public key, and the ASN.1 signature
// bytes produced over method_name ‖ challenge ‖ canonical_encoding(body).
type PresentedSignature struct {
	PubKeyHash string
	Signature  []byte
}

// CreateSession verifies the presented signatures against message and,
// once at least one verifies, issues a fresh session token bound to
// peerIP (§4.6 steps 2-4). Per the Open Question resolution in
// SPEC_FULL.md, at least one signature verifying is sufficient — not all.
func (m *Manager) CreateSession(peerIP string, client ClientDescriptor, message []byte, sigs []PresentedSignature) (string, error) {
	if !m.AuthEnabled() {
		token := make([]byte, 32)
		m.mu.Lock()
		m.sessions[hex.EncodeToString(token)] = &entry{peerIP: peerIP, expiry: m.Clock.Now().Add(m.TTL), clientInfo: client}
		m.mu.Unlock()
		return hex.EncodeToString(token), nil
	}

	if len(sigs) == 0 {
		return "", ErrUnknownKey
	}

	var lastErr error
	verified := false
	for _, sig := range sigs {
		if err := m.Keys.VerifySignature(sig.PubKeyHash, message, sig.Signature); err != nil {
			lastErr = err
			continue
		}
		verified = true
		break
	}
	if !verified {
		return "", fmt.Errorf("session: no presented signature verified: %w", lastErr)
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	m.mu.Lock()
	m.sessions[token] = &entry{peerIP: peerIP, expiry: m.Clock.Now().Add(m.TTL), clientInfo: client}
	m.mu.Unlock()
	return token, nil
}

// VerifyRequest checks that token is known, unexpired, and bound to
// peerIP (§4.6 "per-request check"). Expired tokens are evicted.
func (m *Manager) VerifyRequest(token, peerIP string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[token]
	if !ok {
		return ErrSessionNotFound
	}
	if e.peerIP != peerIP {
		return ErrUnknownIP
	}
	if m.Clock.Now().After(e.expiry) {
		delete(m.sessions, token)
		return ErrSessionExpired
	}
	return nil
}

// RefreshSession extends an existing token's expiry by another TTL
// increment (§4.6 "refresh").
func (m *Manager) RefreshSession(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[token]
	if !ok {
		return ErrSessionNotFound
	}
	e.expiry = e.expiry.Add(m.TTL)
	return nil
}
