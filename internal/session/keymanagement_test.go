package session

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/trainer/internal/clock"
)

func writeTestKey(t *testing.T, dir string) (*ecdsa.PrivateKey, string) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "owners"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "users"), 0o755))

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "owners", "owner1.pem"), pemBytes, 0o644))

	hash := sha256.Sum256(der)
	return priv, hex.EncodeToString(hash[:])
}

func TestLoadFromDirAndVerifySignature(t *testing.T) {
	dir := t.TempDir()
	priv, hash := writeTestKey(t, dir)

	km, err := LoadFromDir(dir)
	require.NoError(t, err)

	message := []byte("create-session-challenge-body")
	digest := sha256.Sum256(message)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	require.NoError(t, err)

	assert.NoError(t, km.VerifySignature(hash, message, sig))
	assert.ErrorIs(t, km.VerifySignature(hash, []byte("tampered"), sig), ErrInvalidSignature)
	assert.ErrorIs(t, km.VerifySignature("deadbeef", message, sig), ErrUnknownKey)
}

// Scenario 4 (spec end-to-end scenarios, #4): obtain a challenge, sign
// method ‖ challenge ‖ body with a pre-registered key, create a session,
// reuse the token from the same IP, then replay from a different IP.
func TestScenarioSessionFlow(t *testing.T) {
	dir := t.TempDir()
	priv, hash := writeTestKey(t, dir)

	km, err := LoadFromDir(dir)
	require.NoError(t, err)

	m := NewManager(km, time.Minute, clock.NewTestClock())
	challenge, err := m.NewChallenge()
	require.NoError(t, err)

	message := append([]byte("create-session"), challenge...)
	digest := sha256.Sum256(message)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	require.NoError(t, err)

	token, err := m.CreateSession("10.0.0.1", ClientDescriptor{Name: "client-a"}, message, []PresentedSignature{
		{PubKeyHash: hash, Signature: sig},
	})
	require.NoError(t, err)
	require.Len(t, token, 64)

	assert.NoError(t, m.VerifyRequest(token, "10.0.0.1"))
	assert.ErrorIs(t, m.VerifyRequest(token, "10.0.0.2"), ErrUnknownIP)
}
