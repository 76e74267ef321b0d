package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldvault/trainer/internal/clock"
)

func TestCreateSessionWithAuthDisabledIssuesZeroToken(t *testing.T) {
	m := NewManager(nil, time.Minute, clock.NewTestClock())
	token, err := m.CreateSession("1.2.3.4", ClientDescriptor{Name: "c1"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("00", 32), token)
}

func TestVerifyRequestRejectsIPMismatch(t *testing.T) {
	m := NewManager(nil, time.Minute, clock.NewTestClock())
	token, err := m.CreateSession("1.2.3.4", ClientDescriptor{}, nil, nil)
	require.NoError(t, err)

	err = m.VerifyRequest(token, "1.2.3.4")
	assert.NoError(t, err)

	err = m.VerifyRequest(token, "9.9.9.9")
	assert.ErrorIs(t, err, ErrUnknownIP)
}

func TestVerifyRequestRejectsExpiredAndEvicts(t *testing.T) {
	tc := clock.NewTestClock()
	m := NewManager(nil, 10*time.Second, tc)
	token, err := m.CreateSession("1.2.3.4", ClientDescriptor{}, nil, nil)
	require.NoError(t, err)

	tc.Tick(11)
	err = m.VerifyRequest(token, "1.2.3.4")
	assert.ErrorIs(t, err, ErrSessionExpired)

	err = m.VerifyRequest(token, "1.2.3.4")
	assert.ErrorIs(t, err, ErrSessionNotFound, "expired token should have been evicted")
}

func TestRefreshSessionExtendsExpiry(t *testing.T) {
	tc := clock.NewTestClock()
	m := NewManager(nil, 10*time.Second, tc)
	token, err := m.CreateSession("1.2.3.4", ClientDescriptor{}, nil, nil)
	require.NoError(t, err)

	tc.Tick(9)
	require.NoError(t, m.RefreshSession(token))
	tc.Tick(9)

	assert.NoError(t, m.VerifyRequest(token, "1.2.3.4"))
}

func TestRefreshSessionUnknownTokenFails(t *testing.T) {
	m := NewManager(nil, time.Minute, clock.NewTestClock())
	err := m.RefreshSession("does-not-exist")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
