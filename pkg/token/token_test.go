package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", "zoo", time.Hour)

	raw, expires, err := m.Issue(Claims{UserID: "u1", OrganizationID: "o1", SessionID: "s1"}, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "o1", claims.OrganizationID)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "zoo", claims.Issuer)
}

func TestParse_Rejects(t *testing.T) {
	m := NewManager("secret", "zoo", time.Hour)
	other := NewManager("other", "zoo", time.Hour)

	foreign, _, err := other.Issue(Claims{UserID: "u1"}, time.Now())
	require.NoError(t, err)
	_, err = m.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _, err := m.Issue(Claims{UserID: "u1"}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = m.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
