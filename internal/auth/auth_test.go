package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/moamoa/internal/apperr"
)

func TestIssueParse(t *testing.T) {
	m := NewManager("s3cret", time.Hour)

	token, err := m.Issue(42, time.Now())
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseRejects(t *testing.T) {
	m := NewManager("s3cret", time.Hour)

	expired, err := m.Issue(1, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = m.Parse(expired)
	require.Error(t, err)
	assert.Equal(t, "TOKEN_EXPIRED", apperr.From(err).Code)

	other, err := NewManager("other", time.Hour).Issue(1, time.Now())
	require.NoError(t, err)
	_, err = m.Parse(other)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	_, err = m.Parse("garbage")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(none)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestUserIDContext(t *testing.T) {
	assert.Zero(t, UserID(context.Background()))
	assert.Equal(t, int64(7), UserID(WithUserID(context.Background(), 7)))
}
