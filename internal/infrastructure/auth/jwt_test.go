package auth

import (
	"testing"
	"time"

	"github.com/erp/receiving/internal/domain/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-at-least-32-chars"

func testActor() shared.Actor {
	return shared.NewActor(uuid.New(), uuid.New(), "clerk", shared.RoleAdmin)
}

func TestTokenValidator_RoundTrip(t *testing.T) {
	v := NewTokenValidator(testSecret, "receiving")
	actor := testActor()

	token, err := v.Issue(actor, time.Hour)
	require.NoError(t, err)

	got, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestTokenValidator_DefaultsRoleToMember(t *testing.T) {
	v := NewTokenValidator(testSecret, "")
	actor := testActor()
	actor.Role = ""

	token, err := v.Issue(actor, time.Hour)
	require.NoError(t, err)

	got, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, shared.RoleMember, got.Role)
}

func TestTokenValidator_Rejects(t *testing.T) {
	v := NewTokenValidator(testSecret, "receiving")
	actor := testActor()

	t.Run("expired", func(t *testing.T) {
		issuer := NewTokenValidator(testSecret, "receiving")
		issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := issuer.Issue(actor, time.Hour)
		require.NoError(t, err)

		_, err = v.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenValidator("another-secret-another-secret-xx", "receiving").Issue(actor, time.Hour)
		require.NoError(t, err)

		_, err = v.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := NewTokenValidator(testSecret, "someone-else").Issue(actor, time.Hour)
		require.NoError(t, err)

		_, err = v.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			TenantID: actor.TenantID.String(),
			UserID:   actor.UserID.String(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing tenant", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "receiving",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UserID: actor.UserID.String(),
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = v.Validate(token)
		assert.ErrorIs(t, err, ErrMissingTenantID)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
