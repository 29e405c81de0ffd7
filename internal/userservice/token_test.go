package userservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testTokenService() *TokenService {
	return NewTokenService("test-secret-key", "blogmate", 15*time.Minute, 7*24*time.Hour)
}

func TestTokenPairRoundTrip(t *testing.T) {
	s := testTokenService()

	pair, err := s.NewTokenPair(42)
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshTokenExpiry.After(pair.AccessTokenExpiry))

	userID, err := s.parse(pair.AccessToken, tokenKindAccess)
	assert.NoError(t, err)
	assert.Equal(t, 42, userID)

	userID, err = s.parse(pair.RefreshToken, tokenKindRefresh)
	assert.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestTokenKindMismatch(t *testing.T) {
	s := testTokenService()

	pair, err := s.NewTokenPair(7)
	assert.NoError(t, err)

	// an access token must not pass as a refresh token, and vice versa
	_, err = s.parse(pair.AccessToken, tokenKindRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.parse(pair.RefreshToken, tokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	s := NewTokenService("test-secret-key", "blogmate", -1*time.Minute, -1*time.Minute)

	pair, err := s.NewTokenPair(7)
	assert.NoError(t, err)

	_, err = s.parse(pair.AccessToken, tokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	pair, err := testTokenService().NewTokenPair(7)
	assert.NoError(t, err)

	other := NewTokenService("another-secret", "blogmate", 15*time.Minute, time.Hour)
	_, err = other.parse(pair.AccessToken, tokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongIssuer(t *testing.T) {
	pair, err := testTokenService().NewTokenPair(7)
	assert.NoError(t, err)

	other := NewTokenService("test-secret-key", "someone-else", 15*time.Minute, time.Hour)
	_, err = other.parse(pair.AccessToken, tokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	s := testTokenService()

	_, err := s.parse("not-a-jwt", tokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSecretToken(t *testing.T) {
	plain, hash, err := newSecretToken()
	assert.NoError(t, err)
	assert.Len(t, plain, 26)
	assert.Equal(t, hashToken(plain), hash)

	other, _, err := newSecretToken()
	assert.NoError(t, err)
	assert.NotEqual(t, plain, other)
}
