package userservice

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type tokenKind string

const (
	tokenKindAccess  tokenKind = "access"
	tokenKindRefresh tokenKind = "refresh"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService signs and verifies the access and refresh JWTs. The secret,
// issuer, and lifetimes come from the application config; nothing here is
// read from the environment directly.
//
// Refresh tokens are deliberately not rotated on use: a refresh token stays
// valid until its natural expiry.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type tokenClaims struct {
	Kind tokenKind `json:"kind"`
	jwt.RegisteredClaims
}

func (s *TokenService) sign(userID int, kind tokenKind, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(ttl)

	claims := &tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("could not sign token: %w", err)
	}

	return signed, expiry, nil
}

// NewTokenPair issues an access and a refresh token for the user.
func (s *TokenService) NewTokenPair(userID int) (*TokenPair, error) {
	access, accessExpiry, err := s.sign(userID, tokenKindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, refreshExpiry, err := s.sign(userID, tokenKindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:        access,
		RefreshToken:       refresh,
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
	}, nil
}

// NewAccessToken issues a fresh access token for the user.
func (s *TokenService) NewAccessToken(userID int) (*AccessToken, error) {
	access, expiry, err := s.sign(userID, tokenKindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	return &AccessToken{Token: access, Expiry: expiry}, nil
}

// parse verifies the signature, expiry, issuer, and kind of a token and
// returns the subject user id. Any failure is ErrInvalidToken; callers do
// not learn why a token was rejected.
func (s *TokenService) parse(token string, kind tokenKind) (int, error) {
	claims := &tokenClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	if claims.Kind != kind {
		return 0, ErrInvalidToken
	}

	var userID int
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil || userID < 1 {
		return 0, ErrInvalidToken
	}

	return userID, nil
}

// hashToken hashes the single-use email tokens before they touch the
// database; only the hash is ever stored.
func hashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}

// newSecretToken generates the random token mailed to users for email
// verification and password resets.
func newSecretToken() (string, []byte, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", nil, err
	}

	plain := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	return plain, hashToken(plain), nil
}
