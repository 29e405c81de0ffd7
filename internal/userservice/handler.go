package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sushihentaime/blogmate/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, c *common.Cache, tokens *TokenService, logger *slog.Logger) *UserService {
	return &UserService{
		m:      newUserModel(db),
		mb:     mb,
		tokens: tokens,
		c:      c,
		logger: logger,
	}
}

// Register creates a new user account and publishes a user.created event so
// the mail consumer can send the verification email. Signup does not depend
// on the event being published: a broker failure is logged and swallowed.
func (s *UserService) Register(ctx context.Context, username, email, password string, role Role) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	validateRole(v, role)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		Username: username,
		Email:    email,
		Role:     role,
		Password: Password{Plain: password},
	}

	err := u.Password.set(u.Password.Plain)
	if err != nil {
		return nil, err
	}

	token, tokenHash, err := newSecretToken()
	if err != nil {
		return nil, err
	}

	err = s.m.insertUser(ctx, &u, tokenHash, timeNow().Add(VerificationTokenTime))
	if err != nil {
		return nil, err
	}

	s.publishEmailEvent(ctx, common.UserCreatedKey, u.Email, token)

	return &u, nil
}

// Login authenticates the credentials and issues an access/refresh token
// pair. Unknown usernames and wrong passwords are indistinguishable to the
// caller. Unverified accounts may log in; write endpoints enforce
// verification separately.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	v := common.NewValidator()
	validateUsername(v, username)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationFailure
	}

	return s.tokens.NewTokenPair(user.ID)
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself stays valid until its natural expiry.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*AccessToken, error) {
	userID, err := s.tokens.parse(refreshToken, tokenKindRefresh)
	if err != nil {
		return nil, ErrAuthenticationFailure
	}

	// the subject must still exist
	if _, err := s.m.getUserByID(ctx, userID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	return s.tokens.NewAccessToken(userID)
}

// VerifyEmail marks the account holding the token as verified and consumes
// the token.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	v := common.NewValidator()
	ValidateSecretToken(v, token)
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.verifyUser(ctx, hashToken(token))
}

// GetUserByAccessToken resolves the bearer token presented on a request to
// a user. Lookups are cached briefly since every authenticated request
// goes through here.
func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.parse(token, tokenKindAccess)
	if err != nil {
		return nil, ErrAuthenticationFailure
	}

	if s.c != nil {
		if cached, ok := s.c.Get(common.CacheKeyUserByAccessToken(token)); ok {
			return cached.(*User), nil
		}
	}

	user, err := s.m.getUserByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	if s.c != nil {
		s.c.Set(common.CacheKeyUserByAccessToken(token), user)
	}

	return user, nil
}

// RequestPasswordReset stores a single-use reset token and publishes a
// user.reset_password event. Unknown emails succeed silently so the
// endpoint cannot be used to probe for accounts.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	v := common.NewValidator()
	validateEmail(v, email)
	if !v.Valid() {
		return v.ValidationError()
	}

	user, err := s.m.getUserByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil
		default:
			return err
		}
	}

	token, tokenHash, err := newSecretToken()
	if err != nil {
		return err
	}

	if err := s.m.setResetToken(ctx, user.ID, tokenHash, timeNow().Add(ResetTokenTime)); err != nil {
		return err
	}

	s.publishEmailEvent(ctx, common.UserResetPasswordKey, user.Email, token)

	return nil
}

// ResetPassword consumes a reset token and replaces the account password.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	v := common.NewValidator()
	ValidateSecretToken(v, token)
	validatePassword(v, password)
	if !v.Valid() {
		return v.ValidationError()
	}

	pwd := Password{}
	if err := pwd.set(password); err != nil {
		return err
	}

	return s.m.resetPassword(ctx, hashToken(token), pwd)
}

func (s *UserService) publishEmailEvent(ctx context.Context, key common.BindingKey, email, token string) {
	data := struct {
		Email string
		Token string
	}{
		Email: email,
		Token: token,
	}

	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("could not marshal email event", slog.String("key", string(key)), slog.String("error", err.Error()))
		return
	}

	if err := s.mb.Publish(ctx, payload, key, common.UserExchange); err != nil {
		s.logger.Error("could not publish email event", slog.String("key", string(key)), slog.String("error", err.Error()))
	}
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}

func (u *User) IsVerified() bool {
	return u.Verified
}
