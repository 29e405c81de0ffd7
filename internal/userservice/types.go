package userservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/sushihentaime/blogmate/internal/common"
)

// Role is the closed set of account roles. It is stored as text but never
// handled as a free-form string outside this type.
type Role string

const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleReader, RoleWriter, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// CanWriteBlog reports whether the role may create blog posts.
func (r Role) CanWriteBlog() bool {
	return r == RoleWriter || r == RoleAdmin
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

const (
	VerificationTokenTime time.Duration = 3 * 24 * time.Hour
	ResetTokenTime        time.Duration = 1 * time.Hour
)

var (
	AnonymousUser = User{Role: RoleReader}

	// swapped out in tests
	timeNow = time.Now
)

type UserService struct {
	m      *DBModel
	mb     common.MessageProducer
	tokens *TokenService
	c      *common.Cache
	logger *slog.Logger
}

type DBModel struct {
	db *sql.DB
}

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  Password  `json:"-"`
	Role      Role      `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"-"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// TokenPair is the login result: a short-lived access token and a
// long-lived refresh token, both signed JWTs.
type TokenPair struct {
	AccessToken        string    `json:"access_token"`
	RefreshToken       string    `json:"refresh_token"`
	AccessTokenExpiry  time.Time `json:"access_token_expiry"`
	RefreshTokenExpiry time.Time `json:"refresh_token_expiry"`
}

// AccessToken is the refresh result. Refresh tokens are not rotated, so
// only a new access token is issued.
type AccessToken struct {
	Token  string    `json:"access_token"`
	Expiry time.Time `json:"access_token_expiry"`
}
