package userservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/blogden/internal/common"
)

const (
	AccessTokenTime  time.Duration = 15 * time.Minute
	RefreshTokenTime time.Duration = 30 * 24 * time.Hour

	tokenIssuer = "blogden"
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	m         *DBModel
	mb        common.MessageProducer
	c         *common.Cache
	jwtSecret []byte
	accessTTL time.Duration
}

type DBModel struct {
	db *sql.DB
}

type User struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    Password  `json:"-"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedBy   *int      `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// TokenPair is the credential set returned on register, login and refresh: a signed
// access token plus an opaque refresh token stored hashed on the server.
type TokenPair struct {
	AccessToken        string    `json:"access_token"`
	RefreshToken       string    `json:"refresh_token"`
	AccessTokenExpiry  time.Time `json:"access_token_expiry"`
	RefreshTokenExpiry time.Time `json:"refresh_token_expiry"`
}

type refreshToken struct {
	Plain  string
	Hash   []byte
	UserID int
	Expiry time.Time
}
