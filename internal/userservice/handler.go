package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sushihentaime/blogden/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
	ErrInvalidRefreshToken   = fmt.Errorf("invalid or expired refresh token")
	ErrNotSuperuser          = fmt.Errorf("superuser privileges required")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, c *common.Cache, jwtSecret string, accessTTL time.Duration) *UserService {
	if accessTTL <= 0 {
		accessTTL = AccessTokenTime
	}

	return &UserService{
		m:         newUserModel(db),
		mb:        mb,
		c:         c,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
	}
}

// issueTokenPair signs a fresh access token and stores a new refresh token for the
// user.
func (s *UserService) issueTokenPair(ctx context.Context, userID int) (*TokenPair, error) {
	access, accessExpiry, err := newAccessToken(userID, s.jwtSecret, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := newRefreshToken(userID, RefreshTokenTime)
	if err != nil {
		return nil, err
	}

	err = s.m.insertRefreshToken(ctx, refresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:        access,
		RefreshToken:       refresh.Plain,
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refresh.Expiry,
	}, nil
}

// RegisterUser creates a new user account, issues its first credentials and
// publishes a user.created event.
func (s *UserService) RegisterUser(ctx context.Context, username, email, password string) (*User, *TokenPair, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	u := User{
		Username: username,
		Email:    email,
		Password: Password{Plain: password},
	}

	err := u.Password.set(u.Password.Plain)
	if err != nil {
		return nil, nil, err
	}

	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokenPair(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}

	data := struct {
		Email    string
		Username string
	}{
		Email:    u.Email,
		Username: u.Username,
	}

	eventData, err := json.Marshal(data)
	if err != nil {
		return nil, nil, err
	}

	err = s.mb.Publish(ctx, eventData, common.UserCreatedKey, common.UserExchange)
	if err != nil {
		return nil, nil, err
	}

	return &u, tokens, nil
}

// LoginUser authenticates a user by username and password. Unknown usernames, wrong
// passwords and inactive accounts all fail with the same error.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*User, *TokenPair, error) {
	v := common.NewValidator()
	v.Check(username != "", "username", "must be provided")
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, nil, ErrAuthenticationFailure
		default:
			return nil, nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, nil, err
	}

	if !ok || !user.IsActive {
		return nil, nil, ErrAuthenticationFailure
	}

	tokens, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair. The presented
// token is consumed in the same transaction that records its replacement.
func (s *UserService) RefreshToken(ctx context.Context, token string) (*TokenPair, error) {
	v := common.NewValidator()
	ValidateRefreshToken(v, token)
	if !v.Valid() {
		return nil, ErrInvalidRefreshToken
	}

	hash := hashToken(token)

	user, err := s.m.getUserByRefreshToken(ctx, hash)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrInvalidRefreshToken
		default:
			return nil, err
		}
	}

	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	access, accessExpiry, err := newAccessToken(user.ID, s.jwtSecret, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := newRefreshToken(user.ID, RefreshTokenTime)
	if err != nil {
		return nil, err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	err = s.m.deleteRefreshToken(tx, ctx, hash)
	if err != nil {
		_ = tx.Rollback()
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrInvalidRefreshToken
		default:
			return nil, err
		}
	}

	err = s.m.insertRefreshTokenTx(tx, ctx, refresh)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:        access,
		RefreshToken:       refresh.Plain,
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refresh.Expiry,
	}, nil
}

// GetUserByAccessToken verifies an access token and loads the user it identifies.
// Lookups are cached briefly to keep the authenticate middleware off the database on
// hot paths.
func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	userID, err := parseAccessToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		if cached, ok := s.c.Get(common.CacheKeyUserByID(userID)); ok {
			if user, ok := cached.(*User); ok {
				return user, nil
			}
		}
	}

	user, err := s.m.getUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(common.CacheKeyUserByID(userID), user)
	}

	return user, nil
}

// GetUserByID returns a user profile.
func (s *UserService) GetUserByID(ctx context.Context, id int) (*User, error) {
	return s.m.getUserByID(ctx, id)
}

// CreateSuperuser provisions a new superuser account. Only an existing superuser may
// call it; the acting user is recorded as the creator.
func (s *UserService) CreateSuperuser(ctx context.Context, actor *User, username, email, password string) (*User, *TokenPair, error) {
	if actor == nil || !actor.IsSuperuser {
		return nil, nil, ErrNotSuperuser
	}

	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	u := User{
		Username:    username,
		Email:       email,
		Password:    Password{Plain: password},
		IsSuperuser: true,
		CreatedBy:   &actor.ID,
	}

	err := u.Password.set(u.Password.Plain)
	if err != nil {
		return nil, nil, err
	}

	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokenPair(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}

	return &u, tokens, nil
}

// LogoutUser revokes every refresh token held by the user. Outstanding access
// tokens lapse on their own expiry.
func (s *UserService) LogoutUser(ctx context.Context, userID int) error {
	err := s.m.deleteRefreshTokensForUser(ctx, userID)
	if err != nil {
		return err
	}

	if s.c != nil {
		s.c.Delete(common.CacheKeyUserByID(userID))
	}

	return nil
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}
