package userservice

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base32"
	"errors"
	"time"
)

func hashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}

func newRefreshToken(userID int, ttl time.Duration) (*refreshToken, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}

	token := &refreshToken{
		Plain:  base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes),
		UserID: userID,
		Expiry: time.Now().Add(ttl),
	}

	token.Hash = hashToken(token.Plain)

	return token, nil
}

func (m *DBModel) insertRefreshToken(ctx context.Context, token *refreshToken) error {
	query := `
		INSERT INTO refresh_tokens (hash, user_id, expiry)
		VALUES ($1, $2, $3)`

	_, err := m.db.ExecContext(ctx, query, token.Hash, token.UserID, token.Expiry)
	return err
}

// getUserByRefreshToken returns the owner of an unexpired refresh token.
func (m *DBModel) getUserByRefreshToken(ctx context.Context, hash []byte) (*User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.is_active, u.is_superuser
		FROM users u
		INNER JOIN refresh_tokens t ON u.id = t.user_id
		WHERE t.hash = $1 AND t.expiry > $2`

	var u User

	err := m.db.QueryRowContext(ctx, query, hash, time.Now()).Scan(&u.ID, &u.Username, &u.Email, &u.IsActive, &u.IsSuperuser)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

// deleteRefreshToken removes a single refresh token row. Used on rotation.
func (m *DBModel) deleteRefreshToken(tx *sql.Tx, ctx context.Context, hash []byte) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE hash = $1`

	res, err := tx.ExecContext(ctx, query, hash)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// deleteRefreshTokensForUser revokes every refresh token of a user.
func (m *DBModel) deleteRefreshTokensForUser(ctx context.Context, userID int) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1`

	_, err := m.db.ExecContext(ctx, query, userID)
	return err
}

func (m *DBModel) insertRefreshTokenTx(tx *sql.Tx, ctx context.Context, token *refreshToken) error {
	query := `
		INSERT INTO refresh_tokens (hash, user_id, expiry)
		VALUES ($1, $2, $3)`

	_, err := tx.ExecContext(ctx, query, token.Hash, token.UserID, token.Expiry)
	return err
}
