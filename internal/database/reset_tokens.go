package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/contabilidad-io/contabilidad/internal/models"
)

// ErrTokenInvalid is returned for any reset token that cannot be
// consumed. Missing, expired and already-used tokens deliberately
// produce the same error so a caller cannot probe which one it was.
var ErrTokenInvalid = errors.New("invalid or expired token")

// CreateResetToken stores a freshly issued reset token. Several
// outstanding tokens per user may coexist; each is independently valid
// until used or expired.
func (db *DB) CreateResetToken(userID int64, token string, expiresAt time.Time) error {
	query := db.dialect.Rebind(
		"INSERT INTO reset_tokens (user_id, token, expires_at) VALUES (?, ?, ?)")
	_, err := db.conn.Exec(query, userID, token, expiresAt.UTC().Format(time.RFC3339))
	return err
}

// GetResetToken returns the token row regardless of state. Test helper
// and audit reads only; consumption goes through ConsumeResetToken.
func (db *DB) GetResetToken(token string) (*models.ResetToken, error) {
	rt := &models.ResetToken{}
	var expires string
	var used int
	query := db.dialect.Rebind(
		"SELECT id, user_id, token, expires_at, used FROM reset_tokens WHERE token = ?")
	err := db.conn.QueryRow(query, token).Scan(&rt.ID, &rt.UserID, &rt.Token, &expires, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rt.Used = used != 0
	rt.ExpiresAt, _ = time.Parse(time.RFC3339, expires)
	return rt, nil
}

// ConsumeResetToken atomically redeems a valid token: the owning user's
// password is replaced and the token marked used inside one
// transaction, so a token can never pay out twice.
func (db *DB) ConsumeResetToken(token, newPasswordHash string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Expiries are RFC3339 UTC text on both backends, so a lexical
	// comparison against the current instant is a correct time
	// comparison.
	var id, userID int64
	lookup := db.dialect.Rebind(
		"SELECT id, user_id FROM reset_tokens WHERE token = ? AND used = 0 AND expires_at >= ?")
	err = tx.QueryRow(lookup, token, nowISO()).Scan(&id, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTokenInvalid
	}
	if err != nil {
		return err
	}

	update := db.dialect.Rebind("UPDATE users SET password = ? WHERE id = ?")
	if _, err := tx.Exec(update, newPasswordHash, userID); err != nil {
		return err
	}

	mark := db.dialect.Rebind("UPDATE reset_tokens SET used = 1 WHERE id = ?")
	if _, err := tx.Exec(mark, id); err != nil {
		return err
	}

	return tx.Commit()
}
