package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/contabilidad-io/contabilidad/internal/database"
	"github.com/contabilidad-io/contabilidad/internal/mail"
)

// ErrPasswordTooShort rejects a reset with a password under the minimum.
var ErrPasswordTooShort = errors.New("password too short")

// ResetTokenTTL is how long a password-reset token stays redeemable.
const ResetTokenTTL = time.Hour

// ResetService owns the password-reset token lifecycle.
type ResetService struct {
	db          *database.DB
	mailer      mail.Mailer
	frontendURL string
	now         func() time.Time
}

// NewResetService wires the reset flow. frontendURL is the SPA origin
// the emailed link points at.
func NewResetService(db *database.DB, mailer mail.Mailer, frontendURL string) *ResetService {
	return &ResetService{db: db, mailer: mailer, frontendURL: frontendURL, now: time.Now}
}

// RequestReset issues a reset token for the account behind email and
// mails the recovery link. Whether the account exists — and whether the
// mail went out — is invisible to the caller: the outcome is identical
// in every case except an internal storage failure. That is the
// anti-enumeration contract; do not "improve" it.
func (s *ResetService) RequestReset(email string) error {
	user, err := s.db.GetUserByEmail(email)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(ResetTokenTTL)

	if err := s.db.CreateResetToken(user.ID, token, expiresAt); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	if err := s.mailer.SendPasswordReset(user.Email, resetURL); err != nil {
		// A transport failure must not change the response shape.
		log.Printf("failed to send reset mail: %v", err)
	}

	return nil
}

// ConsumeReset redeems a token and sets the new password. Missing,
// expired and already-used tokens all surface as
// database.ErrTokenInvalid.
func (s *ResetService) ConsumeReset(token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.ConsumeResetToken(token, hash)
}
