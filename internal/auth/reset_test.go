package auth

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/contabilidad-io/contabilidad/internal/config"
	"github.com/contabilidad-io/contabilidad/internal/database"
)

const testDBPath = "test_auth.db"

// recordingMailer captures outbound reset mails instead of sending them.
type recordingMailer struct {
	sent []string // reset URLs, in order
	fail bool
}

func (m *recordingMailer) SendPasswordReset(to, resetURL string) error {
	if m.fail {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, resetURL)
	return nil
}

type ResetServiceTestSuite struct {
	suite.Suite
	db     *database.DB
	mailer *recordingMailer
	svc    *ResetService
}

func (s *ResetServiceTestSuite) SetupTest() {
	removeTestDB()
	db, err := database.Open(&config.Config{DatabaseType: "sqlite", DatabasePath: testDBPath})
	s.Require().NoError(err)
	s.db = db
	s.mailer = &recordingMailer{}
	s.svc = NewResetService(db, s.mailer, "http://localhost:4200")
}

func (s *ResetServiceTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
	removeTestDB()
}

func removeTestDB() {
	os.Remove(testDBPath)
	os.Remove(testDBPath + "-wal")
	os.Remove(testDBPath + "-shm")
}

func (s *ResetServiceTestSuite) registerUser(email, password string) {
	hash, err := HashPassword(password)
	s.Require().NoError(err)
	_, err = s.db.CreateUser(email, hash)
	s.Require().NoError(err)
}

// tokenFromURL pulls the token back out of the emailed link.
func tokenFromURL(resetURL string) string {
	i := strings.Index(resetURL, "token=")
	return resetURL[i+len("token="):]
}

func (s *ResetServiceTestSuite) TestRequestAndConsume() {
	s.registerUser("ana@example.com", "secreto123")

	s.Require().NoError(s.svc.RequestReset("ana@example.com"))
	s.Require().Len(s.mailer.sent, 1)
	assert.True(s.T(), strings.HasPrefix(s.mailer.sent[0], "http://localhost:4200/reset-password?token="))

	token := tokenFromURL(s.mailer.sent[0])
	s.Require().NoError(s.svc.ConsumeReset(token, "nueva-clave"))

	user, err := s.db.GetUserByEmail("ana@example.com")
	s.Require().NoError(err)
	assert.True(s.T(), CheckPassword(user.Password, "nueva-clave"))
	assert.False(s.T(), CheckPassword(user.Password, "secreto123"))

	// Second redemption of the same token must fail.
	err = s.svc.ConsumeReset(token, "otra-clave")
	assert.ErrorIs(s.T(), err, database.ErrTokenInvalid)
}

func (s *ResetServiceTestSuite) TestUnknownEmailIndistinguishable() {
	s.registerUser("ana@example.com", "secreto123")

	errKnown := s.svc.RequestReset("ana@example.com")
	errUnknown := s.svc.RequestReset("nadie@example.com")

	// Both outcomes are nil; only the mail count betrays the difference,
	// and that is invisible to an HTTP caller.
	assert.NoError(s.T(), errKnown)
	assert.NoError(s.T(), errUnknown)
	assert.Len(s.T(), s.mailer.sent, 1)
}

func (s *ResetServiceTestSuite) TestMailFailureStaysSilent() {
	s.registerUser("ana@example.com", "secreto123")
	s.mailer.fail = true

	assert.NoError(s.T(), s.svc.RequestReset("ana@example.com"))
}

func (s *ResetServiceTestSuite) TestExpiredToken() {
	s.registerUser("ana@example.com", "secreto123")

	// Freeze issuance 61 minutes in the past so the 1-hour TTL has
	// already elapsed at consumption time.
	s.svc.now = func() time.Time { return time.Now().UTC().Add(-61 * time.Minute) }
	s.Require().NoError(s.svc.RequestReset("ana@example.com"))
	s.svc.now = time.Now

	token := tokenFromURL(s.mailer.sent[0])
	err := s.svc.ConsumeReset(token, "nueva-clave")
	assert.ErrorIs(s.T(), err, database.ErrTokenInvalid)

	user, err := s.db.GetUserByEmail("ana@example.com")
	s.Require().NoError(err)
	assert.True(s.T(), CheckPassword(user.Password, "secreto123"))
}

func (s *ResetServiceTestSuite) TestShortPasswordRejectedBeforeTokenSpend() {
	s.registerUser("ana@example.com", "secreto123")
	s.Require().NoError(s.svc.RequestReset("ana@example.com"))
	token := tokenFromURL(s.mailer.sent[0])

	err := s.svc.ConsumeReset(token, "corta")
	assert.ErrorIs(s.T(), err, ErrPasswordTooShort)

	// The rejection must not have consumed the token.
	assert.NoError(s.T(), s.svc.ConsumeReset(token, "clave-valida"))
}

func (s *ResetServiceTestSuite) TestMultipleOutstandingTokens() {
	s.registerUser("ana@example.com", "secreto123")

	s.Require().NoError(s.svc.RequestReset("ana@example.com"))
	s.Require().NoError(s.svc.RequestReset("ana@example.com"))
	s.Require().Len(s.mailer.sent, 2)

	first := tokenFromURL(s.mailer.sent[0])
	second := tokenFromURL(s.mailer.sent[1])
	assert.NotEqual(s.T(), first, second)

	// Issuing a new token does not invalidate the old one.
	assert.NoError(s.T(), s.svc.ConsumeReset(first, "clave-uno1"))
	assert.NoError(s.T(), s.svc.ConsumeReset(second, "clave-dos2"))
}

func TestResetServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ResetServiceTestSuite))
}
