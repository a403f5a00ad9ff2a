package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/contabilidad-io/contabilidad/internal/auth"
	"github.com/contabilidad-io/contabilidad/internal/config"
	"github.com/contabilidad-io/contabilidad/internal/database"
)

const testDBPath = "test_api.db"

// recordingMailer captures reset links so tests can redeem the token.
type recordingMailer struct {
	sent []string
	fail bool
}

func (m *recordingMailer) SendPasswordReset(to, resetURL string) error {
	if m.fail {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, resetURL)
	return nil
}

type ApiTestSuite struct {
	suite.Suite
	api    *Api
	db     *database.DB
	mailer *recordingMailer
}

func (s *ApiTestSuite) SetupTest() {
	removeTestDB()
	cfg := config.Config{
		APIPort:      0,
		DatabaseType: "sqlite",
		DatabasePath: testDBPath,
		JWTSecret:    "test-secret",
		FrontendURL:  "http://localhost:4200",
	}

	db, err := database.Open(&cfg)
	s.Require().NoError(err)
	s.db = db
	s.mailer = &recordingMailer{}

	tm := auth.NewTokenManager(cfg.JWTSecret)
	rs := auth.NewResetService(db, s.mailer, cfg.FrontendURL)

	s.api, err = NewApi(cfg, db, tm, rs, nil)
	s.Require().NoError(err)
}

func (s *ApiTestSuite) TearDownTest() {
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

func (s *ApiTestSuite) request(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.api.Router.ServeHTTP(rec, req)
	return rec
}

func (s *ApiTestSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// registerAndLogin creates an account and returns a bearer token.
func (s *ApiTestSuite) registerAndLogin(email string) string {
	rec := s.request(http.MethodPost, "/auth/register", "",
		map[string]string{"email": email, "password": "secreto123"})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.request(http.MethodPost, "/auth/login", "",
		map[string]string{"email": email, "password": "secreto123"})
	s.Require().Equal(http.StatusOK, rec.Code)

	token, ok := s.decode(rec)["token"].(string)
	s.Require().True(ok)
	return token
}

func (s *ApiTestSuite) TestHeartbeat() {
	rec := s.request(http.MethodGet, "/heartbeat", "", nil)
	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.JSONEq(s.T(), `{"status":"ok"}`, rec.Body.String())
}

func (s *ApiTestSuite) TestRegisterConflict() {
	rec := s.request(http.MethodPost, "/auth/register", "",
		map[string]string{"email": "ana@example.com", "password": "secreto123"})
	assert.Equal(s.T(), http.StatusCreated, rec.Code)
	body := s.decode(rec)
	assert.Equal(s.T(), "ana@example.com", body["email"])
	assert.NotZero(s.T(), body["id"])

	rec = s.request(http.MethodPost, "/auth/register", "",
		map[string]string{"email": "ana@example.com", "password": "secreto123"})
	assert.Equal(s.T(), http.StatusConflict, rec.Code)
}

func (s *ApiTestSuite) TestRegisterShortPassword() {
	rec := s.request(http.MethodPost, "/auth/register", "",
		map[string]string{"email": "ana@example.com", "password": "corta"})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *ApiTestSuite) TestLoginWrongPassword() {
	s.registerAndLogin("ana@example.com")

	rec := s.request(http.MethodPost, "/auth/login", "",
		map[string]string{"email": "ana@example.com", "password": "equivocada"})
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)

	rec = s.request(http.MethodPost, "/auth/login", "",
		map[string]string{"email": "nadie@example.com", "password": "secreto123"})
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
}

func (s *ApiTestSuite) TestRouteMounts() {
	// The bookkeeping surface lives at the root; only the tracker is
	// under /api.
	rec := s.request(http.MethodGet, "/facturas", "", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)

	rec = s.request(http.MethodGet, "/api/facturas", "", nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodGet, "/api/goals", "", nil)
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/goals", "", nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *ApiTestSuite) TestProtectedRoutesRequireToken() {
	rec := s.request(http.MethodGet, "/facturas", "", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)

	rec = s.request(http.MethodGet, "/facturas", "garbage-token", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
}

func (s *ApiTestSuite) TestFacturaCRUD() {
	token := s.registerAndLogin("ana@example.com")

	rec := s.request(http.MethodPost, "/facturas", token, map[string]any{
		"codigo": "F-001", "fecha": "2024-03-01", "empresa": "Acme SL",
		"cif": "b12345678", "baseImponible": 100.0, "porcentajeIVA": 21.0,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	created := s.decode(rec)
	assert.Equal(s.T(), 21.00, created["valorIVA"])
	assert.Equal(s.T(), 121.00, created["total"])
	assert.Equal(s.T(), "B12345678", created["cif"])
	id := int64(created["id"].(float64))

	rec = s.request(http.MethodGet, "/facturas", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	list := s.decode(rec)
	assert.Equal(s.T(), 1.0, list["total"])
	assert.Equal(s.T(), 121.00, list["suma"])
	assert.Len(s.T(), list["datos"], 1)

	rec = s.request(http.MethodPut, "/facturas/"+itoa(id), token, map[string]any{
		"codigo": "F-001", "fecha": "2024-03-01", "empresa": "Acme SL",
		"cif": "B12345678", "baseImponible": 200.0, "porcentajeIVA": 10.0,
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	updated := s.decode(rec)
	assert.Equal(s.T(), 220.00, updated["total"])

	rec = s.request(http.MethodDelete, "/facturas/"+itoa(id), token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/facturas/"+itoa(id), token, nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *ApiTestSuite) TestFacturaIncompleteData() {
	token := s.registerAndLogin("ana@example.com")

	rec := s.request(http.MethodPost, "/facturas", token, map[string]any{
		"codigo": "F-001", "fecha": "2024-03-01", "empresa": "Acme SL",
		// baseImponible missing
		"porcentajeIVA": 21.0,
	})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(s.T(), "Datos incompletos", s.decode(rec)["error"])

	// cif is required too.
	rec = s.request(http.MethodPost, "/facturas", token, map[string]any{
		"codigo": "F-001", "fecha": "2024-03-01", "empresa": "Acme SL",
		"baseImponible": 100.0, "porcentajeIVA": 21.0,
	})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(s.T(), "Datos incompletos", s.decode(rec)["error"])
}

func (s *ApiTestSuite) TestServicioIncompleteData() {
	token := s.registerAndLogin("ana@example.com")

	// descuento must be present, even though 0 is a valid value.
	rec := s.request(http.MethodPost, "/servicios", token, map[string]any{
		"fecha": "2024-03-01", "codigo": "S-001", "importe": 200.0,
	})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(s.T(), "Datos incompletos", s.decode(rec)["error"])

	rec = s.request(http.MethodPost, "/servicios", token, map[string]any{
		"fecha": "2024-03-01", "codigo": "S-001", "importe": 200.0, "descuento": 0.0,
	})
	assert.Equal(s.T(), http.StatusCreated, rec.Code)
}

func (s *ApiTestSuite) TestFacturaCrossTenant() {
	anaToken := s.registerAndLogin("ana@example.com")
	evaToken := s.registerAndLogin("eva@example.com")

	rec := s.request(http.MethodPost, "/facturas", anaToken, map[string]any{
		"codigo": "F-001", "fecha": "2024-03-01", "empresa": "Acme SL",
		"cif": "B12345678", "baseImponible": 100.0, "porcentajeIVA": 21.0,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	id := int64(s.decode(rec)["id"].(float64))

	rec = s.request(http.MethodGet, "/facturas/"+itoa(id), evaToken, nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodDelete, "/facturas/"+itoa(id), evaToken, nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *ApiTestSuite) TestListFilters() {
	token := s.registerAndLogin("ana@example.com")

	for _, f := range []map[string]any{
		{"codigo": "F-001", "fecha": "2024-01-10", "empresa": "Acme SL", "cif": "B1", "baseImponible": 100.0, "porcentajeIVA": 0.0},
		{"codigo": "F-002", "fecha": "2024-02-10", "empresa": "Globex Corp", "cif": "B2", "baseImponible": 200.0, "porcentajeIVA": 0.0},
		{"codigo": "F-003", "fecha": "2024-03-10", "empresa": "Acme Norte", "cif": "B3", "baseImponible": 300.0, "porcentajeIVA": 0.0},
	} {
		rec := s.request(http.MethodPost, "/facturas", token, f)
		s.Require().Equal(http.StatusCreated, rec.Code)
	}

	rec := s.request(http.MethodGet, "/facturas?desde=2024-02-01&hasta=2024-02-28", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	assert.Equal(s.T(), 1.0, body["total"])
	assert.Equal(s.T(), 200.00, body["suma"])

	rec = s.request(http.MethodGet, "/facturas?empresa=acme", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body = s.decode(rec)
	assert.Equal(s.T(), 2.0, body["total"])
	assert.Equal(s.T(), 400.00, body["suma"])

	rec = s.request(http.MethodGet, "/facturas?limit=1&offset=1", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body = s.decode(rec)
	assert.Len(s.T(), body["datos"], 1)
	assert.Equal(s.T(), 3.0, body["total"])
	assert.Equal(s.T(), 600.00, body["suma"])
}

func (s *ApiTestSuite) TestServicioCRUD() {
	token := s.registerAndLogin("ana@example.com")

	rec := s.request(http.MethodPost, "/servicios", token, map[string]any{
		"fecha": "2024-03-01", "codigo": "S-001", "importe": 200.0, "descuento": 10.0,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	created := s.decode(rec)
	assert.Equal(s.T(), 180.00, created["importeFinal"])

	rec = s.request(http.MethodGet, "/servicios", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	list := s.decode(rec)
	assert.Equal(s.T(), 1.0, list["total"])
	assert.Equal(s.T(), 180.00, list["suma"])
}

func (s *ApiTestSuite) TestForgotPasswordIndistinguishable() {
	s.registerAndLogin("ana@example.com")

	known := s.request(http.MethodPost, "/auth/forgot-password", "",
		map[string]string{"email": "ana@example.com"})
	unknown := s.request(http.MethodPost, "/auth/forgot-password", "",
		map[string]string{"email": "nadie@example.com"})

	assert.Equal(s.T(), http.StatusOK, known.Code)
	assert.Equal(s.T(), http.StatusOK, unknown.Code)
	assert.Equal(s.T(), known.Body.String(), unknown.Body.String())
}

func (s *ApiTestSuite) TestForgotPasswordMailFailure() {
	s.registerAndLogin("ana@example.com")

	ok := s.request(http.MethodPost, "/auth/forgot-password", "",
		map[string]string{"email": "ana@example.com"})

	s.mailer.fail = true
	failed := s.request(http.MethodPost, "/auth/forgot-password", "",
		map[string]string{"email": "ana@example.com"})

	assert.Equal(s.T(), http.StatusOK, failed.Code)
	assert.Equal(s.T(), ok.Body.String(), failed.Body.String())
}

func (s *ApiTestSuite) TestResetPasswordFlow() {
	s.registerAndLogin("ana@example.com")

	rec := s.request(http.MethodPost, "/auth/forgot-password", "",
		map[string]string{"email": "ana@example.com"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().Len(s.mailer.sent, 1)

	link := s.mailer.sent[0]
	token := link[strings.Index(link, "token=")+len("token="):]

	rec = s.request(http.MethodPost, "/auth/reset-password", "",
		map[string]string{"token": token, "newPassword": "nueva-clave"})
	s.Require().Equal(http.StatusOK, rec.Code)

	// Old credentials no longer work; new ones do.
	rec = s.request(http.MethodPost, "/auth/login", "",
		map[string]string{"email": "ana@example.com", "password": "secreto123"})
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)

	rec = s.request(http.MethodPost, "/auth/login", "",
		map[string]string{"email": "ana@example.com", "password": "nueva-clave"})
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	// The token is spent.
	rec = s.request(http.MethodPost, "/auth/reset-password", "",
		map[string]string{"token": token, "newPassword": "otra-clave"})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(s.T(), "Token inválido o expirado", s.decode(rec)["error"])
}

func (s *ApiTestSuite) TestResetPasswordFieldName() {
	s.registerAndLogin("ana@example.com")
	rec := s.request(http.MethodPost, "/auth/forgot-password", "",
		map[string]string{"email": "ana@example.com"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().Len(s.mailer.sent, 1)

	link := s.mailer.sent[0]
	token := link[strings.Index(link, "token=")+len("token="):]

	// The wire field is newPassword; anything else leaves the token
	// unspent.
	rec = s.request(http.MethodPost, "/auth/reset-password", "",
		map[string]string{"token": token, "password": "nueva-clave"})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(s.T(), "Datos incompletos", s.decode(rec)["error"])

	rec = s.request(http.MethodPost, "/auth/reset-password", "",
		map[string]string{"token": token, "newPassword": "nueva-clave"})
	assert.Equal(s.T(), http.StatusOK, rec.Code)
}

func (s *ApiTestSuite) TestResetPasswordBogusToken() {
	rec := s.request(http.MethodPost, "/auth/reset-password", "",
		map[string]string{"token": "never-issued", "newPassword": "nueva-clave"})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *ApiTestSuite) TestEmpresasEndpoints() {
	token := s.registerAndLogin("ana@example.com")

	rec := s.request(http.MethodPost, "/facturas", token, map[string]any{
		"codigo": "F-001", "fecha": "2024-03-01", "empresa": "Acme SL",
		"cif": "B12345678", "baseImponible": 100.0, "porcentajeIVA": 21.0,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.request(http.MethodGet, "/empresas?nombre=Acme+SL", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	assert.Equal(s.T(), "B12345678", s.decode(rec)["cif"])

	rec = s.request(http.MethodGet, "/empresas?nombre=Desconocida", token, nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodGet, "/empresas/search?q=Acm", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var results []map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(s.T(), results, 1)

	rec = s.request(http.MethodPost, "/empresas", token,
		map[string]string{"nombre": "Acme SL", "cif": "B99999999"})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/empresas?nombre=Acme+SL", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	assert.Equal(s.T(), "B99999999", s.decode(rec)["cif"])
}

func (s *ApiTestSuite) TestDatosPersonales() {
	token := s.registerAndLogin("ana@example.com")

	rec := s.request(http.MethodGet, "/datosPersonales", token, nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodPost, "/datosPersonales", token, map[string]string{
		"nombre": "Ana García", "nif": "12345678z", "ciudad": "Madrid",
	})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/datosPersonales", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	assert.Equal(s.T(), "12345678Z", body["nif"])
	assert.Equal(s.T(), "Madrid", body["ciudad"])

	rec = s.request(http.MethodPost, "/datosPersonales", token,
		map[string]string{"nombre": "Ana García"})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *ApiTestSuite) TestReportes() {
	token := s.registerAndLogin("ana@example.com")

	rec := s.request(http.MethodPost, "/facturas", token, map[string]any{
		"codigo": "F-001", "fecha": "2024-03-01", "empresa": "Acme SL",
		"cif": "B12345678", "baseImponible": 100.0, "porcentajeIVA": 21.0,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.request(http.MethodGet, "/reportes/facturas?desde=2024-01-01", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	assert.Equal(s.T(), 1.0, body["total"])
	assert.NotContains(s.T(), body, "suma")
}

func (s *ApiTestSuite) TestExportUnavailableWithoutStorage() {
	token := s.registerAndLogin("ana@example.com")

	rec := s.request(http.MethodPost, "/reportes/facturas/export", token, nil)
	assert.Equal(s.T(), http.StatusServiceUnavailable, rec.Code)

	rec = s.request(http.MethodPost, "/reportes/servicios/export", token, nil)
	assert.Equal(s.T(), http.StatusServiceUnavailable, rec.Code)
}

func (s *ApiTestSuite) TestTrackerEndpoints() {
	// No token anywhere in this test: the tracker is public.
	rec := s.request(http.MethodPost, "/api/goals", "",
		map[string]string{"title": "Run a marathon", "target_date": "2024-10-01"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	goalID := int64(s.decode(rec)["id"].(float64))

	rec = s.request(http.MethodPost, "/api/tasks", "",
		map[string]any{"goal_id": goalID, "title": "Buy shoes"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	taskID := int64(s.decode(rec)["id"].(float64))

	rec = s.request(http.MethodPut, "/api/tasks/"+itoa(taskID)+"/toggle", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	assert.Equal(s.T(), 1.0, s.decode(rec)["changes"])

	rec = s.request(http.MethodPost, "/api/logs", "",
		map[string]any{"goal_id": goalID, "note": "Week 1 done"})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.request(http.MethodGet, "/api/goals/"+itoa(goalID)+"/logs", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodDelete, "/api/goals/"+itoa(goalID), "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	assert.Equal(s.T(), 1.0, s.decode(rec)["changes"])
}

func TestApiTestSuite(t *testing.T) {
	suite.Run(t, new(ApiTestSuite))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
