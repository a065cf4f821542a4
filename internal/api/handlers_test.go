package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-io/vitrine/internal/auth"
	"github.com/vitrine-io/vitrine/internal/config"
	"github.com/vitrine-io/vitrine/internal/database"
	"github.com/vitrine-io/vitrine/internal/models"
	"github.com/vitrine-io/vitrine/internal/store"
)

type sentMail struct {
	to, name, code string
}

type fakeMailer struct {
	sends []sentMail
}

func (m *fakeMailer) SendWelcomeEmail(to, name, code string) error {
	m.sends = append(m.sends, sentMail{to, name, code})
	return nil
}

func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.sends, "no mail was dispatched")
	return m.sends[len(m.sends)-1].code
}

func setupTestAPI(t *testing.T) (*Api, *fakeMailer) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, database.RunMigrations(db, "sqlite"))

	st := store.New(db, "sqlite")
	tokens := auth.NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	mailer := &fakeMailer{}
	svc := auth.NewService(st, tokens, mailer)

	cfg := config.Config{APIPort: 8081}
	api, err := NewApi(cfg, st, svc, tokens, nil)
	require.NoError(t, err)

	return api, mailer
}

func doJSON(t *testing.T, api *Api, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	api.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func signupAndVerify(t *testing.T, api *Api, mailer *fakeMailer, name, email, password string) {
	t.Helper()

	rec := doJSON(t, api, http.MethodPost, "/auth/signup", signupRequest{Name: name, Email: email, Password: password}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, api, http.MethodPost, "/auth/verify-email", map[string]string{"code": mailer.lastCode(t)}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func login(t *testing.T, api *Api, email, password string) auth.AuthResponse {
	t.Helper()
	rec := doJSON(t, api, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[auth.AuthResponse](t, rec)
}

func TestNewApiRequiresPort(t *testing.T) {
	_, err := NewApi(config.Config{}, nil, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Must have at least a port to start API")
}

func TestHeartbeat(t *testing.T) {
	api, _ := setupTestAPI(t)
	rec := doJSON(t, api, http.MethodGet, "/heartbeat", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignupHandler(t *testing.T) {
	api, mailer := setupTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/auth/signup", signupRequest{Name: "Ana", Email: "ana@x.com", Password: "pw12345678"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[map[string]string](t, rec)
	assert.Contains(t, body["message"], "check your email")
	assert.Len(t, mailer.sends, 1)

	t.Run("DuplicateEmail", func(t *testing.T) {
		rec := doJSON(t, api, http.MethodPost, "/auth/signup", signupRequest{Name: "Ana", Email: "ana@x.com", Password: "pw12345678"}, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		rec := doJSON(t, api, http.MethodPost, "/auth/signup", signupRequest{Name: "Ana", Email: "not-an-email", Password: "pw12345678"}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		rec := doJSON(t, api, http.MethodPost, "/auth/signup", signupRequest{Name: "Ana", Email: "ana2@x.com", Password: "short"}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	api, mailer := setupTestAPI(t)
	signupAndVerify(t, api, mailer, "Ana", "ana@x.com", "pw12345678")

	resp := login(t, api, "ana@x.com", "pw12345678")
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 900, resp.ExpiresIn)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	t.Run("WrongPassword", func(t *testing.T) {
		rec := doJSON(t, api, http.MethodPost, "/auth/login", credentials{Email: "ana@x.com", Password: "nope"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		rec := doJSON(t, api, http.MethodPost, "/auth/login", credentials{Email: "ghost@x.com", Password: "pw12345678"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		// Same generic body as a wrong password.
		body := decode[map[string]string](t, rec)
		assert.Equal(t, "invalid credentials", body["error"])
	})
}

func TestLoginUnverifiedAccount(t *testing.T) {
	api, _ := setupTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/auth/signup", signupRequest{Name: "Ana", Email: "ana@x.com", Password: "pw12345678"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/auth/login", credentials{Email: "ana@x.com", Password: "pw12345678"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "invalid credentials", body["error"])
}

func TestVerifyEmailHandler(t *testing.T) {
	api, mailer := setupTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/auth/signup", signupRequest{Name: "Ana", Email: "ana@x.com", Password: "pw12345678"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	code := mailer.lastCode(t)

	rec = doJSON(t, api, http.MethodPost, "/auth/verify-email", map[string]string{"code": code}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	t.Run("ConsumedCode", func(t *testing.T) {
		rec := doJSON(t, api, http.MethodPost, "/auth/verify-email", map[string]string{"code": code}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MissingCode", func(t *testing.T) {
		rec := doJSON(t, api, http.MethodPost, "/auth/verify-email", map[string]string{}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestResendVerificationHandler(t *testing.T) {
	api, mailer := setupTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/auth/resend-verification", map[string]string{"email": "ghost@x.com"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/auth/signup", signupRequest{Name: "Ana", Email: "ana@x.com", Password: "pw12345678"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/auth/resend-verification", map[string]string{"email": "ana@x.com"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, mailer.sends, 2)

	rec = doJSON(t, api, http.MethodPost, "/auth/verify-email", map[string]string{"code": mailer.lastCode(t)}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/auth/resend-verification", map[string]string{"email": "ana@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshAndLogoutHandlers(t *testing.T) {
	api, mailer := setupTestAPI(t)
	signupAndVerify(t, api, mailer, "Ana", "ana@x.com", "pw12345678")
	resp := login(t, api, "ana@x.com", "pw12345678")

	rec := doJSON(t, api, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: resp.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pair := decode[auth.TokenPair](t, rec)
	assert.NotEqual(t, resp.RefreshToken, pair.RefreshToken)

	// The rotated-out token is rejected.
	rec = doJSON(t, api, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: resp.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/auth/logout", refreshRequest{RefreshToken: pair.RefreshToken}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: pair.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutAllHandler(t *testing.T) {
	api, mailer := setupTestAPI(t)
	signupAndVerify(t, api, mailer, "Ana", "ana@x.com", "pw12345678")
	resp := login(t, api, "ana@x.com", "pw12345678")

	rec := doJSON(t, api, http.MethodPost, "/auth/logout-all", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/auth/logout-all", nil, resp.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, api, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: resp.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateHandler(t *testing.T) {
	api, mailer := setupTestAPI(t)
	signupAndVerify(t, api, mailer, "Ana", "ana@x.com", "pw12345678")
	resp := login(t, api, "ana@x.com", "pw12345678")

	rec := doJSON(t, api, http.MethodGet, "/auth/validate", nil, resp.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["valid"])

	rec = doJSON(t, api, http.MethodGet, "/auth/validate", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, api, http.MethodGet, "/auth/validate", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileHandler(t *testing.T) {
	api, mailer := setupTestAPI(t)
	signupAndVerify(t, api, mailer, "Ana", "ana@x.com", "pw12345678")
	resp := login(t, api, "ana@x.com", "pw12345678")

	rec := doJSON(t, api, http.MethodGet, "/users/me", nil, resp.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[models.PublicUser](t, rec)
	assert.Equal(t, "ana@x.com", user.Email)
	assert.Equal(t, "Ana", user.Name)

	rec = doJSON(t, api, http.MethodGet, "/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductHandlers(t *testing.T) {
	api, _ := setupTestAPI(t)

	cat, err := api.Store.CreateCategory("Shoes", "shoes")
	require.NoError(t, err)
	product, err := api.Store.CreateProduct("Runner", "runner", "a running shoe", cat.ID)
	require.NoError(t, err)
	_, err = api.Store.CreateVariant(product.ID, models.ProductVariant{
		Name: "Runner Red", Slug: "runner-red", Color: "red", PriceInCents: 12900, ImageKey: "images/runner-red.jpg",
	})
	require.NoError(t, err)

	rec := doJSON(t, api, http.MethodGet, "/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	products := decode[[]models.Product](t, rec)
	require.Len(t, products, 1)
	require.Len(t, products[0].Variants, 1)
	// No image store configured: the key passes through.
	assert.Equal(t, "images/runner-red.jpg", products[0].Variants[0].ImageURL)

	rec = doJSON(t, api, http.MethodGet, "/products/runner", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Product](t, rec)
	assert.Equal(t, product.ID, got.ID)

	rec = doJSON(t, api, http.MethodGet, "/products/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
