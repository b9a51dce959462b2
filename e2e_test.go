package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/FACorreiaa/go-devfolio-api/config"
	"github.com/FACorreiaa/go-devfolio-api/internal/api/auth"
	"github.com/FACorreiaa/go-devfolio-api/internal/api/seed"
	apiRouter "github.com/FACorreiaa/go-devfolio-api/internal/router"
	"github.com/FACorreiaa/go-devfolio-api/internal/types"
)

// E2ETestSuite runs the complete request path over the in-memory store:
// router, middleware, handlers, service, token verification and the
// seeded demo identities.
type E2ETestSuite struct {
	suite.Suite
	server  *httptest.Server
	client  *http.Client
	baseURL string
	logger  *slog.Logger
	tokens  *auth.TokenService
}

func (suite *E2ETestSuite) SetupSuite() {
	suite.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store := auth.NewMemoryStore(suite.logger)
	require.NoError(suite.T(), seed.Run(context.Background(), store, suite.logger))

	suite.tokens = auth.NewTokenService(config.AuthConfig{
		SecretKey: "e2e-test-secret",
		Issuer:    "devfolio-api",
		TokenTTL:  2 * time.Hour,
	})
	service := auth.NewAuthService(store, suite.tokens, suite.logger)
	handler := auth.NewAuthHandlerImpl(service, suite.logger)

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Mount("/", apiRouter.SetupRouter(&apiRouter.Config{
		AuthHandler:            handler,
		AuthenticateMiddleware: auth.Authenticate(suite.logger, suite.tokens),
	}))

	suite.server = httptest.NewServer(mux)
	suite.baseURL = suite.server.URL
	suite.client = &http.Client{Timeout: 30 * time.Second}
}

func (suite *E2ETestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
}

func (suite *E2ETestSuite) postJSON(path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	require.NoError(suite.T(), err)
	resp, err := suite.client.Post(suite.baseURL+path, "application/json", bytes.NewReader(payload))
	require.NoError(suite.T(), err)
	return resp
}

func (suite *E2ETestSuite) getMe(token string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, suite.baseURL+"/api/me", nil)
	require.NoError(suite.T(), err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := suite.client.Do(req)
	require.NoError(suite.T(), err)
	return resp
}

func (suite *E2ETestSuite) login(email, password string) string {
	resp := suite.postJSON("/api/login", types.LoginRequest{Email: email, Password: password})
	defer resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var body types.LoginResponse
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(suite.T(), body.Token)
	return body.Token
}

func (suite *E2ETestSuite) TestLoginThenMeReturnsSeededDocument() {
	token := suite.login("alice@example.com", "password123")

	resp := suite.getMe(token)
	defer resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var doc types.ProfileDocument
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&doc))

	assert.Equal(suite.T(), "Alice Example", doc.Profile.Name)
	assert.Equal(suite.T(), "Frontend Developer", doc.Profile.Title)
	assert.Equal(suite.T(), "Wonderland", doc.Profile.Location)
	assert.Equal(suite.T(), "alice@example.com", doc.Contact.Email)
	require.Len(suite.T(), doc.Skills, 2)
	assert.Equal(suite.T(), "Frontend", doc.Skills[0].Category)
	assert.Equal(suite.T(), []string{"React", "Next.js", "TypeScript"}, doc.Skills[0].Items)
	require.Len(suite.T(), doc.Experience, 1)
	assert.Equal(suite.T(), "Wonderland Inc.", doc.Experience[0].Company)
	assert.Len(suite.T(), doc.Experience[0].Highlights, 2)
	require.Len(suite.T(), doc.Projects, 1)
	assert.Equal(suite.T(), "Rabbit Hole", doc.Projects[0].Name)
}

func (suite *E2ETestSuite) TestSignupThenMeReturnsSubmittedProfile() {
	email := fmt.Sprintf("e2e+%d@example.com", time.Now().UnixNano())
	resp := suite.postJSON("/api/signup", types.SignupRequest{
		Email:    email,
		Password: "hunter22",
		Profile: types.Profile{
			Name:  "Erin Endtoend",
			Title: "Backend Engineer",
			Bio:   "Writes services.",
		},
	})
	defer resp.Body.Close()
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	var body types.SignupResponse
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(suite.T(), body.Token)

	meResp := suite.getMe(body.Token)
	defer meResp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, meResp.StatusCode)

	var doc types.ProfileDocument
	require.NoError(suite.T(), json.NewDecoder(meResp.Body).Decode(&doc))
	assert.Equal(suite.T(), "Erin Endtoend", doc.Profile.Name)
	assert.Equal(suite.T(), "Backend Engineer", doc.Profile.Title)
	assert.Equal(suite.T(), email, doc.Contact.Email)
	// Omitted sections are filled with starter entries, never null.
	assert.NotEmpty(suite.T(), doc.Skills)
	assert.NotEmpty(suite.T(), doc.Experience)
	assert.NotEmpty(suite.T(), doc.Projects)
}

func (suite *E2ETestSuite) TestLoginWrongPassword() {
	resp := suite.postJSON("/api/login", types.LoginRequest{Email: "alice@example.com", Password: "not-the-password"})
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (suite *E2ETestSuite) TestLoginUnknownEmail() {
	resp := suite.postJSON("/api/login", types.LoginRequest{Email: "mallory@example.com", Password: "password123"})
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (suite *E2ETestSuite) TestLoginMissingFields() {
	resp := suite.postJSON("/api/login", map[string]string{"email": "alice@example.com"})
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
}

func (suite *E2ETestSuite) TestSignupDuplicateEmail() {
	resp := suite.postJSON("/api/signup", types.SignupRequest{
		Email:    "bob@example.com",
		Password: "whatever1",
		Profile:  types.Profile{Name: "Bob Again", Title: "Dev", Bio: "Bio."},
	})
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
}

func (suite *E2ETestSuite) TestMeWithoutToken() {
	resp := suite.getMe("")
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (suite *E2ETestSuite) TestMeWithForgedToken() {
	forged := auth.NewTokenService(config.AuthConfig{
		SecretKey: "some-other-secret",
		Issuer:    "devfolio-api",
		TokenTTL:  2 * time.Hour,
	})
	forgedToken, err := forged.Issue(uuid.New(), "alice@example.com")
	require.NoError(suite.T(), err)

	resp := suite.getMe(forgedToken)
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (suite *E2ETestSuite) TestMeWithGarbageToken() {
	resp := suite.getMe("not.a.jwt")
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (suite *E2ETestSuite) TestMethodNotAllowed() {
	resp, err := suite.client.Get(suite.baseURL + "/api/login")
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusMethodNotAllowed, resp.StatusCode)
}

func (suite *E2ETestSuite) TestPing() {
	resp, err := suite.client.Get(suite.baseURL + "/ping")
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "pong", string(body))
}

func TestE2E(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
