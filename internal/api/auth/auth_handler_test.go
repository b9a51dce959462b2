package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-devfolio-api/internal/api"
	"github.com/FACorreiaa/go-devfolio-api/internal/types"
)

// MockAuthService is a mock implementation of the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, req types.SignupRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) CurrentProfile(ctx context.Context, userID string) (*types.ProfileDocument, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ProfileDocument), args.Error(1)
}

func TestLoginHandler(t *testing.T) {
	mockService := new(MockAuthService)
	handler := NewAuthHandlerImpl(mockService, slog.Default())

	t.Run("Success", func(t *testing.T) {
		body, _ := json.Marshal(types.LoginRequest{Email: "alice@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		mockService.On("Login", mock.Anything, "alice@example.com", "password123").
			Return("signed-token", nil).Once()

		handler.Login(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp types.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "signed-token", resp.Token)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		body := []byte(`{"email": "alice@example.com", "password":}`)
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("UnknownField", func(t *testing.T) {
		body := []byte(`{"email": "alice@example.com", "password": "password123", "remember_me": true}`)
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		body, _ := json.Marshal(types.LoginRequest{Email: "alice@example.com"})
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		body, _ := json.Marshal(types.LoginRequest{Email: "alice@example.com", Password: "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		mockService.On("Login", mock.Anything, "alice@example.com", "wrong").
			Return("", api.ErrUnauthenticated).Once()

		handler.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("StoreUnavailable", func(t *testing.T) {
		body, _ := json.Marshal(types.LoginRequest{Email: "alice@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		mockService.On("Login", mock.Anything, "alice@example.com", "password123").
			Return("", api.ErrStoreUnavailable).Once()

		handler.Login(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestSignupHandler(t *testing.T) {
	mockService := new(MockAuthService)
	handler := NewAuthHandlerImpl(mockService, slog.Default())

	validRequest := types.SignupRequest{
		Email:    "carol@example.com",
		Password: "s3cret",
		Profile:  types.Profile{Name: "Carol Example", Title: "Platform Engineer", Bio: "Ships infrastructure."},
	}

	t.Run("Success", func(t *testing.T) {
		body, _ := json.Marshal(validRequest)
		req := httptest.NewRequest(http.MethodPost, "/api/signup", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		mockService.On("Register", mock.Anything, mock.MatchedBy(func(r types.SignupRequest) bool {
			return r.Email == "carol@example.com"
		})).Return("signed-token", nil).Once()

		handler.Signup(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp types.SignupResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "signed-token", resp.Token)
		assert.Equal(t, "User created successfully", resp.Message)

		mockService.AssertExpectations(t)
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		incomplete := validRequest
		incomplete.Password = ""
		body, _ := json.Marshal(incomplete)
		req := httptest.NewRequest(http.MethodPost, "/api/signup", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Signup(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingProfileFields", func(t *testing.T) {
		incomplete := validRequest
		incomplete.Profile.Bio = ""
		body, _ := json.Marshal(incomplete)
		req := httptest.NewRequest(http.MethodPost, "/api/signup", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		handler.Signup(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		body, _ := json.Marshal(validRequest)
		req := httptest.NewRequest(http.MethodPost, "/api/signup", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		mockService.On("Register", mock.Anything, mock.Anything).
			Return("", api.ErrConflict).Once()

		handler.Signup(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestMeHandler(t *testing.T) {
	mockService := new(MockAuthService)
	handler := NewAuthHandlerImpl(mockService, slog.Default())

	t.Run("Success", func(t *testing.T) {
		doc := &types.ProfileDocument{
			Profile: types.Profile{Name: "Alice Example", Title: "Frontend Developer"},
			Skills:  []types.SkillGroup{{Category: "Frontend", Items: []string{"React"}}},
		}
		mockService.On("CurrentProfile", mock.Anything, "user-1").Return(doc, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, "user-1"))
		w := httptest.NewRecorder()

		handler.Me(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got types.ProfileDocument
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Alice Example", got.Profile.Name)

		mockService.AssertExpectations(t)
	})

	t.Run("MissingIdentity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		w := httptest.NewRecorder()

		handler.Me(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("UnresolvableIdentity", func(t *testing.T) {
		mockService.On("CurrentProfile", mock.Anything, "ghost").
			Return(nil, api.ErrUnauthenticated).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, "ghost"))
		w := httptest.NewRecorder()

		handler.Me(w, req)

		// Never placeholder content for an authenticated endpoint.
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("StoreUnavailable", func(t *testing.T) {
		mockService.On("CurrentProfile", mock.Anything, "user-1").
			Return(nil, fmt.Errorf("%w: fetching user: connection refused", api.ErrStoreUnavailable)).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, "user-1"))
		w := httptest.NewRecorder()

		handler.Me(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		mockService.AssertExpectations(t)
	})
}
