package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-devfolio-api/internal/api"
	"github.com/FACorreiaa/go-devfolio-api/internal/types"
)

// HandlerImpl handles HTTP requests for login, signup and profile
// retrieval. It maps the service error taxonomy to status codes:
// ErrUnauthenticated -> 401, ErrConflict -> 409, ErrStoreUnavailable -> 503.
type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Login handles POST /api/login.
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Email == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "Login failed")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.LoginResponse{Token: token})
}

// Signup handles POST /api/signup.
func (h *HandlerImpl) Signup(w http.ResponseWriter, r *http.Request) {
	var req types.SignupRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Email == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}
	if req.Profile.Name == "" || req.Profile.Title == "" || req.Profile.Bio == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Name, title, and bio are required")
		return
	}

	token, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "Signup failed")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.SignupResponse{
		Token:   token,
		Message: "User created successfully",
	})
}

// Me handles GET /api/me. The Authenticate middleware has already
// verified the token and placed the user id in the context; an identity
// that cannot be resolved is a 401, never placeholder content.
func (h *HandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	doc, err := h.authService.CurrentProfile(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err, "Profile retrieval failed")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, doc)
}

func (h *HandlerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	h.logger.ErrorContext(r.Context(), logMsg, slog.Any("error", err))

	switch {
	case errors.Is(err, api.ErrUnauthenticated):
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, api.ErrConflict):
		api.ErrorResponse(w, r, http.StatusConflict, "User already exists")
	case errors.Is(err, api.ErrStoreUnavailable):
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Storage unavailable")
	default:
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
