package transport

import (
	"errors"
	"net/http"

	"pamazon/internal/domain"
	"pamazon/internal/middleware"
	"pamazon/internal/repository"
	"pamazon/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SignUpRequest represents the signup form payload
type SignUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Name            string `json:"name" validate:"required,max=255"`
	Contact         string `json:"contact" validate:"required,max=100"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token to mint a new access token from
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest closes either one session or, with allSessions, every
// session of the caller
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required_without=AllSessions"`
	AllSessions  bool   `json:"allSessions"`
}

// LogoutResponse reports how many sessions an allSessions logout closed
type LogoutResponse struct {
	Message string `json:"message"`
	Closed  int64  `json:"closed"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         UserProfile `json:"user"`
}

// RefreshResponse represents the token refresh response
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// UserProfile is the public view of an account
type UserProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	IsAdmin bool   `json:"isAdmin"`
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService service.UserService
	adminPolicy service.AdminPolicy
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, adminPolicy service.AdminPolicy, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		adminPolicy: adminPolicy,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes. limiter guards the
// credential endpoints and may be nil.
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware, limiter func(http.Handler) http.Handler) {
	r.Route("/api/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter)
			}
			r.Post("/signup", h.SignUp)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})
}

// SignUp handles account creation
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	user, err := h.userService.SignUp(r.Context(), service.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Name:            req.Name,
		Contact:         req.Contact,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserAlreadyExists):
			middleware.RespondWithError(w, http.StatusConflict, "user with this email already exists")
		case errors.Is(err, service.ErrPasswordMismatch):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Signup failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to sign up")
		}
		return
	}

	h.logger.Info("User signed up", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, h.profile(user))
}

// Login handles user authentication
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	session, err := h.userService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login rejected", zap.Error(err))
			middleware.RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	h.logger.Info("User logged in", zap.String("user_id", session.User.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         h.profile(session.User),
	})
}

// Logout closes the caller's session, or all of them
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	var req LogoutRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if req.AllSessions {
		closed, err := h.userService.SignOutEverywhere(r.Context(), identity.UserID)
		if err != nil {
			h.logger.Error("Logout failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to logout")
			return
		}
		h.logger.Info("User signed out everywhere",
			zap.String("user_id", identity.UserID.String()), zap.Int64("closed", closed))
		middleware.RespondWithJSON(w, http.StatusOK, LogoutResponse{Message: "logged out of all sessions", Closed: closed})
		return
	}

	if err := h.userService.SignOut(r.Context(), identity.UserID, req.RefreshToken); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to logout")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// Refresh mints a new access token
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	accessToken, err := h.userService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, service.ErrTokenExpired):
			middleware.RespondWithError(w, http.StatusUnauthorized, "refresh token expired")
		default:
			h.logger.Error("Token refresh failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to refresh token")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

// Me returns the signed-in account, including its admin capability
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithDomainError(w, domain.ErrNotAuthenticated)
		return
	}

	user, err := h.userService.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("Failed to load current user", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get user profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.profile(user))
}

func (h *UserHandler) profile(user *domain.User) UserProfile {
	return UserProfile{
		ID:      user.ID.String(),
		Email:   user.Email,
		Name:    user.Name,
		Contact: user.Contact,
		IsAdmin: h.adminPolicy.IsAdmin(user.Email),
	}
}

// decodeRequest decodes and validates a JSON body, writing the 400 response
// itself when the payload is rejected.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err), zap.String("path", r.URL.Path))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
