// User and session HTTP handlers.
//
// This file exposes the account endpoints:
//   - POST /users     (register)
//   - POST /sessions  (login, returns a bearer token)
//   - GET  /me        (current user profile)
//
// Handlers are transport-thin: they validate input, call the user service,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/contactly/go-contacts-backend/internal/domain"
	"github.com/contactly/go-contacts-backend/internal/http/middleware"
	"github.com/contactly/go-contacts-backend/internal/services"
)

// UserService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type UserService interface {
	// Register creates an account with a plaintext password to be hashed.
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	// Authenticate verifies credentials and returns the user plus a JWT.
	Authenticate(ctx context.Context, email, password string) (*domain.User, string, error)
	// Profile fetches a user by ID.
	Profile(ctx context.Context, userID string) (*domain.User, error)
}

// UserHandlers groups the account endpoints.
type UserHandlers struct {
	userSvc UserService
}

// NewUserHandlers constructs UserHandlers bound to the given service.
func NewUserHandlers(userSvc UserService) *UserHandlers {
	return &UserHandlers{userSvc: userSvc}
}

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255" example:"Maria Silva"`
	Email    string `json:"email" binding:"required" example:"maria@example.com"`
	Password string `json:"password" binding:"required" example:"s3cr3t-pass"`
}

// LoginRequest is the JSON payload for opening a session.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"maria@example.com"`
	Password string `json:"password" binding:"required" example:"s3cr3t-pass"`
}

// SessionResponse carries the issued token and the authenticated user.
type SessionResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register godoc
// @ID          registerUser
// @Summary     Register a new user
// @Description Creates an account. Emails are unique; passwords need at least 6 characters.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [post]
func (h *UserHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	email := strings.TrimSpace(req.Email)
	if !services.IsValidEmail(email) {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "invalid email")
		return
	}

	user, err := h.userSvc.Register(c.Request.Context(), strings.TrimSpace(req.Name), email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		case errors.Is(err, services.ErrWeakPassword):
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, user)
}

// Login godoc
// @ID          loginUser
// @Summary     Open a session
// @Description Verifies credentials and returns a bearer token valid for 7 days.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sessions [post]
func (h *UserHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	user, token, err := h.userSvc.Authenticate(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, SessionResponse{Token: token, User: user})
}

// Me godoc
// @ID          currentUser
// @Summary     Current user profile
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /me [get]
func (h *UserHandlers) Me(c *gin.Context) {
	uid, okAuth := middleware.UserIDFrom(c)
	if !okAuth {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authorization required")
		return
	}
	user, err := h.userSvc.Profile(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, user)
}
