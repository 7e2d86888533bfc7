package rest

import (
	"context"
	"errors"
	"net/http"
	"sellerLab/domain"
	"sellerLab/pkg/logger"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AuthService interface {
	Login(ctx context.Context, keyID, secret string) (string, error)
	Logout(ctx context.Context, keyID, token string) error
	CreateCredential(ctx context.Context, owner, role string) (domain.APICredential, string, error)
}

type AuthHandler struct {
	authService AuthService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{
		authService: svc,
		validator:   validator.New(),
		timeout:     10 * time.Second,
	}
}

type TokenRequest struct {
	KeyID  string `json:"key_id" validate:"required"`
	Secret string `json:"secret" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Token(c echo.Context) error {
	var req TokenRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	token, err := h.authService.Login(ctx, req.KeyID, req.Secret)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to issue token", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(TokenResponse{Token: token}))
}

// Revoke invalidates the caller's own token.
func (h *AuthHandler) Revoke(c echo.Context) error {
	keyID, ok := c.Get("key_id").(string)
	if !ok || keyID == "" {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.authService.Logout(ctx, keyID, token); err != nil {
		logger.Error("Failed to revoke token", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("token revoked"))
}

type CreateCredentialRequest struct {
	Owner string `json:"owner" validate:"required"`
	Role  string `json:"role" validate:"required,oneof=editor admin"`
}

type CredentialResponse struct {
	KeyID  string `json:"key_id"`
	Secret string `json:"secret"`
	Owner  string `json:"owner"`
	Role   string `json:"role"`
}

// CreateCredential provisions an API key pair. Admin only; the secret in the
// response is the only time it is ever shown.
func (h *AuthHandler) CreateCredential(c echo.Context) error {
	var req CreateCredentialRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	cred, secret, err := h.authService.CreateCredential(ctx, req.Owner, req.Role)
	if err != nil {
		logger.Error("Failed to create credential", err)
		if errors.Is(err, domain.ErrInvalidConfiguration) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(CredentialResponse{
		KeyID:  cred.KeyID,
		Secret: secret,
		Owner:  cred.Owner,
		Role:   cred.Role,
	}))
}
