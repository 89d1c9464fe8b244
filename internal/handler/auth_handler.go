package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/service"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login requests.
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	req.Email = strings.TrimSpace(req.Email)

	resp, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return fail(c, err, "unable to authenticate")
	}
	return Success(c, http.StatusOK, "login successful", resp)
}
