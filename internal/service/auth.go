package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/business-directory/api/internal/auth"
	"github.com/octobees/business-directory/api/internal/dto"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService checks the configured operator credentials and issues tokens.
type AuthService struct {
	email        string
	passwordHash string
	jwt          *auth.JWTManager
}

// NewAuthService constructs a new AuthService. An empty email or hash
// disables login.
func NewAuthService(email, passwordHash string, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		email:        strings.TrimSpace(email),
		passwordHash: strings.TrimSpace(passwordHash),
		jwt:          jwtManager,
	}
}

// Login validates credentials and returns a JWT.
func (s *AuthService) Login(_ context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	if err := validateStruct(req); err != nil {
		return dto.LoginResponse{}, err
	}
	if s.email == "" || s.passwordHash == "" {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}
	if !strings.EqualFold(strings.TrimSpace(req.Email), s.email) {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(req.Password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(s.email, auth.RoleAdmin)
	if err != nil {
		return dto.LoginResponse{}, fmt.Errorf("issue token: %w", err)
	}
	return dto.LoginResponse{AccessToken: token, ExpiresIn: int64(s.jwt.TTL().Seconds())}, nil
}

// HashPassword produces the value expected in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
