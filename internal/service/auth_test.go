package service

import (
	"context"
	"errors"
	"testing"

	"github.com/octobees/business-directory/api/internal/auth"
	"github.com/octobees/business-directory/api/internal/dto"
)

func TestAuthService_Login(t *testing.T) {
	hashed, err := HashPassword("super-secret")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}

	tests := map[string]struct {
		adminEmail  string
		adminHash   string
		req         dto.LoginRequest
		expectError error
		validation  bool
	}{
		"empty credentials": {
			adminEmail: "ops@example.com",
			adminHash:  hashed,
			validation: true,
		},
		"login disabled": {
			req:         dto.LoginRequest{Email: "ops@example.com", Password: "super-secret"},
			expectError: ErrInvalidCredentials,
		},
		"wrong email": {
			adminEmail:  "ops@example.com",
			adminHash:   hashed,
			req:         dto.LoginRequest{Email: "someone@example.com", Password: "super-secret"},
			expectError: ErrInvalidCredentials,
		},
		"password mismatch": {
			adminEmail:  "ops@example.com",
			adminHash:   hashed,
			req:         dto.LoginRequest{Email: "ops@example.com", Password: "wrong"},
			expectError: ErrInvalidCredentials,
		},
		"success": {
			adminEmail: "ops@example.com",
			adminHash:  hashed,
			req:        dto.LoginRequest{Email: "OPS@example.com", Password: "super-secret"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			jwtManager := auth.NewJWTManager("test-secret", 0)
			svc := NewAuthService(tt.adminEmail, tt.adminHash, jwtManager)

			resp, err := svc.Login(context.Background(), tt.req)
			if tt.validation {
				var verr ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected error %v, got %v", tt.expectError, err)
				}
				if resp.AccessToken != "" {
					t.Fatalf("expected empty token on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			claims, err := jwtManager.ParseToken(resp.AccessToken)
			if err != nil {
				t.Fatalf("parse issued token: %v", err)
			}
			if claims.Subject != "ops@example.com" || claims.Role != auth.RoleAdmin {
				t.Fatalf("unexpected claims: %+v", claims)
			}
			if resp.ExpiresIn != 86400 {
				t.Fatalf("expected 24h expiry, got %d", resp.ExpiresIn)
			}
		})
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}
