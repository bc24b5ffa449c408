package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"plate-watch/internal/config"
)

func testAuthConfig(t *testing.T) config.AuthConfig {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return config.AuthConfig{
		JWTSecret:            "test-secret",
		TokenTTL:             time.Hour,
		OperatorUser:         "operator",
		OperatorPasswordHash: string(hash),
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t))

	token, err := svc.Login("operator", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("claims have type %T", parsed.Claims)
	}
	if sub, _ := claims.GetSubject(); sub != "operator" {
		t.Errorf("sub = %q, want operator", sub)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("token has no expiry: %v", err)
	}
	if remaining := time.Until(exp.Time); remaining <= 0 || remaining > time.Hour {
		t.Errorf("token expiry %v out of the configured TTL", remaining)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t))

	cases := []struct {
		name     string
		user     string
		password string
	}{
		{"wrong password", "operator", "incorrect horse"},
		{"unknown user", "admin", "correct horse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(tc.user, tc.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLoginUnconfigured(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{})

	if _, err := svc.Login("operator", "anything"); err == nil {
		t.Fatal("expected an error when no operator is configured")
	}
}
