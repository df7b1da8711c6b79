package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vellum-social/vellum-server/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "vellum-server",
		Audience: "vellum-client",
		TTL:      time.Hour,
	}
	return NewService(st, cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Username != "alice" || claims.UserID == 0 {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	loginToken, err := svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	loginClaims, err := svc.ValidateToken(loginToken)
	if err != nil {
		t.Fatalf("ValidateToken on login token failed: %v", err)
	}
	if loginClaims.UserID != claims.UserID {
		t.Fatalf("login token carries a different user id")
	}
}

func TestRegister_UsernameTrimmedAndDeduplicated(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "  alice  ", "secret123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := svc.Register(ctx, "alice", "othersecret")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"short username", "ab", "secret123", ErrInvalidUsername},
		{"long username", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "secret123", ErrInvalidUsername},
		{"whitespace only username", "   ", "secret123", ErrInvalidUsername},
		{"short password", "alice", "12345", ErrInvalidPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrongpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Register(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	other := &JWTConfig{
		Secret:   []byte("different-secret"),
		Issuer:   "vellum-server",
		Audience: "vellum-client",
		TTL:      time.Hour,
	}
	if _, err := ValidateToken(other, token); err == nil {
		t.Fatalf("expected validation to fail with a different secret")
	}
}
