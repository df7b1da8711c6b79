package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vellum-social/vellum-server/internal/attach"
	"github.com/vellum-social/vellum-server/internal/auth"
	"github.com/vellum-social/vellum-server/internal/chat"
	"github.com/vellum-social/vellum-server/internal/config"
	"github.com/vellum-social/vellum-server/internal/presence"
	"github.com/vellum-social/vellum-server/internal/store"
	"github.com/vellum-social/vellum-server/internal/store/sqlite"
)

// testDeps exposes the wired internals so tests can reach behind the HTTP
// surface when needed.
type testDeps struct {
	store    store.Store
	auth     *auth.Service
	registry *presence.Registry
}

// startTestServer wires the full stack against an in-memory database and a
// temp upload dir, and serves it via httptest.
func startTestServer(t *testing.T) (*httptest.Server, *testDeps) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	cfg := config.Default()
	cfg.UploadDir = t.TempDir()
	cfg.PublicBaseURL = "http://test.local"

	resolver, err := attach.NewDiskResolver(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxAttachmentBytes)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}

	registry := presence.NewRegistry()
	logger := zerolog.Nop()
	chatService := chat.NewService(st, registry, resolver, &logger)

	server := NewServer(chatService, authService, st, registry, resolver, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, &testDeps{store: st, auth: authService, registry: registry}
}

// registerUser creates a user through the auth service and returns its token
// and database id.
func registerUser(t *testing.T, deps *testDeps, username string) (string, int64) {
	t.Helper()

	token, err := deps.auth.Register(context.Background(), username, "secret123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	user, err := deps.store.GetUserByUsername(context.Background(), username)
	if err != nil {
		t.Fatalf("failed to look up %s: %v", username, err)
	}
	return token, user.ID
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return bytes.NewReader(data)
}
