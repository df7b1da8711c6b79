package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vellum-social/vellum-server/internal/attach"
	"github.com/vellum-social/vellum-server/internal/auth"
	"github.com/vellum-social/vellum-server/internal/chat"
	"github.com/vellum-social/vellum-server/internal/config"
	"github.com/vellum-social/vellum-server/internal/presence"
	"github.com/vellum-social/vellum-server/internal/store"
	"github.com/vellum-social/vellum-server/internal/store/sqlite"
	transporthttp "github.com/vellum-social/vellum-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	resolver, err := attach.NewDiskResolver(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxAttachmentBytes)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init attachment resolver: %w", err)
	}

	// The presence registry lives for the whole process; channels come and
	// go with client connections.
	registry := presence.NewRegistry()
	chatService := chat.NewService(st, registry, resolver, logger)

	server := transporthttp.NewServer(chatService, authService, st, registry, resolver, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
