package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vellum-social/vellum-server/internal/attach"
	"github.com/vellum-social/vellum-server/internal/auth"
	"github.com/vellum-social/vellum-server/internal/chat"
	"github.com/vellum-social/vellum-server/internal/config"
	"github.com/vellum-social/vellum-server/internal/presence"
	"github.com/vellum-social/vellum-server/internal/store"
)

// NewServer builds the HTTP server with all routes wired.
func NewServer(
	chatService *chat.Service,
	authService *auth.Service,
	st store.Store,
	registry *presence.Registry,
	resolver attach.Resolver,
	cfg *config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	apiHandlers := NewAPIHandlers(authService, logger)
	messageHandlers := NewMessageHandlers(chatService, cfg.MaxAttachmentBytes, logger)
	userHandlers := NewUserHandlers(st, resolver, cfg.MaxAttachmentBytes, logger)
	wsHandler := NewWSHandler(registry, authService, logger)

	router.POST("/api/register", apiHandlers.Register)
	router.POST("/api/login", apiHandlers.Login)

	authorized := router.Group("/api")
	authorized.Use(AuthMiddleware(authService, logger))
	{
		authorized.POST("/messages", messageHandlers.SendMessage)
		authorized.GET("/messages/:otherUserID", messageHandlers.GetMessages)
		authorized.GET("/conversations", messageHandlers.ListConversations)
		authorized.GET("/users/:id", userHandlers.GetProfile)
		authorized.POST("/users/profile", userHandlers.UpdateProfile)
	}

	// Attachments are plain files; the resolver returns URLs under this prefix.
	router.Static("/uploads", cfg.UploadDir)

	router.GET("/ws", gin.WrapH(wsHandler))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
