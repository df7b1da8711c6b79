package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vellum-social/vellum-server/internal/attach"
	"github.com/vellum-social/vellum-server/internal/store"
)

// UserHandlers provides HTTP handlers for profile operations.
type UserHandlers struct {
	store              store.UserStore
	resolver           attach.Resolver
	maxAttachmentBytes int64
	log                *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, resolver attach.Resolver, maxAttachmentBytes int64, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store:              st,
		resolver:           resolver,
		maxAttachmentBytes: maxAttachmentBytes,
		log:                logger,
	}
}

// GetProfile returns the public profile of a user.
// GET /api/users/:id
func (h *UserHandlers) GetProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", id).Msg("failed to get profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		ID:         profile.ID,
		Username:   profile.Username,
		ProfilePic: profile.ProfilePic,
	})
}

// UpdateProfile updates the caller's bio and/or profile picture. The picture
// goes through the same attachment resolver as message uploads.
// POST /api/users/profile
func (h *UserHandlers) UpdateProfile(c *gin.Context) {
	uid, ok := authedUserID(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var bio *string
	if v, exists := c.GetPostForm("bio"); exists {
		bio = &v
	}

	var profilePic *string
	file, header, err := c.Request.FormFile("profile_pic")
	switch {
	case err == nil:
		defer file.Close()
		if h.maxAttachmentBytes > 0 && header.Size > h.maxAttachmentBytes {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "profile picture too large"})
			return
		}
		data, readErr := io.ReadAll(io.LimitReader(file, h.maxAttachmentBytes+1))
		if readErr != nil {
			h.log.Error().Err(readErr).Msg("failed to read profile picture")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid profile picture"})
			return
		}
		url, storeErr := h.resolver.Store(c.Request.Context(), data, header.Header.Get("Content-Type"))
		if storeErr != nil {
			h.log.Error().Err(storeErr).Int64("user_id", uid).Msg("profile picture upload failed")
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "profile picture upload failed"})
			return
		}
		profilePic = &url
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// bio-only update
	default:
		h.log.Debug().Err(err).Msg("invalid profile_pic form field")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid profile picture"})
		return
	}

	if bio == nil && profilePic == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "nothing to update"})
		return
	}

	if err := h.store.UpdateProfile(c.Request.Context(), uid, bio, profilePic); err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to reload profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		ID:         profile.ID,
		Username:   profile.Username,
		ProfilePic: profile.ProfilePic,
	})
}
