package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vellum-social/vellum-server/internal/chat"
	"github.com/vellum-social/vellum-server/internal/store"
)

// MessageHandlers provides HTTP handlers for the messaging endpoints.
type MessageHandlers struct {
	chat               *chat.Service
	maxAttachmentBytes int64
	log                *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(chatService *chat.Service, maxAttachmentBytes int64, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		chat:               chatService,
		maxAttachmentBytes: maxAttachmentBytes,
		log:                logger,
	}
}

// SendMessageRequest represents the JSON send request body.
type SendMessageRequest struct {
	RecipientID int64  `json:"recipient_id" binding:"required"`
	Text        string `json:"text"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversation_id"`
	SenderID       int64  `json:"sender_id"`
	Text           string `json:"text"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// LastMessageResponse is the denormalized summary on a conversation.
type LastMessageResponse struct {
	Text     string `json:"text"`
	SenderID int64  `json:"sender_id"`
}

// ProfileResponse represents a public user profile.
type ProfileResponse struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

// ConversationResponse represents a conversation summary in API responses.
type ConversationResponse struct {
	ID          int64               `json:"id"`
	Counterpart ProfileResponse     `json:"counterpart"`
	LastMessage LastMessageResponse `json:"last_message"`
	UpdatedAt   string              `json:"updated_at"`
}

func messageResponse(msg *store.Message) MessageResponse {
	return MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Text:           msg.Text,
		AttachmentURL:  msg.AttachmentURL,
		CreatedAt:      msg.CreatedAt.Format("2006-01-02T15:04:05.999999999Z07:00"),
	}
}

// SendMessage handles sending a direct message, with an optional attachment
// when the request is multipart.
// POST /api/messages
func (h *MessageHandlers) SendMessage(c *gin.Context) {
	uid, ok := authedUserID(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var (
		recipientID int64
		text        string
		attachment  *chat.Attachment
	)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var err error
		recipientID, text, attachment, err = h.parseMultipartSend(c)
		if err != nil {
			return // response already written
		}
	} else {
		var req SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.log.Debug().Err(err).Msg("invalid send request")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
		recipientID = req.RecipientID
		text = req.Text
	}

	msg, err := h.chat.Send(c.Request.Context(), uid, recipientID, text, attachment)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrSelfMessage):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot send a message to yourself"})
		case errors.Is(err, chat.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message requires text or an attachment"})
		case errors.Is(err, chat.ErrAttachment):
			h.log.Error().Err(err).Int64("sender_id", uid).Msg("attachment upload failed")
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "attachment upload failed"})
		default:
			h.log.Error().Err(err).Int64("sender_id", uid).Int64("recipient_id", recipientID).Msg("failed to send message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, messageResponse(msg))
}

// parseMultipartSend extracts the send fields from a multipart form. On
// error it writes the response and returns a non-nil error.
func (h *MessageHandlers) parseMultipartSend(c *gin.Context) (int64, string, *chat.Attachment, error) {
	recipientID, err := strconv.ParseInt(c.PostForm("recipient_id"), 10, 64)
	if err != nil || recipientID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid recipient_id"})
		return 0, "", nil, errors.New("invalid recipient_id")
	}
	text := c.PostForm("text")

	file, header, err := c.Request.FormFile("attachment")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return recipientID, text, nil, nil
		}
		h.log.Debug().Err(err).Msg("invalid attachment form field")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid attachment"})
		return 0, "", nil, err
	}
	defer file.Close()

	if h.maxAttachmentBytes > 0 && header.Size > h.maxAttachmentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "attachment too large"})
		return 0, "", nil, errors.New("attachment too large")
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxAttachmentBytes+1))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read attachment")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid attachment"})
		return 0, "", nil, err
	}

	return recipientID, text, &chat.Attachment{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

// GetMessages returns the full history with another user, ascending.
// GET /api/messages/:otherUserID
func (h *MessageHandlers) GetMessages(c *gin.Context) {
	uid, ok := authedUserID(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	otherUserID, err := strconv.ParseInt(c.Param("otherUserID"), 10, 64)
	if err != nil || otherUserID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	messages, err := h.chat.History(c.Request.Context(), uid, otherUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Int64("other_user_id", otherUserID).Msg("failed to get messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, messageResponse(msg))
	}

	c.JSON(http.StatusOK, response)
}

// ListConversations returns the caller's conversation summaries, each with
// the counterpart's public profile.
// GET /api/conversations
func (h *MessageHandlers) ListConversations(c *gin.Context) {
	uid, ok := authedUserID(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	summaries, err := h.chat.Conversations(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list conversations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ConversationResponse, 0, len(summaries))
	for _, sum := range summaries {
		response = append(response, ConversationResponse{
			ID: sum.ID,
			Counterpart: ProfileResponse{
				ID:         sum.Counterpart.ID,
				Username:   sum.Counterpart.Username,
				ProfilePic: sum.Counterpart.ProfilePic,
			},
			LastMessage: LastMessageResponse{
				Text:     sum.LastMessage.Text,
				SenderID: sum.LastMessage.SenderID,
			},
			UpdatedAt: sum.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, response)
}
