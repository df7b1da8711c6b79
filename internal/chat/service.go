// Package chat implements the direct-messaging dispatcher: conversation
// resolution, durable message persistence and best-effort delivery
// notification to the recipient's live channel.
package chat

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vellum-social/vellum-server/internal/attach"
	"github.com/vellum-social/vellum-server/internal/presence"
	"github.com/vellum-social/vellum-server/internal/store"
)

// Attachment is a raw upload accompanying a message.
type Attachment struct {
	Data        []byte
	ContentType string
}

// Service orchestrates sends and serves the read path.
type Service struct {
	store       store.Store
	presence    *presence.Registry
	attachments attach.Resolver
	log         *zerolog.Logger
}

// NewService creates a new chat service.
func NewService(st store.Store, reg *presence.Registry, resolver attach.Resolver, logger *zerolog.Logger) *Service {
	return &Service{
		store:       st,
		presence:    reg,
		attachments: resolver,
		log:         logger,
	}
}

// Send runs the delivery pipeline: validate, resolve the conversation,
// resolve the attachment, append the message, refresh the conversation
// summary and notify the recipient's live channel if one exists.
//
// The summary is overwritten even on a first message whose creation already
// seeded the same values; the redundant write keeps the pipeline linear.
// Push failure never fails the send: the message is durable by then and the
// client falls back to polling history.
func (s *Service) Send(ctx context.Context, senderID, recipientID int64, text string, attachment *Attachment) (*store.Message, error) {
	if senderID == recipientID {
		return nil, ErrSelfMessage
	}
	if text == "" && attachment == nil {
		return nil, ErrEmptyMessage
	}

	conv, err := s.store.FindOrCreate(ctx, senderID, recipientID, store.LastMessage{
		Text:     text,
		SenderID: senderID,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}

	var attachmentURL string
	if attachment != nil {
		url, storeErr := s.attachments.Store(ctx, attachment.Data, attachment.ContentType)
		if storeErr != nil {
			return nil, fmt.Errorf("%w: %s", ErrAttachment, storeErr)
		}
		attachmentURL = url
	}

	msg := &store.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
		AttachmentURL:  attachmentURL,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	if err := s.store.UpdateSummary(ctx, conv.ID, store.LastMessage{Text: text, SenderID: senderID}); err != nil {
		// The message itself is durable; a stale summary only affects
		// conversation-list rendering.
		s.log.Warn().Err(err).Int64("conversation_id", conv.ID).Msg("failed to update conversation summary")
	}

	s.notify(recipientID, msg)

	return msg, nil
}

// notify pushes the message to the recipient's live channel, if any.
func (s *Service) notify(recipientID int64, msg *store.Message) {
	ch := s.presence.Lookup(recipientID)
	if ch == nil {
		return
	}
	if !ch.TrySend(presence.Event{Kind: presence.EventNewMessage, Message: msg}) {
		s.log.Debug().
			Int64("recipient_id", recipientID).
			Int64("message_id", msg.ID).
			Msg("push dropped, recipient channel closed or full")
	}
}

// History returns the full message history between userID and otherUserID,
// ascending. store.ErrNotFound when the two users never talked.
func (s *Service) History(ctx context.Context, userID, otherUserID int64) ([]*store.Message, error) {
	conv, err := s.store.GetByParticipants(ctx, userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}
	msgs, err := s.store.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// Conversations returns the user's conversation summaries, newest first.
func (s *Service) Conversations(ctx context.Context, userID int64) ([]*store.ConversationSummary, error) {
	summaries, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return summaries, nil
}
