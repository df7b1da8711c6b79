package chat

import "errors"

// Error codes exposed on the wire for domain errors.
const (
	ErrCodeSelfMessage  = "self_message"
	ErrCodeEmptyMessage = "empty_message"
	ErrCodeNotFound     = "not_found"
	ErrCodeAttachment   = "attachment_failed"
)

var (
	// ErrSelfMessage is returned when sender and recipient are the same user.
	ErrSelfMessage = errors.New("cannot send a message to yourself")
	// ErrEmptyMessage is returned when a message has neither text nor attachment.
	ErrEmptyMessage = errors.New("message requires text or an attachment")
	// ErrAttachment is returned when attachment resolution fails; the send
	// is aborted and no message is persisted.
	ErrAttachment = errors.New("attachment upload failed")
)
