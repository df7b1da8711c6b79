package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// User represents an account in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	ProfilePic   string
	Bio          string
	CreatedAt    time.Time
}

// Profile is the public subset of a user shown to other users.
type Profile struct {
	ID         int64
	Username   string
	ProfilePic string
}

// LastMessage is the denormalized summary kept on a conversation so the
// conversation list can render without scanning message history.
type LastMessage struct {
	Text     string
	SenderID int64
}

// Conversation pairs exactly two users. The pair is stored normalized
// (UserA < UserB) and deduplicated by its pair key.
type Conversation struct {
	ID          int64
	UserA       int64
	UserB       int64
	LastMessage LastMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID int64) int64 {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.UserA == userID || c.UserB == userID
}

// ConversationSummary is a conversation as seen by one of its participants:
// the counterpart's public profile instead of the raw pair.
type ConversationSummary struct {
	ID          int64
	Counterpart Profile
	LastMessage LastMessage
	UpdatedAt   time.Time
}

// Message is an immutable unit of content scoped to one conversation.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	Text           string
	AttachmentURL  string
	CreatedAt      time.Time
}

// PairKey builds the canonical dedup key for an unordered user pair,
// e.g. "dm:3:7" regardless of argument order.
func PairKey(userA, userB int64) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("dm:%d:%d", userA, userB)
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetProfile retrieves the public profile fields of a user.
	GetProfile(ctx context.Context, id int64) (*Profile, error)

	// UpdateProfile updates bio and/or profile picture. Nil fields are
	// left unchanged.
	UpdateProfile(ctx context.Context, id int64, bio, profilePic *string) error
}

// ConversationStore owns the mapping of participant pairs to conversations.
type ConversationStore interface {
	// FindOrCreate returns the conversation for the unordered pair,
	// creating it with the seed summary when absent. Concurrent calls for
	// the same pair converge on a single row.
	FindOrCreate(ctx context.Context, userA, userB int64, seed LastMessage) (*Conversation, error)

	// GetByParticipants retrieves the conversation for the pair, or
	// ErrNotFound if the two users never talked.
	GetByParticipants(ctx context.Context, userA, userB int64) (*Conversation, error)

	// UpdateSummary unconditionally overwrites the last-message summary.
	// Last writer wins.
	UpdateSummary(ctx context.Context, conversationID int64, last LastMessage) error

	// ListForUser returns the user's conversations, newest activity
	// first, each decorated with the counterpart's public profile.
	ListForUser(ctx context.Context, userID int64) ([]*ConversationSummary, error)
}

// MessageStore handles append-only message persistence.
type MessageStore interface {
	// AppendMessage assigns ID and CreatedAt and persists the message.
	AppendMessage(ctx context.Context, msg *Message) error

	// ListByConversation returns all messages ascending by creation time,
	// ties broken by insertion order. ErrNotFound when the conversation
	// does not exist.
	ListByConversation(ctx context.Context, conversationID int64) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ConversationStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
