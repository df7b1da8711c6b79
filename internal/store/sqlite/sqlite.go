package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vellum-social/vellum-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function instead
// of the default schema. Useful for tests.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, profile_pic, bio, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, profile_pic, bio, created_at
		FROM users
		WHERE username = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.ProfilePic,
		&user.Bio,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// GetProfile retrieves the public profile fields of a user.
func (s *SQLiteStore) GetProfile(ctx context.Context, id int64) (*store.Profile, error) {
	query := `
		SELECT id, username, profile_pic
		FROM users
		WHERE id = ?
	`
	var p store.Profile
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Username, &p.ProfilePic)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile updates bio and/or profile picture. Nil fields are unchanged.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, id int64, bio, profilePic *string) error {
	query := `
		UPDATE users
		SET bio = COALESCE(?, bio), profile_pic = COALESCE(?, profile_pic)
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, bio, profilePic, id)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user: %w", store.ErrNotFound)
	}
	return nil
}

// ==== ConversationStore implementation ====

// FindOrCreate returns the conversation for the unordered pair, creating it
// with the seed summary when absent. The UNIQUE constraint on pair_key makes
// the check-then-create race-free: the loser of a concurrent insert adopts
// the winner's row on the follow-up select.
func (s *SQLiteStore) FindOrCreate(ctx context.Context, userA, userB int64, seed store.LastMessage) (*store.Conversation, error) {
	if userA > userB {
		userA, userB = userB, userA
	}
	pairKey := store.PairKey(userA, userB)

	insert := `
		INSERT INTO conversations (pair_key, user_a, user_b, last_message_text, last_message_sender)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pair_key) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, insert, pairKey, userA, userB, seed.Text, seed.SenderID); err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	conv, err := s.getByPairKey(ctx, pairKey)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return conv, nil
}

// GetByParticipants retrieves the conversation for the pair.
func (s *SQLiteStore) GetByParticipants(ctx context.Context, userA, userB int64) (*store.Conversation, error) {
	return s.getByPairKey(ctx, store.PairKey(userA, userB))
}

func (s *SQLiteStore) getByPairKey(ctx context.Context, pairKey string) (*store.Conversation, error) {
	query := `
		SELECT id, user_a, user_b, last_message_text, last_message_sender, created_at, updated_at
		FROM conversations
		WHERE pair_key = ?
	`
	var conv store.Conversation
	err := s.db.QueryRowContext(ctx, query, pairKey).Scan(
		&conv.ID,
		&conv.UserA,
		&conv.UserB,
		&conv.LastMessage.Text,
		&conv.LastMessage.SenderID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	return &conv, nil
}

// UpdateSummary unconditionally overwrites the last-message summary.
func (s *SQLiteStore) UpdateSummary(ctx context.Context, conversationID int64, last store.LastMessage) error {
	query := `
		UPDATE conversations
		SET last_message_text = ?, last_message_sender = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, last.Text, last.SenderID, conversationID)
	if err != nil {
		return fmt.Errorf("update summary: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("conversation: %w", store.ErrNotFound)
	}
	return nil
}

// ListForUser returns the user's conversations decorated with the
// counterpart's public profile, newest activity first.
func (s *SQLiteStore) ListForUser(ctx context.Context, userID int64) ([]*store.ConversationSummary, error) {
	query := `
		SELECT c.id, c.last_message_text, c.last_message_sender, c.updated_at,
		       u.id, u.username, u.profile_pic
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.user_a = ? THEN c.user_b ELSE c.user_a END
		WHERE c.user_a = ? OR c.user_b = ?
		ORDER BY c.updated_at DESC, c.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var summaries []*store.ConversationSummary
	for rows.Next() {
		var sum store.ConversationSummary
		if err := rows.Scan(
			&sum.ID,
			&sum.LastMessage.Text,
			&sum.LastMessage.SenderID,
			&sum.UpdatedAt,
			&sum.Counterpart.ID,
			&sum.Counterpart.Username,
			&sum.Counterpart.ProfilePic,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		summaries = append(summaries, &sum)
	}

	return summaries, rows.Err()
}

// ==== MessageStore implementation ====

// AppendMessage assigns ID and CreatedAt and persists the message.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	msg.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO messages (conversation_id, sender_id, text, attachment_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.ConversationID, msg.SenderID, msg.Text, msg.AttachmentURL, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = id
	return nil
}

// ListByConversation returns all messages of a conversation ascending by
// creation time, ties broken by insertion order.
func (s *SQLiteStore) ListByConversation(ctx context.Context, conversationID int64) ([]*store.Message, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM conversations WHERE id = ?`, conversationID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	query := `
		SELECT id, conversation_id, sender_id, text, attachment_url, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Text, &msg.AttachmentURL, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
