package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vellum-social/vellum-server/internal/presence"
	"github.com/vellum-social/vellum-server/internal/store"
	"github.com/vellum-social/vellum-server/internal/store/sqlite"
)

// fakeResolver returns a canned URL or error instead of touching disk.
type fakeResolver struct {
	url string
	err error
}

func (f *fakeResolver) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type testEnv struct {
	svc      *Service
	store    *sqlite.SQLiteStore
	registry *presence.Registry
	resolver *fakeResolver
	alice    *store.User
	bob      *store.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	alice, err := st.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("failed to create alice: %v", err)
	}
	bob, err := st.CreateUser(ctx, "bob", "hash")
	if err != nil {
		t.Fatalf("failed to create bob: %v", err)
	}

	registry := presence.NewRegistry()
	resolver := &fakeResolver{url: "http://localhost:8080/uploads/test.png"}
	logger := zerolog.Nop()

	return &testEnv{
		svc:      NewService(st, registry, resolver, &logger),
		store:    st,
		registry: registry,
		resolver: resolver,
		alice:    alice,
		bob:      bob,
	}
}

func TestSend_CreatesConversationAndHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.Send(ctx, env.alice.ID, env.bob.ID, "hi", nil)
	if err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if first.ID == 0 || first.ConversationID == 0 {
		t.Fatalf("message not fully persisted: %+v", first)
	}

	// Reply from the other side lands in the same conversation.
	second, err := env.svc.Send(ctx, env.bob.ID, env.alice.ID, "hello", nil)
	if err != nil {
		t.Fatalf("reply failed: %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Fatalf("reply created a new conversation: %d vs %d", second.ConversationID, first.ConversationID)
	}

	history, err := env.svc.History(ctx, env.alice.ID, env.bob.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 || history[0].Text != "hi" || history[1].Text != "hello" {
		t.Fatalf("unexpected history: %+v", history)
	}

	summaries, err := env.svc.Conversations(ctx, env.alice.ID)
	if err != nil {
		t.Fatalf("Conversations failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one conversation, got %d", len(summaries))
	}
	sum := summaries[0]
	if sum.Counterpart.Username != "bob" {
		t.Errorf("expected counterpart bob, got %q", sum.Counterpart.Username)
	}
	if sum.LastMessage.Text != "hello" || sum.LastMessage.SenderID != env.bob.ID {
		t.Errorf("summary not refreshed: %+v", sum.LastMessage)
	}
}

func TestSend_SelfMessageRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Send(context.Background(), env.alice.ID, env.alice.ID, "hi me", nil)
	if !errors.Is(err, ErrSelfMessage) {
		t.Fatalf("expected ErrSelfMessage, got %v", err)
	}
}

func TestSend_EmptyMessageRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Send(context.Background(), env.alice.ID, env.bob.ID, "", nil)
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSend_AttachmentOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	msg, err := env.svc.Send(ctx, env.alice.ID, env.bob.ID, "", &Attachment{
		Data:        []byte{0x89, 0x50, 0x4e, 0x47},
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("attachment-only send failed: %v", err)
	}
	if msg.Text != "" {
		t.Errorf("expected empty text, got %q", msg.Text)
	}
	if msg.AttachmentURL != env.resolver.url {
		t.Errorf("expected attachment url %q, got %q", env.resolver.url, msg.AttachmentURL)
	}

	history, err := env.svc.History(ctx, env.bob.ID, env.alice.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].AttachmentURL != env.resolver.url {
		t.Fatalf("persisted message lost its attachment: %+v", history)
	}
}

func TestSend_AttachmentFailureAbortsMessage(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.err = errors.New("disk full")
	ctx := context.Background()

	_, err := env.svc.Send(ctx, env.alice.ID, env.bob.ID, "with pic", &Attachment{
		Data:        []byte("data"),
		ContentType: "image/png",
	})
	if !errors.Is(err, ErrAttachment) {
		t.Fatalf("expected ErrAttachment, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected cause in error message, got %q", err.Error())
	}

	// Conversation resolution precedes the attachment, so the conversation
	// exists but must hold no messages.
	history, err := env.svc.History(ctx, env.alice.ID, env.bob.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("message persisted despite attachment failure: %+v", history)
	}
}

func TestSend_OfflineRecipientStillDurable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Send(ctx, env.alice.ID, env.bob.ID, "while you were out", nil); err != nil {
		t.Fatalf("send to offline recipient failed: %v", err)
	}

	history, err := env.svc.History(ctx, env.bob.ID, env.alice.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].Text != "while you were out" {
		t.Fatalf("message not retrievable: %+v", history)
	}
}

func TestSend_NotifiesRegisteredChannel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ch := presence.NewChannel()
	env.registry.Register(env.bob.ID, ch)

	sent, err := env.svc.Send(ctx, env.alice.ID, env.bob.ID, "ping", nil)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case ev := <-ch.Events():
		if ev.Kind != presence.EventNewMessage {
			t.Fatalf("unexpected event kind: %v", ev.Kind)
		}
		if ev.Message.ID != sent.ID || ev.Message.Text != "ping" {
			t.Fatalf("event payload does not match persisted message: %+v", ev.Message)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event delivered to registered channel")
	}

	// Exactly one event per send.
	select {
	case ev := <-ch.Events():
		t.Fatalf("unexpected extra event: %+v", ev)
	default:
	}
}

func TestSend_SenderChannelNotNotified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ch := presence.NewChannel()
	env.registry.Register(env.alice.ID, ch)

	if _, err := env.svc.Send(ctx, env.alice.ID, env.bob.ID, "hi", nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case ev := <-ch.Events():
		t.Fatalf("sender received their own message event: %+v", ev)
	default:
	}
}

func TestHistory_NeverTalked(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.History(context.Background(), env.alice.ID, env.bob.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
