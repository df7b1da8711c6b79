package store

import "testing"

func TestPairKey_OrderIndependent(t *testing.T) {
	if PairKey(3, 7) != PairKey(7, 3) {
		t.Fatalf("pair key depends on argument order")
	}
	if got := PairKey(7, 3); got != "dm:3:7" {
		t.Fatalf("unexpected pair key: %q", got)
	}
	if PairKey(1, 2) == PairKey(1, 3) {
		t.Fatalf("distinct pairs share a key")
	}
}

func TestConversation_Other(t *testing.T) {
	conv := &Conversation{UserA: 3, UserB: 7}

	if got := conv.Other(3); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := conv.Other(7); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if !conv.HasParticipant(3) || !conv.HasParticipant(7) {
		t.Fatalf("participants not recognized")
	}
	if conv.HasParticipant(5) {
		t.Fatalf("non-participant recognized")
	}
}
