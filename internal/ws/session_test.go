package ws

import (
	"testing"

	"github.com/comichut/supportdesk/internal/domain"
)

func TestSession_JoinState(t *testing.T) {
	s := NewSession("s1", nil)

	room, role := s.Joined()
	if room != "" || role != "" {
		t.Errorf("fresh session must not be joined: room=%q role=%q", room, role)
	}

	s.setJoined("conv-1", domain.RoleCustomer, "user-1", "Reed")
	if s.SubjectID() != "user-1" || s.DisplayName() != "Reed" {
		t.Errorf("unexpected subject/name: %q %q", s.SubjectID(), s.DisplayName())
	}

	room, role = s.clearJoined()
	if room != "conv-1" || role != domain.RoleCustomer {
		t.Errorf("clearJoined reported room=%q role=%q", room, role)
	}
	room, _ = s.Joined()
	if room != "" {
		t.Errorf("session still joined after clear: %q", room)
	}
}

func TestSession_BackpressureClosesSession(t *testing.T) {
	s := NewSession("s1", nil)

	for i := 0; i < SendQueueSize; i++ {
		if !s.TrySend([]byte("x")) {
			t.Fatalf("send %d should fit in the queue", i)
		}
	}

	// Queue full and no writer draining it: the overflow drops the session.
	if s.TrySend([]byte("overflow")) {
		t.Error("overflow send should fail")
	}

	select {
	case <-s.Done():
	default:
		t.Error("session should be closed after overflow")
	}

	if s.TrySend([]byte("after close")) {
		t.Error("closed session must not accept sends")
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s := NewSession("s1", nil)
	s.Close()
	s.Close()

	select {
	case <-s.Done():
	default:
		t.Error("done channel should be closed")
	}
}
