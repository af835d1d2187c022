package ws

import (
	"sync"

	"github.com/comichut/supportdesk/internal/domain"
)

// Registry owns room membership. A session belongs to at most one room at a
// time; the registry is pure fan-out over currently-connected sessions and
// retains no history.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]*Session),
	}
}

// Join admits the session to a room with its role and subject recorded on
// the session. Joining a second room moves the session out of the first.
func (r *Registry) Join(s *Session, room string, role domain.Role, subjectID, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(s)

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]*Session)
	}
	r.rooms[room][s.ID] = s
	s.setJoined(room, role, subjectID, displayName)
}

// Leave drops the session from its room and reports what it left so the
// caller can announce the departure.
func (r *Registry) Leave(s *Session) (room string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(s)
	return s.clearJoined()
}

func (r *Registry) removeLocked(s *Session) {
	room, _ := s.Joined()
	if room == "" {
		return
	}
	if members, ok := r.rooms[room]; ok {
		delete(members, s.ID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// Broadcast delivers the payload to every session in the room, optionally
// excluding one sender session.
func (r *Registry) Broadcast(room string, payload []byte, excludeSessionID string) {
	r.mu.RLock()
	members := make([]*Session, 0, len(r.rooms[room]))
	for _, s := range r.rooms[room] {
		if s.ID == excludeSessionID {
			continue
		}
		members = append(members, s)
	}
	r.mu.RUnlock()

	for _, s := range members {
		s.TrySend(payload)
	}
}

// Members reports how many sessions are currently in the room.
func (r *Registry) Members(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, members := range r.rooms {
		for _, s := range members {
			s.Close()
		}
	}
	r.rooms = make(map[string]map[string]*Session)
}
