package trivia

import "sync"

// SessionManager tracks at most one in-flight quiz attempt per player.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Start registers the session, or returns ErrAlreadyPlaying when one is
// already open for the player.
func (m *SessionManager) Start(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, open := m.sessions[s.PlayerName]; open {
		return ErrAlreadyPlaying
	}
	m.sessions[s.PlayerName] = s
	return nil
}

// End removes the player's session. Safe to call when absent.
func (m *SessionManager) End(playerName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, playerName)
}

// Get returns the open session for a player, if any.
func (m *SessionManager) Get(playerName string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[playerName]
	return s, ok
}

// Len reports how many sessions are open.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
