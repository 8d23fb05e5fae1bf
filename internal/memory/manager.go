// Package memory keeps the per-session chat transcript and session settings
// in process memory. Nothing survives a restart.
package memory

import (
	"sync"
	"time"
)

// Roles of transcript entries
const (
	RoleUser  = "user"
	RoleBot   = "bot"
	RoleTable = "table"
)

// TableRow is one disease/treatment pair shown to the user
type TableRow struct {
	Disease   string `json:"disease"`
	Treatment string `json:"treatment"`
}

// Message represents one transcript entry. Table is set for RoleTable.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	Table     []TableRow `json:"table,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// session holds one conversation
type session struct {
	transcript []Message
	language   string
	lastActive time.Time
	mu         sync.RWMutex
}

// MemoryManager manages transcripts for all sessions
type MemoryManager struct {
	sessions       map[string]*session
	transcriptSize int
	now            func() time.Time
	mu             sync.RWMutex
}

// NewMemoryManager creates a manager keeping the last transcriptSize
// messages per session
func NewMemoryManager(transcriptSize int) *MemoryManager {
	if transcriptSize <= 0 {
		transcriptSize = 50
	}
	return &MemoryManager{
		sessions:       make(map[string]*session),
		transcriptSize: transcriptSize,
		now:            time.Now,
	}
}

func (m *MemoryManager) getOrCreate(sessionID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[sessionID]
	if !exists {
		s = &session{transcript: make([]Message, 0, m.transcriptSize), lastActive: m.now()}
		m.sessions[sessionID] = s
	}
	return s
}

func (m *MemoryManager) get(sessionID string) (*session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// AddMessage appends to the session transcript, dropping the oldest entries
// beyond the size limit
func (m *MemoryManager) AddMessage(sessionID string, msg Message) {
	s := m.getOrCreate(sessionID)
	now := m.now()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, msg)
	if len(s.transcript) > m.transcriptSize {
		s.transcript = s.transcript[len(s.transcript)-m.transcriptSize:]
	}
	s.lastActive = now
}

// GetTranscript returns a copy of the session transcript, oldest first
func (m *MemoryManager) GetTranscript(sessionID string) []Message {
	s, exists := m.get(sessionID)
	if !exists {
		return []Message{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]Message, len(s.transcript))
	copy(history, s.transcript)
	return history
}

// SetLanguage stores the session's display language
func (m *MemoryManager) SetLanguage(sessionID, code string) {
	s := m.getOrCreate(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = code
	s.lastActive = m.now()
}

// Language returns the session's language, or "" if none was set
func (m *MemoryManager) Language(sessionID string) string {
	s, exists := m.get(sessionID)
	if !exists {
		return ""
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// ClearTranscript empties the session transcript but keeps its settings
func (m *MemoryManager) ClearTranscript(sessionID string) {
	s, exists := m.get(sessionID)
	if !exists {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = make([]Message, 0, m.transcriptSize)
}

// EndSession forgets a session entirely
func (m *MemoryManager) EndSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// PruneIdle removes sessions inactive for longer than maxIdle and returns
// how many were removed
func (m *MemoryManager) PruneIdle(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		s.mu.RLock()
		idle := s.lastActive.Before(cutoff)
		s.mu.RUnlock()
		if idle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// SessionCount returns the number of live sessions
func (m *MemoryManager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
