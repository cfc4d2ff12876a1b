package client

import (
	"sync"

	"PatientRegistry/models"
	"PatientRegistry/role"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is what a successful login leaves behind.
type Session struct {
	Token  string
	Role   role.Role
	ID     primitive.ObjectID
	Name   string
	Email  string
	Status models.StaffStatus
}

// SessionStore keeps the current session between calls. Implementations must
// be safe for concurrent use.
type SessionStore interface {
	GetToken() string
	Session() (Session, bool)
	SetSession(s Session)
	ClearSession()
}

type MemorySession struct {
	mu      sync.RWMutex
	session *Session
}

func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

func (m *MemorySession) GetToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

func (m *MemorySession) Session() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

func (m *MemorySession) SetSession(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
}

func (m *MemorySession) ClearSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
}
