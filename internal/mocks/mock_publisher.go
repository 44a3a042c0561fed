package mocks

import "sync"

// BroadcastCall records one Broadcast invocation
type BroadcastCall struct {
	UserID  uint
	Event   string
	Payload any
}

// MockPublisher implements domain.Publisher interface for testing
type MockPublisher struct {
	mu    sync.Mutex
	Calls []BroadcastCall
}

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Broadcast records the call
func (m *MockPublisher) Broadcast(userID uint, event string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, BroadcastCall{UserID: userID, Event: event, Payload: payload})
}
