package mocks

import (
	"sync"

	"github.com/aquadic/souq4u/domain"
)

// MockNotifier implements domain.Notifier and records every notice
type MockNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

// NewMockNotifier creates an empty recorder
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Notify records n
func (m *MockNotifier) Notify(n domain.Notice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, n)
}

// Notices returns the recorded notices
func (m *MockNotifier) Notices() []domain.Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Notice(nil), m.notices...)
}

// Compile-time interface compliance verification
var _ domain.Notifier = (*MockNotifier)(nil)
