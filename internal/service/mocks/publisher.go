package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/SergeiKhy/shorturls/internal/models"
)

// ErrPublishFailed is returned by MockEventPublisher while failures remain.
var ErrPublishFailed = errors.New("publish failed")

// MockEventPublisher implements repository.EventPublisher for testing
type MockEventPublisher struct {
	mu       sync.Mutex
	events   []*models.ClickEvent
	attempts int
	failures int
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// FailNext makes the next n Publish calls fail.
func (m *MockEventPublisher) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *models.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts++
	if m.failures > 0 {
		m.failures--
		return ErrPublishFailed
	}

	m.events = append(m.events, event)
	return nil
}

func (m *MockEventPublisher) Events() []*models.ClickEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]*models.ClickEvent, len(m.events))
	copy(events, m.events)
	return events
}

func (m *MockEventPublisher) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// MockCleaner implements service.Cleaner and counts invocations
type MockCleaner struct {
	mu    sync.Mutex
	calls int
}

func (m *MockCleaner) Cleanup(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return 0
}

func (m *MockCleaner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
