package mocks

import (
	"context"
	"sync"

	"github.com/SergeiKhy/shorturls/internal/models"
)

// MockClickProcessor implements service.ClickProcessor and keeps enqueued events in memory
type MockClickProcessor struct {
	mu     sync.Mutex
	events []*models.ClickEvent
}

func NewMockClickProcessor() *MockClickProcessor {
	return &MockClickProcessor{}
}

func (m *MockClickProcessor) Start() {}

func (m *MockClickProcessor) Stop() {}

func (m *MockClickProcessor) RecordClick(ctx context.Context, event *models.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockClickProcessor) Events() []*models.ClickEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]*models.ClickEvent, len(m.events))
	copy(events, m.events)
	return events
}
