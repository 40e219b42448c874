package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/upb/logistics-assistant/internal/rag"
	"github.com/upb/logistics-assistant/models"
	"github.com/upb/logistics-assistant/services/chat"
)

// MockChatService is a mock implementation of ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Ask(ctx context.Context, req *chat.AskRequest) (*chat.AskResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.AskResponse), args.Error(1)
}

func (m *MockChatService) Reload(ctx context.Context) (*rag.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rag.Stats), args.Error(1)
}

func (m *MockChatService) KnowledgeBaseStats() (*rag.Stats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rag.Stats), args.Error(1)
}

func (m *MockChatService) Ready() bool {
	return m.Called().Bool(0)
}

func (m *MockChatService) Stats() chat.PipelineStats {
	return m.Called().Get(0).(chat.PipelineStats)
}

// MockLocationService is a mock implementation of LocationService
type MockLocationService struct {
	mock.Mock
}

func (m *MockLocationService) Top(ctx context.Context, limit int) ([]models.LocationMetric, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LocationMetric), args.Error(1)
}

func (m *MockLocationService) Get(ctx context.Context, locationID int64) (*models.LocationMetric, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LocationMetric), args.Error(1)
}

// stubProvider implements ProviderChecker
type stubProvider struct {
	available bool
}

func (s stubProvider) Name() string                         { return "ollama" }
func (s stubProvider) IsAvailable(ctx context.Context) bool { return s.available }
