package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
)

// --- Mocks ---

type MockMailboxProvider struct {
	mock.Mock
	Self string
}

func (m *MockMailboxProvider) SelfAddress() string {
	if m.Self != "" {
		return m.Self
	}
	return "me@example.com"
}

func (m *MockMailboxProvider) ListUnread(ctx context.Context, max int64) ([]domain.MessageRef, error) {
	args := m.Called(ctx, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MessageRef), args.Error(1)
}

func (m *MockMailboxProvider) GetMessage(ctx context.Context, id string) (*domain.RawMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RawMessage), args.Error(1)
}

func (m *MockMailboxProvider) CreateDraft(ctx context.Context, raw string, threadID string) (string, error) {
	args := m.Called(ctx, raw, threadID)
	return args.String(0), args.Error(1)
}

func (m *MockMailboxProvider) GetDraft(ctx context.Context, draftID string) (*domain.RawMessage, error) {
	args := m.Called(ctx, draftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RawMessage), args.Error(1)
}

func (m *MockMailboxProvider) UpdateDraft(ctx context.Context, draftID, raw string) error {
	args := m.Called(ctx, draftID, raw)
	return args.Error(0)
}

func (m *MockMailboxProvider) SendDraft(ctx context.Context, draftID string) error {
	args := m.Called(ctx, draftID)
	return args.Error(0)
}

func (m *MockMailboxProvider) DeleteDraft(ctx context.Context, draftID string) error {
	args := m.Called(ctx, draftID)
	return args.Error(0)
}

func (m *MockMailboxProvider) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockDraftRepository struct {
	mock.Mock
}

func (m *MockDraftRepository) Create(ctx context.Context, rec *domain.DraftRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockDraftRepository) Transition(ctx context.Context, id uuid.UUID, status domain.DraftStatus, newText *string) error {
	args := m.Called(ctx, id, status, newText)
	return args.Error(0)
}

func (m *MockDraftRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DraftRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DraftRecord), args.Error(1)
}

func (m *MockDraftRepository) ListPending(ctx context.Context) ([]domain.DraftRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DraftRecord), args.Error(1)
}

func (m *MockDraftRepository) ListAll(ctx context.Context, limit int) ([]domain.DraftRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DraftRecord), args.Error(1)
}

func (m *MockDraftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}
