package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
)

// NATS subjects for draft lifecycle events.
const (
	SubjectDraftCreated   = "drafts.created"
	SubjectDraftFinalized = "drafts.finalized"
)

// EventPublisher publishes lifecycle events. Publishing is best-effort for
// callers: failures are logged, never fatal to the operation that emitted them.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return nil
}

type DraftCreatedEvent struct {
	DraftRecordID   uuid.UUID `json:"draft_record_id"`
	SourceMessageID string    `json:"source_message_id"`
	ProviderDraftID string    `json:"provider_draft_id"`
	Fallback        bool      `json:"fallback"`
	CreatedAt       time.Time `json:"created_at"`
}

type DraftFinalizedEvent struct {
	DraftRecordID uuid.UUID          `json:"draft_record_id"`
	Status        domain.DraftStatus `json:"status"`
	FinalizedAt   time.Time          `json:"finalized_at"`
}
