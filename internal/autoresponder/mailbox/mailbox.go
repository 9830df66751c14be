// Package mailbox is the mail-provider boundary: the operations the pipeline
// needs from a provider, plus the Gmail adapter that implements them in
// production. Tests substitute mocks of Provider.
package mailbox

import (
	"context"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
)

// Provider is the set of mail-provider operations the core consumes.
// Every method is a synchronous network call and must be given a bounded
// context; any failure is retryable next cycle (listing) or fatal for the
// current message only (everything else).
type Provider interface {
	// SelfAddress returns the account's own address, used as the reply sender.
	SelfAddress() string

	ListUnread(ctx context.Context, max int64) ([]domain.MessageRef, error)
	GetMessage(ctx context.Context, id string) (*domain.RawMessage, error)

	// CreateDraft stores the transport-ready envelope as a provider draft,
	// associated with threadID when non-empty, and returns the draft id.
	CreateDraft(ctx context.Context, raw string, threadID string) (string, error)
	// GetDraft returns the message currently held by an existing draft.
	GetDraft(ctx context.Context, draftID string) (*domain.RawMessage, error)
	// UpdateDraft replaces an existing draft with the transport-ready
	// envelope raw.
	UpdateDraft(ctx context.Context, draftID, raw string) error
	SendDraft(ctx context.Context, draftID string) error
	DeleteDraft(ctx context.Context, draftID string) error

	MarkRead(ctx context.Context, id string) error
}
