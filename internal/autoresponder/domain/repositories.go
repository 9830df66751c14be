package domain

import (
	"context"

	"github.com/google/uuid"
)

// DraftRepository is the persistence contract for draft records. The review
// surface and the poll cycle share this interface; implementations must make
// Transition an atomic read-check-write so two concurrent callers cannot both
// finalize the same record.
type DraftRepository interface {
	// Create inserts a new record. The record always starts pending.
	Create(ctx context.Context, rec *DraftRecord) error

	// Transition moves a pending record into a terminal status. When the
	// target is sent_with_edit, newText must be non-nil and replaces the
	// stored reply text. Returns ErrNotFound if no record matches the id and
	// ErrAlreadyFinalized if the record exists but is no longer pending.
	Transition(ctx context.Context, id uuid.UUID, status DraftStatus, newText *string) error

	GetByID(ctx context.Context, id uuid.UUID) (*DraftRecord, error)
	ListPending(ctx context.Context) ([]DraftRecord, error)
	ListAll(ctx context.Context, limit int) ([]DraftRecord, error)

	// Delete removes a record unconditionally (administrative operation).
	Delete(ctx context.Context, id uuid.UUID) error
}
