package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/compose"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/mailbox"
)

// ReviewService finalizes pending draft records on behalf of the human
// reviewer: send as-is, send after editing, or reject. Each outcome is
// recorded exactly once; a second finalization attempt gets
// domain.ErrAlreadyFinalized from the store.
type ReviewService struct {
	mailbox mailbox.Provider
	repo    domain.DraftRepository
	events  EventPublisher
	logger  *slog.Logger
}

func NewReviewService(mb mailbox.Provider, repo domain.DraftRepository, events EventPublisher, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		mailbox: mb,
		repo:    repo,
		events:  events,
		logger:  logger.With("component", "review_service"),
	}
}

func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*domain.DraftRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ReviewService) ListPending(ctx context.Context) ([]domain.DraftRecord, error) {
	return s.repo.ListPending(ctx)
}

func (s *ReviewService) ListAll(ctx context.Context, limit int) ([]domain.DraftRecord, error) {
	return s.repo.ListAll(ctx, limit)
}

// Send delivers the provider draft unchanged and records sent_no_edit.
func (s *ReviewService) Send(ctx context.Context, id uuid.UUID) error {
	rec, err := s.pendingRecord(ctx, id)
	if err != nil {
		return err
	}

	if err := s.mailbox.SendDraft(ctx, rec.ProviderDraftID); err != nil {
		s.logger.ErrorContext(ctx, "Error sending draft", "error", err, "draft_record_id", id, "draft_id", rec.ProviderDraftID)
		return fmt.Errorf("sending draft: %w", err)
	}

	return s.finalize(ctx, id, domain.DraftStatusSentNoEdit, nil)
}

// SendEdited replaces the provider draft body with newText, delivers it, and
// records sent_with_edit together with the text actually sent. The current
// draft is fetched first so the replacement envelope reuses its own recipient
// and subject headers.
func (s *ReviewService) SendEdited(ctx context.Context, id uuid.UUID, newText string) error {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return domain.ErrEditTextRequired
	}

	rec, err := s.pendingRecord(ctx, id)
	if err != nil {
		return err
	}

	current, err := s.mailbox.GetDraft(ctx, rec.ProviderDraftID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching draft", "error", err, "draft_record_id", id, "draft_id", rec.ProviderDraftID)
		return fmt.Errorf("fetching draft: %w", err)
	}

	raw := compose.FromDraft(newText, current)
	if err := s.mailbox.UpdateDraft(ctx, rec.ProviderDraftID, raw); err != nil {
		s.logger.ErrorContext(ctx, "Error updating draft", "error", err, "draft_record_id", id, "draft_id", rec.ProviderDraftID)
		return fmt.Errorf("updating draft: %w", err)
	}
	if err := s.mailbox.SendDraft(ctx, rec.ProviderDraftID); err != nil {
		s.logger.ErrorContext(ctx, "Error sending edited draft", "error", err, "draft_record_id", id, "draft_id", rec.ProviderDraftID)
		return fmt.Errorf("sending draft: %w", err)
	}

	return s.finalize(ctx, id, domain.DraftStatusSentWithEdit, &newText)
}

// Reject records the rejection, then deletes the provider draft best-effort:
// a leftover provider draft is harmless, a lost rejection is not.
func (s *ReviewService) Reject(ctx context.Context, id uuid.UUID) error {
	rec, err := s.pendingRecord(ctx, id)
	if err != nil {
		return err
	}

	if err := s.finalize(ctx, id, domain.DraftStatusRejected, nil); err != nil {
		return err
	}

	if err := s.mailbox.DeleteDraft(ctx, rec.ProviderDraftID); err != nil {
		s.logger.WarnContext(ctx, "Error deleting rejected provider draft", "error", err, "draft_record_id", id, "draft_id", rec.ProviderDraftID)
	}
	return nil
}

// Delete removes the record itself, whatever its status.
func (s *ReviewService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// pendingRecord loads the record and rejects finalized ones up front, before
// any provider call. The store's conditional transition still guards the
// race between two concurrent reviewers.
func (s *ReviewService) pendingRecord(ctx context.Context, id uuid.UUID) (*domain.DraftRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status.IsTerminal() {
		return nil, domain.ErrAlreadyFinalized
	}
	return rec, nil
}

func (s *ReviewService) finalize(ctx context.Context, id uuid.UUID, status domain.DraftStatus, newText *string) error {
	if err := s.repo.Transition(ctx, id, status, newText); err != nil {
		return err
	}
	draftsFinalizedCounter.WithLabelValues(string(status)).Inc()
	s.publishFinalized(ctx, id, status)
	s.logger.InfoContext(ctx, "Draft record finalized", "draft_record_id", id, "status", status)
	return nil
}

func (s *ReviewService) publishFinalized(ctx context.Context, id uuid.UUID, status domain.DraftStatus) {
	payload, err := json.Marshal(DraftFinalizedEvent{
		DraftRecordID: id,
		Status:        status,
		FinalizedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marshaling draft finalized event", "error", err, "draft_record_id", id)
		return
	}
	if err := s.events.Publish(ctx, SubjectDraftFinalized, payload); err != nil {
		s.logger.WarnContext(ctx, "Error publishing draft finalized event", "error", err, "draft_record_id", id)
	}
}
