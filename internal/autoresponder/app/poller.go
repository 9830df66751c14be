// Package app wires the pipeline together: the poller that turns unread
// messages into draft records, and the review service that finalizes them.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/compose"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/extract"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/generator"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/mailbox"
)

type PollerConfig struct {
	BatchSize         int64
	PerMessageTimeout time.Duration
}

// Poller drives one poll cycle: list unread messages, draft a reply for each,
// record it, and mark the original read so the next cycle skips it.
type Poller struct {
	mailbox mailbox.Provider
	gen     *generator.Resilient
	repo    domain.DraftRepository
	events  EventPublisher
	logger  *slog.Logger
	cfg     PollerConfig

	running atomic.Bool
}

func NewPoller(
	mb mailbox.Provider,
	gen *generator.Resilient,
	repo domain.DraftRepository,
	events EventPublisher,
	logger *slog.Logger,
	cfg PollerConfig,
) *Poller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PerMessageTimeout <= 0 {
		cfg.PerMessageTimeout = 30 * time.Second
	}
	return &Poller{
		mailbox: mb,
		gen:     gen,
		repo:    repo,
		events:  events,
		logger:  logger.With("component", "poller"),
		cfg:     cfg,
	}
}

// PollOnce runs a single cycle and returns how many messages got a draft.
// An error is returned only when the unread listing itself fails; per-message
// failures are logged and skipped so one bad message cannot stall the rest of
// the batch. Overlapping cycles are skipped, not queued.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.WarnContext(ctx, "Previous poll cycle still running, skipping")
		pollCyclesCounter.WithLabelValues("skipped").Inc()
		return 0, nil
	}
	defer p.running.Store(false)

	// The listing gets the same bound as each message; a provider call that
	// hangs here would otherwise hold the overlap guard across every later
	// tick.
	listCtx, cancelList := context.WithTimeout(ctx, p.cfg.PerMessageTimeout)
	refs, err := p.mailbox.ListUnread(listCtx, p.cfg.BatchSize)
	cancelList()
	if err != nil {
		p.logger.ErrorContext(ctx, "Error listing unread messages", "error", err)
		pollCyclesCounter.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("listing unread messages: %w", err)
	}

	processed := 0
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}

		if err := p.processMessage(ctx, ref); err != nil {
			p.logger.ErrorContext(ctx, "Error processing message", "error", err, "message_id", ref.ID)
			messagesProcessedCounter.WithLabelValues("error").Inc()
			continue
		}
		messagesProcessedCounter.WithLabelValues("drafted").Inc()
		processed++
	}

	pollCyclesCounter.WithLabelValues("ok").Inc()
	if processed > 0 {
		p.logger.InfoContext(ctx, "Poll cycle finished", "listed", len(refs), "drafted", processed)
	}
	return processed, nil
}

func (p *Poller) processMessage(ctx context.Context, ref domain.MessageRef) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PerMessageTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		messageProcessingDurationHist.Observe(time.Since(start).Seconds())
	}()

	msg, err := p.mailbox.GetMessage(ctx, ref.ID)
	if err != nil {
		return fmt.Errorf("fetching message: %w", err)
	}

	cleanText := extract.CleanText(msg)

	res := p.gen.Draft(ctx, cleanText)
	if res.Fallback {
		generationFallbackCounter.Inc()
	}

	raw, err := compose.Reply(res.Text, msg, p.mailbox.SelfAddress())
	if err != nil {
		return fmt.Errorf("composing reply: %w", err)
	}

	threadID := msg.ThreadID
	if threadID == "" {
		threadID = msg.ID
	}
	draftID, err := p.mailbox.CreateDraft(ctx, raw, threadID)
	if err != nil {
		return fmt.Errorf("creating provider draft: %w", err)
	}

	rec := &domain.DraftRecord{
		SourceMessageID: msg.ID,
		ProviderDraftID: draftID,
		ReplyText:       res.Text,
	}
	if err := p.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("recording draft: %w", err)
	}

	p.publishCreated(ctx, rec, res.Fallback)

	if err := p.mailbox.MarkRead(ctx, msg.ID); err != nil {
		// The draft exists and is recorded; the message just stays unread
		// and gets skipped-or-redrafted next cycle.
		p.logger.WarnContext(ctx, "Error marking message read", "error", err, "message_id", msg.ID)
	}

	p.logger.InfoContext(ctx, "Draft created for message",
		"message_id", msg.ID, "draft_id", draftID, "draft_record_id", rec.ID, "fallback", res.Fallback)
	return nil
}

func (p *Poller) publishCreated(ctx context.Context, rec *domain.DraftRecord, fallback bool) {
	payload, err := json.Marshal(DraftCreatedEvent{
		DraftRecordID:   rec.ID,
		SourceMessageID: rec.SourceMessageID,
		ProviderDraftID: rec.ProviderDraftID,
		Fallback:        fallback,
		CreatedAt:       rec.CreatedAt,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "Error marshaling draft created event", "error", err, "draft_record_id", rec.ID)
		return
	}
	if err := p.events.Publish(ctx, SubjectDraftCreated, payload); err != nil {
		p.logger.WarnContext(ctx, "Error publishing draft created event", "error", err, "draft_record_id", rec.ID)
	}
}
