// Package postgres implements the draft store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
)

// PgxIface is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgDraftRepository struct {
	db     PgxIface
	logger *slog.Logger
}

func NewPgDraftRepository(db PgxIface, logger *slog.Logger) *PgDraftRepository {
	return &PgDraftRepository{db: db, logger: logger.With("component", "draft_repository_pg")}
}

// EnsureSchema creates the drafts table if it does not exist yet.
func (r *PgDraftRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS drafts (
			id UUID PRIMARY KEY,
			source_message_id TEXT NOT NULL,
			provider_draft_id TEXT NOT NULL,
			reply_text TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		r.logger.ErrorContext(ctx, "Error ensuring drafts schema", "error", err)
		return err
	}
	return nil
}

// Create inserts a new record. The id and timestamps are assigned here if the
// caller left them zero; the status always starts pending.
func (r *PgDraftRepository) Create(ctx context.Context, rec *domain.DraftRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = rec.CreatedAt
	rec.Status = domain.DraftStatusPending

	query := `
		INSERT INTO drafts (id, source_message_id, provider_draft_id, reply_text, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.SourceMessageID, rec.ProviderDraftID, rec.ReplyText, rec.Status,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating draft record", "error", err, "draft_id", rec.ID)
		return err
	}
	r.logger.InfoContext(ctx, "Draft record created", "draft_id", rec.ID, "source_message_id", rec.SourceMessageID)
	return nil
}

// Transition moves a pending record into a terminal status. The conditional
// UPDATE on status makes the read-check-write atomic per record: of two
// concurrent transitions on the same id, exactly one sees rows affected.
func (r *PgDraftRepository) Transition(ctx context.Context, id uuid.UUID, status domain.DraftStatus, newText *string) error {
	if !status.IsTerminal() {
		return domain.ErrInvalidStatus
	}
	if status == domain.DraftStatusSentWithEdit && newText == nil {
		return domain.ErrEditTextRequired
	}

	updatedAt := time.Now().UTC()

	var tag pgconn.CommandTag
	var err error
	if newText != nil {
		query := `
			UPDATE drafts
			SET status = $1, reply_text = $2, updated_at = $3
			WHERE id = $4 AND status = $5
		`
		tag, err = r.db.Exec(ctx, query, status, *newText, updatedAt, id, domain.DraftStatusPending)
	} else {
		query := `
			UPDATE drafts
			SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4
		`
		tag, err = r.db.Exec(ctx, query, status, updatedAt, id, domain.DraftStatusPending)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Error transitioning draft record", "error", err, "draft_id", id, "new_status", status)
		return err
	}

	if tag.RowsAffected() == 0 {
		// Distinguish "no such record" from "record already finalized".
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		r.logger.WarnContext(ctx, "Transition attempted on finalized draft record", "draft_id", id, "new_status", status)
		return domain.ErrAlreadyFinalized
	}

	r.logger.InfoContext(ctx, "Draft record transitioned", "draft_id", id, "new_status", status)
	return nil
}

const draftColumns = `id, source_message_id, provider_draft_id, reply_text, status, created_at, updated_at`

func scanDraft(row pgx.Row) (*domain.DraftRecord, error) {
	var rec domain.DraftRecord
	err := row.Scan(
		&rec.ID,
		&rec.SourceMessageID,
		&rec.ProviderDraftID,
		&rec.ReplyText,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PgDraftRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DraftRecord, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1`

	rec, err := scanDraft(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting draft record by id", "error", err, "draft_id", id)
		return nil, err
	}
	return rec, nil
}

func (r *PgDraftRepository) ListPending(ctx context.Context) ([]domain.DraftRecord, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE status = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, domain.DraftStatusPending)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing pending draft records", "error", err)
		return nil, err
	}
	defer rows.Close()

	return collectDrafts(rows)
}

func (r *PgDraftRepository) ListAll(ctx context.Context, limit int) ([]domain.DraftRecord, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing draft records", "error", err)
		return nil, err
	}
	defer rows.Close()

	return collectDrafts(rows)
}

func collectDrafts(rows pgx.Rows) ([]domain.DraftRecord, error) {
	var records []domain.DraftRecord
	for rows.Next() {
		rec, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Delete removes a record unconditionally.
func (r *PgDraftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM drafts WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting draft record", "error", err, "draft_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Draft record deleted", "draft_id", id)
	return nil
}
