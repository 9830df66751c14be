package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/app"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
)

// Function-backed stubs; each test sets only the hooks its route touches.

type stubMailbox struct {
	sendDraft   func(ctx context.Context, draftID string) error
	getDraft    func(ctx context.Context, draftID string) (*domain.RawMessage, error)
	updateDraft func(ctx context.Context, draftID, raw string) error
	deleteDraft func(ctx context.Context, draftID string) error
}

func (s *stubMailbox) SelfAddress() string { return "me@example.com" }
func (s *stubMailbox) ListUnread(ctx context.Context, max int64) ([]domain.MessageRef, error) {
	return nil, nil
}
func (s *stubMailbox) GetMessage(ctx context.Context, id string) (*domain.RawMessage, error) {
	return nil, nil
}
func (s *stubMailbox) CreateDraft(ctx context.Context, raw string, threadID string) (string, error) {
	return "", nil
}
func (s *stubMailbox) GetDraft(ctx context.Context, draftID string) (*domain.RawMessage, error) {
	if s.getDraft != nil {
		return s.getDraft(ctx, draftID)
	}
	return &domain.RawMessage{}, nil
}
func (s *stubMailbox) UpdateDraft(ctx context.Context, draftID, raw string) error {
	if s.updateDraft != nil {
		return s.updateDraft(ctx, draftID, raw)
	}
	return nil
}
func (s *stubMailbox) SendDraft(ctx context.Context, draftID string) error {
	if s.sendDraft != nil {
		return s.sendDraft(ctx, draftID)
	}
	return nil
}
func (s *stubMailbox) DeleteDraft(ctx context.Context, draftID string) error {
	if s.deleteDraft != nil {
		return s.deleteDraft(ctx, draftID)
	}
	return nil
}
func (s *stubMailbox) MarkRead(ctx context.Context, id string) error { return nil }

type stubRepo struct {
	getByID     func(ctx context.Context, id uuid.UUID) (*domain.DraftRecord, error)
	transition  func(ctx context.Context, id uuid.UUID, status domain.DraftStatus, newText *string) error
	listPending func(ctx context.Context) ([]domain.DraftRecord, error)
	listAll     func(ctx context.Context, limit int) ([]domain.DraftRecord, error)
	deleteRec   func(ctx context.Context, id uuid.UUID) error
}

func (s *stubRepo) Create(ctx context.Context, rec *domain.DraftRecord) error { return nil }
func (s *stubRepo) Transition(ctx context.Context, id uuid.UUID, status domain.DraftStatus, newText *string) error {
	return s.transition(ctx, id, status, newText)
}
func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DraftRecord, error) {
	return s.getByID(ctx, id)
}
func (s *stubRepo) ListPending(ctx context.Context) ([]domain.DraftRecord, error) {
	return s.listPending(ctx)
}
func (s *stubRepo) ListAll(ctx context.Context, limit int) ([]domain.DraftRecord, error) {
	return s.listAll(ctx, limit)
}
func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteRec(ctx, id)
}

func newTestRouter(mb *stubMailbox, repo *stubRepo) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := app.NewReviewService(mb, repo, app.NoopPublisher{}, logger)
	handler := NewReviewHandler(service, logger)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func testRecord(id uuid.UUID, status domain.DraftStatus) *domain.DraftRecord {
	return &domain.DraftRecord{
		ID:              id,
		SourceMessageID: "m1",
		ProviderDraftID: "d1",
		ReplyText:       "hello",
		Status:          status,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
}

func TestReviewHandler_ListDrafts(t *testing.T) {
	id := uuid.New()

	t.Run("pending by default", func(t *testing.T) {
		repo := &stubRepo{
			listPending: func(ctx context.Context) ([]domain.DraftRecord, error) {
				return []domain.DraftRecord{*testRecord(id, domain.DraftStatusPending)}, nil
			},
		}
		router := newTestRouter(&stubMailbox{}, repo)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/drafts", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var records []domain.DraftRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
		require.Len(t, records, 1)
		assert.Equal(t, id, records[0].ID)
	})

	t.Run("all with limit", func(t *testing.T) {
		var gotLimit int
		repo := &stubRepo{
			listAll: func(ctx context.Context, limit int) ([]domain.DraftRecord, error) {
				gotLimit = limit
				return nil, nil
			},
		}
		router := newTestRouter(&stubMailbox{}, repo)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/drafts?status=all&limit=10", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 10, gotLimit)
		assert.JSONEq(t, "[]", rr.Body.String())
	})

	t.Run("limit applies to pending", func(t *testing.T) {
		repo := &stubRepo{
			listPending: func(ctx context.Context) ([]domain.DraftRecord, error) {
				return []domain.DraftRecord{
					*testRecord(uuid.New(), domain.DraftStatusPending),
					*testRecord(id, domain.DraftStatusPending),
				}, nil
			},
		}
		router := newTestRouter(&stubMailbox{}, repo)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/drafts?limit=1", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var records []domain.DraftRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
		assert.Len(t, records, 1)
	})

	t.Run("invalid status parameter", func(t *testing.T) {
		router := newTestRouter(&stubMailbox{}, &stubRepo{})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/drafts?status=bogus", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestReviewHandler_GetDraft(t *testing.T) {
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		repo := &stubRepo{
			getByID: func(ctx context.Context, got uuid.UUID) (*domain.DraftRecord, error) {
				return testRecord(got, domain.DraftStatusPending), nil
			},
		}
		router := newTestRouter(&stubMailbox{}, repo)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/drafts/"+id.String(), nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var rec domain.DraftRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
		assert.Equal(t, id, rec.ID)
	})

	t.Run("not found", func(t *testing.T) {
		repo := &stubRepo{
			getByID: func(ctx context.Context, got uuid.UUID) (*domain.DraftRecord, error) {
				return nil, domain.ErrNotFound
			},
		}
		router := newTestRouter(&stubMailbox{}, repo)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/drafts/"+id.String(), nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		router := newTestRouter(&stubMailbox{}, &stubRepo{})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/drafts/not-a-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestReviewHandler_SendDraft(t *testing.T) {
	id := uuid.New()

	t.Run("sends pending draft", func(t *testing.T) {
		var sentDraftID string
		mb := &stubMailbox{
			sendDraft: func(ctx context.Context, draftID string) error {
				sentDraftID = draftID
				return nil
			},
		}
		repo := &stubRepo{
			getByID: func(ctx context.Context, got uuid.UUID) (*domain.DraftRecord, error) {
				return testRecord(got, domain.DraftStatusPending), nil
			},
			transition: func(ctx context.Context, got uuid.UUID, status domain.DraftStatus, newText *string) error {
				assert.Equal(t, domain.DraftStatusSentNoEdit, status)
				assert.Nil(t, newText)
				return nil
			},
		}
		router := newTestRouter(mb, repo)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/drafts/"+id.String()+"/send", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "d1", sentDraftID)
	})

	t.Run("conflict on finalized draft", func(t *testing.T) {
		repo := &stubRepo{
			getByID: func(ctx context.Context, got uuid.UUID) (*domain.DraftRecord, error) {
				return testRecord(got, domain.DraftStatusSentNoEdit), nil
			},
		}
		router := newTestRouter(&stubMailbox{}, repo)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/drafts/"+id.String()+"/send", nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestReviewHandler_SendEditedDraft(t *testing.T) {
	id := uuid.New()

	t.Run("updates then sends", func(t *testing.T) {
		var updatedRaw string
		mb := &stubMailbox{
			getDraft: func(ctx context.Context, draftID string) (*domain.RawMessage, error) {
				return &domain.RawMessage{
					Headers: []domain.Header{{Name: "To", Value: "bob@example.com"}},
				}, nil
			},
			updateDraft: func(ctx context.Context, draftID, raw string) error {
				updatedRaw = raw
				return nil
			},
		}
		repo := &stubRepo{
			getByID: func(ctx context.Context, got uuid.UUID) (*domain.DraftRecord, error) {
				return testRecord(got, domain.DraftStatusPending), nil
			},
			transition: func(ctx context.Context, got uuid.UUID, status domain.DraftStatus, newText *string) error {
				assert.Equal(t, domain.DraftStatusSentWithEdit, status)
				require.NotNil(t, newText)
				assert.Equal(t, "better reply", *newText)
				return nil
			},
		}
		router := newTestRouter(mb, repo)

		body := strings.NewReader(`{"reply_text": "better reply"}`)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/drafts/"+id.String()+"/send-edited", body))

		require.Equal(t, http.StatusOK, rr.Code)
		decoded, err := base64.URLEncoding.DecodeString(updatedRaw)
		require.NoError(t, err)
		assert.Contains(t, string(decoded), "To: bob@example.com")
	})

	t.Run("blank reply text", func(t *testing.T) {
		router := newTestRouter(&stubMailbox{}, &stubRepo{})

		body := strings.NewReader(`{"reply_text": "  "}`)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/drafts/"+id.String()+"/send-edited", body))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newTestRouter(&stubMailbox{}, &stubRepo{})

		body := strings.NewReader(`{"reply_text": `)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/drafts/"+id.String()+"/send-edited", body))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestReviewHandler_RejectDraft(t *testing.T) {
	id := uuid.New()

	var deletedDraftID string
	mb := &stubMailbox{
		deleteDraft: func(ctx context.Context, draftID string) error {
			deletedDraftID = draftID
			return nil
		},
	}
	repo := &stubRepo{
		getByID: func(ctx context.Context, got uuid.UUID) (*domain.DraftRecord, error) {
			return testRecord(got, domain.DraftStatusPending), nil
		},
		transition: func(ctx context.Context, got uuid.UUID, status domain.DraftStatus, newText *string) error {
			assert.Equal(t, domain.DraftStatusRejected, status)
			return nil
		},
	}
	router := newTestRouter(mb, repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/drafts/"+id.String()+"/reject", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "d1", deletedDraftID)
}

func TestReviewHandler_DeleteDraft(t *testing.T) {
	id := uuid.New()

	repo := &stubRepo{
		deleteRec: func(ctx context.Context, got uuid.UUID) error {
			assert.Equal(t, id, got)
			return nil
		},
	}
	router := newTestRouter(&stubMailbox{}, repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/drafts/"+id.String(), nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
}
