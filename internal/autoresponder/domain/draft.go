package domain

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DraftStatus defines the lifecycle state of a stored draft record.
// A record starts as pending; the three other values are terminal and
// absorbing: once set, the record never changes status again.
type DraftStatus string

const (
	DraftStatusPending      DraftStatus = "pending"
	DraftStatusSentNoEdit   DraftStatus = "sent_no_edit"
	DraftStatusSentWithEdit DraftStatus = "sent_with_edit"
	DraftStatusRejected     DraftStatus = "rejected"
)

// IsTerminal reports whether the status is one of the absorbing states.
func (s DraftStatus) IsTerminal() bool {
	switch s {
	case DraftStatusSentNoEdit, DraftStatusSentWithEdit, DraftStatusRejected:
		return true
	}
	return false
}

// Value implements the driver.Valuer interface for DraftStatus.
func (s DraftStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements the sql.Scanner interface for DraftStatus.
func (s *DraftStatus) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan DraftStatus: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*s = DraftStatus(strVal)
	switch *s {
	case DraftStatusPending, DraftStatusSentNoEdit, DraftStatusSentWithEdit, DraftStatusRejected:
		return nil
	default:
		return fmt.Errorf("unknown DraftStatus value: %s", strVal)
	}
}

// DraftRecord is the unit of work and the unit of human review: one row per
// inbound message for which a provider-side draft reply was created.
type DraftRecord struct {
	ID              uuid.UUID   `json:"id"`
	SourceMessageID string      `json:"source_message_id"`
	ProviderDraftID string      `json:"provider_draft_id"`
	ReplyText       string      `json:"reply_text"`
	Status          DraftStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
