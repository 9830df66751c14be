package mailbox

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
)

// GmailConfig carries the OAuth credentials for the refresh-token flow.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// GmailMailbox implements Provider against the Gmail API v1 for a single
// account ("me").
type GmailMailbox struct {
	svc    *gmail.Service
	userID string
	self   string
	logger *slog.Logger
}

// NewGmailMailbox builds the Gmail client from a long-lived refresh token and
// resolves the account's own address from the profile.
func NewGmailMailbox(ctx context.Context, cfg GmailConfig, logger *slog.Logger) (*GmailMailbox, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailModifyScope, gmail.GmailComposeScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve gmail profile: %w", err)
	}

	return &GmailMailbox{
		svc:    svc,
		userID: "me",
		self:   profile.EmailAddress,
		logger: logger.With("component", "gmail_mailbox"),
	}, nil
}

// SelfAddress returns the account's own address, resolved at construction.
func (g *GmailMailbox) SelfAddress() string {
	return g.self
}

// ListUnread returns references to unread inbox messages, at most max.
func (g *GmailMailbox) ListUnread(ctx context.Context, max int64) ([]domain.MessageRef, error) {
	resp, err := g.svc.Users.Messages.List(g.userID).
		LabelIds("INBOX", "UNREAD").
		MaxResults(max).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list unread: %w", err)
	}

	refs := make([]domain.MessageRef, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		refs = append(refs, domain.MessageRef{ID: m.Id, ThreadID: m.ThreadId})
	}
	return refs, nil
}

// GetMessage fetches the full message and maps it into the pipeline's shape.
func (g *GmailMailbox) GetMessage(ctx context.Context, id string) (*domain.RawMessage, error) {
	msg, err := g.svc.Users.Messages.Get(g.userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail get message %s: %w", id, err)
	}
	return mapGmailMessage(msg), nil
}

// CreateDraft stores the raw envelope as a draft, threaded when threadID is
// non-empty, and returns the provider draft id.
func (g *GmailMailbox) CreateDraft(ctx context.Context, raw string, threadID string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("gmail create draft: raw payload is empty")
	}

	draft := &gmail.Draft{
		Message: &gmail.Message{Raw: raw, ThreadId: threadID},
	}
	created, err := g.svc.Users.Drafts.Create(g.userID, draft).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail create draft: %w", err)
	}
	return created.Id, nil
}

// GetDraft fetches the message an existing draft currently holds.
func (g *GmailMailbox) GetDraft(ctx context.Context, draftID string) (*domain.RawMessage, error) {
	current, err := g.svc.Users.Drafts.Get(g.userID, draftID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail get draft %s: %w", draftID, err)
	}
	return mapGmailMessage(current.Message), nil
}

// UpdateDraft replaces an existing draft with the raw envelope.
func (g *GmailMailbox) UpdateDraft(ctx context.Context, draftID, raw string) error {
	update := &gmail.Draft{
		Id:      draftID,
		Message: &gmail.Message{Raw: raw},
	}
	if _, err := g.svc.Users.Drafts.Update(g.userID, draftID, update).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail update draft %s: %w", draftID, err)
	}
	return nil
}

// SendDraft sends an existing draft.
func (g *GmailMailbox) SendDraft(ctx context.Context, draftID string) error {
	_, err := g.svc.Users.Drafts.Send(g.userID, &gmail.Draft{Id: draftID}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send draft %s: %w", draftID, err)
	}
	return nil
}

// DeleteDraft removes an existing draft.
func (g *GmailMailbox) DeleteDraft(ctx context.Context, draftID string) error {
	if err := g.svc.Users.Drafts.Delete(g.userID, draftID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail delete draft %s: %w", draftID, err)
	}
	return nil
}

// MarkRead removes the UNREAD label so the message is excluded from the next
// listing.
func (g *GmailMailbox) MarkRead(ctx context.Context, id string) error {
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{"UNREAD"}}
	if _, err := g.svc.Users.Messages.Modify(g.userID, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail mark read %s: %w", id, err)
	}
	return nil
}

// mapGmailMessage converts the wire message into the provider-neutral shape.
func mapGmailMessage(msg *gmail.Message) *domain.RawMessage {
	if msg == nil {
		return &domain.RawMessage{}
	}

	out := &domain.RawMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			out.Headers = append(out.Headers, domain.Header{Name: h.Name, Value: h.Value})
		}
		out.Payload = mapGmailPart(msg.Payload)
	}
	return out
}

func mapGmailPart(part *gmail.MessagePart) *domain.Part {
	if part == nil {
		return nil
	}

	p := &domain.Part{MimeType: part.MimeType}
	if part.Body != nil {
		p.Data = part.Body.Data
	}
	for _, child := range part.Parts {
		p.Parts = append(p.Parts, mapGmailPart(child))
	}
	return p
}
