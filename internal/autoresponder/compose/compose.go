// Package compose builds transport-ready reply envelopes: fully addressed
// RFC 822 messages, base64url-encoded for the provider's draft-creation call.
package compose

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
)

const defaultSubject = "your email"

// Reply builds the envelope for a reply to original, addressed to the
// original sender and sent from fromAddr. The subject is normalized with a
// "Re: " prefix and, when the original carries a Message-Id, the reply is
// threaded via In-Reply-To and References.
// Returns domain.ErrInvalidOriginal when the original has no From header.
func Reply(replyText string, original *domain.RawMessage, fromAddr string) (string, error) {
	to := original.Header("From")
	if to == "" {
		return "", fmt.Errorf("compose reply for message %s: %w", original.ID, domain.ErrInvalidOriginal)
	}

	subject := normalizeSubject(original.Header("Subject"))

	headers := []domain.Header{
		{Name: "To", Value: to},
		{Name: "From", Value: fromAddr},
		{Name: "Subject", Value: encodeHeader(subject)},
	}
	if mid := original.Header("Message-Id"); mid != "" {
		headers = append(headers,
			domain.Header{Name: "In-Reply-To", Value: mid},
			domain.Header{Name: "References", Value: mid},
		)
	}

	return encodeEnvelope(headers, replyText), nil
}

// FromDraft builds a replacement envelope for an existing draft, reusing the
// draft's own recipient and subject headers. By edit time only the draft is
// available, so missing headers degrade rather than fail: the recipient falls
// back to the draft's From header and the subject to a bare "Re:".
func FromDraft(newText string, draft *domain.RawMessage) string {
	to := draft.Header("To")
	if to == "" {
		to = draft.Header("From")
	}
	subject := draft.Header("Subject")
	if subject == "" {
		subject = "Re:"
	}

	headers := []domain.Header{
		{Name: "To", Value: to},
		{Name: "Subject", Value: encodeHeader(subject)},
	}
	return encodeEnvelope(headers, newText)
}

// normalizeSubject prefixes "Re: " unless the subject already starts with
// "re:" in any case; an absent subject becomes "Re: your email".
func normalizeSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	if subject == "" {
		subject = defaultSubject
	}
	return "Re: " + subject
}

// encodeHeader RFC 2047-encodes a header value when it carries non-ASCII.
func encodeHeader(value string) string {
	return mime.QEncoding.Encode("utf-8", value)
}

// encodeEnvelope serializes headers plus a UTF-8 plain-text body, base64
// transfer-encoded, and returns the whole message base64url-encoded as the
// provider expects for raw drafts.
func encodeEnvelope(headers []domain.Header, body string) string {
	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	b.WriteString("\r\n")
	b.WriteString(wrap76(base64.StdEncoding.EncodeToString([]byte(body))))

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

// wrap76 folds a base64 payload at the conventional 76-column boundary.
func wrap76(s string) string {
	var b strings.Builder
	for len(s) > 76 {
		b.WriteString(s[:76])
		b.WriteString("\r\n")
		s = s[76:]
	}
	b.WriteString(s)
	b.WriteString("\r\n")
	return b.String()
}
