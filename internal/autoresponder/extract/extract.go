// Package extract derives the clean, reply-relevant text of an inbound
// message: it decodes the body part tree, prefers plain text over stripped
// HTML over the provider snippet, and discards quoted history. The result is
// recomputed from the raw message wherever it is needed, so everything here
// is deterministic and side-effect free.
package extract

import (
	"encoding/base64"
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/inboxpilot/autoresponder/internal/autoresponder/domain"
)

// quoteMarker matches the first line of a quoted section: one or more '>'
// characters at line start, or a reply attribution like "On Mon ... wrote:".
var quoteMarker = regexp.MustCompile(`^(>+|\s*On .*wrote:)`)

// CleanText returns the cleaned text of a message with quoted history
// removed. If stripping discards every line (the visible content is itself a
// quote block), the whole selected body is returned trimmed so the reviewer
// still sees something rather than an empty draft context.
func CleanText(msg *domain.RawMessage) string {
	var textAcc, htmlAcc strings.Builder
	collect(msg.Payload, &textAcc, &htmlAcc)

	body := textAcc.String()
	if body == "" {
		if h := htmlAcc.String(); h != "" {
			body = html.UnescapeString(stripTags(h))
		} else {
			body = msg.Snippet
		}
	}

	var kept []string
	for _, line := range strings.Split(body, "\n") {
		if quoteMarker.MatchString(line) {
			break
		}
		kept = append(kept, strings.TrimRight(line, " \t\r"))
	}

	cleaned := strings.TrimSpace(strings.Join(kept, "\n"))
	if cleaned == "" {
		return strings.TrimSpace(body)
	}
	return cleaned
}

// collect walks the part tree in document order, appending decoded leaf
// content to the accumulator matching its media type.
func collect(p *domain.Part, textAcc, htmlAcc *strings.Builder) {
	if p == nil {
		return
	}
	switch {
	case strings.HasPrefix(p.MimeType, "multipart/"):
		for _, child := range p.Parts {
			collect(child, textAcc, htmlAcc)
		}
	case p.MimeType == "text/plain":
		textAcc.WriteString(decodeBase64URL(p.Data))
	case p.MimeType == "text/html":
		htmlAcc.WriteString(decodeBase64URL(p.Data))
	}
}

// decodeBase64URL decodes URL-safe base64, tolerating missing padding.
// Malformed input yields "" rather than an error so one broken part can
// never abort extraction.
func decodeBase64URL(data string) string {
	if data == "" {
		return ""
	}
	if n := len(data) % 4; n != 0 {
		data += strings.Repeat("=", 4-n)
	}
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// stripTags extracts the visible text of an HTML fragment, skipping script
// and style elements, with text nodes joined by single spaces.
func stripTags(src string) string {
	doc, err := xhtml.Parse(strings.NewReader(src))
	if err != nil {
		return src
	}

	var chunks []string
	var visit func(n *xhtml.Node)
	visit = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == xhtml.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				chunks = append(chunks, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	return strings.Join(chunks, " ")
}
