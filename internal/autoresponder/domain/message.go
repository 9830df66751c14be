package domain

import "strings"

// MessageRef identifies an unread message returned by a provider listing
// call. ThreadID may be empty for providers without threading.
type MessageRef struct {
	ID       string
	ThreadID string
}

// Header is a single RFC 822 header of a message.
type Header struct {
	Name  string
	Value string
}

// Part is one node of a message body tree. Container nodes (multipart/*)
// carry children in Parts; leaf nodes carry base64url-encoded content in
// Data. Padding may be absent in Data and must be tolerated by consumers.
type Part struct {
	MimeType string
	Data     string
	Parts    []*Part
}

// RawMessage is a provider message in the shape the pipeline consumes:
// headers, a body part tree, and a short fallback snippet.
type RawMessage struct {
	ID       string
	ThreadID string
	Snippet  string
	Headers  []Header
	Payload  *Part
}

// Header returns the value of the first header matching name,
// case-insensitively, or "" if the message carries no such header.
func (m *RawMessage) Header(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
