package models

import "time"

// StreamMessage is one decoded broker entry. Producers are not perfectly
// consistent about field names, so decoding accepts "content" or "text"
// for the body and "platform" or "source" for the origin tag.
type StreamMessage struct {
	PostID    string
	Content   string
	Platform  string
	Author    string
	CreatedAt string
}

// StreamMessageFromFields decodes the flat field map of a stream entry.
func StreamMessageFromFields(fields map[string]string) StreamMessage {
	msg := StreamMessage{
		PostID:    fields["post_id"],
		Content:   fields["content"],
		Platform:  fields["platform"],
		Author:    fields["author"],
		CreatedAt: fields["created_at"],
	}

	if msg.Content == "" {
		msg.Content = fields["text"]
	}
	if msg.Platform == "" {
		msg.Platform = fields["source"]
	}
	if msg.Platform == "" {
		msg.Platform = "unknown"
	}
	if msg.Author == "" {
		msg.Author = "anonymous"
	}

	return msg
}

// Valid reports whether the message carries the fields required for
// processing. Invalid messages are acknowledged and dropped, never retried.
func (m StreamMessage) Valid() bool {
	return m.PostID != "" && m.Content != ""
}

// ParseCreatedAt parses the origin timestamp, accepting the Z-suffixed and
// offset RFC 3339 forms. A missing or unparseable timestamp falls back to now.
func (m StreamMessage) ParseCreatedAt(now time.Time) time.Time {
	if m.CreatedAt == "" {
		return now
	}
	ts, err := time.Parse(time.RFC3339, m.CreatedAt)
	if err != nil {
		return now
	}
	return ts.UTC()
}
