// Package notify turns push payloads sent by the mosque admin into local
// notifications.
package notify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type is the notification category carried in the payload's "type" key.
type Type string

const (
	TypePrayer       Type = "prayer"
	TypeJumuah       Type = "jumuah"
	TypeAnnouncement Type = "announcement"
	TypeEvent        Type = "event"
	TypeDonation     Type = "donation"
)

var defaults = map[Type]struct {
	title string
	icon  string
}{
	TypePrayer:       {"Prayer Time", "🕌"},
	TypeJumuah:       {"Jumu'ah", "🕋"},
	TypeAnnouncement: {"Announcement", "📢"},
	TypeEvent:        {"Upcoming Event", "📅"},
	TypeDonation:     {"Support Your Mosque", "💝"},
}

// Payload is a validated push payload.
type Payload struct {
	Type     Type   `json:"type"`
	Title    string `json:"title,omitempty"`
	Body     string `json:"body,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Local is a notification ready to be shown to the user.
type Local struct {
	Type     Type   `json:"type"`
	Icon     string `json:"icon"`
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Parse validates a flat key/value payload.
func Parse(data map[string]string) (Payload, error) {
	raw, ok := data["type"]
	if !ok || strings.TrimSpace(raw) == "" {
		return Payload{}, fmt.Errorf("payload has no type")
	}
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	if _, known := defaults[t]; !known {
		return Payload{}, fmt.Errorf("unknown notification type %q", raw)
	}
	return Payload{
		Type:     t,
		Title:    strings.TrimSpace(data["title"]),
		Body:     strings.TrimSpace(data["body"]),
		ImageURL: strings.TrimSpace(data["imageUrl"]),
	}, nil
}

// ParseJSON decodes a JSON object of string values and validates it.
func ParseJSON(b []byte) (Payload, error) {
	var data map[string]string
	if err := json.Unmarshal(b, &data); err != nil {
		return Payload{}, fmt.Errorf("invalid notification payload: %w", err)
	}
	return Parse(data)
}

// Render fills in the category's default title and icon.
func Render(p Payload) Local {
	d := defaults[p.Type]
	title := p.Title
	if title == "" {
		title = d.title
	}
	return Local{
		Type:     p.Type,
		Icon:     d.icon,
		Title:    title,
		Body:     p.Body,
		ImageURL: p.ImageURL,
	}
}

// String renders the notification on one line.
func (l Local) String() string {
	s := l.Title
	if l.Icon != "" {
		s = l.Icon + " " + s
	}
	if l.Body != "" {
		s += ": " + l.Body
	}
	return s
}
