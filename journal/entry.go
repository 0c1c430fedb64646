package journal

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"

	fivenine "github.com/burtcorp/fivenine-tracker-go"
)

// Entry is the record of one dispatched event ping.
type Entry struct {
	// ID is the unique identifier for this entry (auto-generated on record).
	ID ulid.ULID `json:"id"`

	// Timestamp is when the ping was sent.
	Timestamp time.Time `json:"timestamp"`

	// EventName is the tracked event name ("nm").
	EventName string `json:"event_name"`

	// EventID is the generated event ID ("id").
	EventID string `json:"event_id,omitempty"`

	// EntityID and DeviceID identify the reporter ("e" and "ui").
	EntityID string `json:"entity_id,omitempty"`
	DeviceID string `json:"device_id,omitempty"`

	// URL is the full request URL.
	URL string `json:"url"`

	// Properties are the decoded event properties ("pv").
	Properties map[string]any `json:"properties,omitempty"`

	// Status is the HTTP status of the response, 0 if the request failed.
	Status int `json:"status,omitempty"`

	// Error is the transport error text, if any.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the transport returned an error.
func (e *Entry) Failed() bool {
	return e.Error != ""
}

// validate checks if the entry has required fields.
func (e *Entry) validate() error {
	if e.URL == "" {
		return ErrEmptyURL
	}
	return nil
}

// entryFromURL fills an entry from a tracker request URL. Properties that
// are not valid JSON are left empty.
func entryFromURL(rawURL string) (Entry, error) {
	entry := Entry{URL: rawURL}

	u, err := url.Parse(rawURL)
	if err != nil {
		return entry, err
	}
	payload, err := fivenine.ParseEventPayload(u.RawQuery)
	if err != nil {
		return entry, err
	}

	entry.EventName = payload.Name
	entry.EventID = payload.EventID
	entry.EntityID = payload.EntityID
	entry.DeviceID = payload.DeviceID

	if payload.Properties != "" {
		var props map[string]any
		if err := json.Unmarshal([]byte(payload.Properties), &props); err == nil && len(props) > 0 {
			entry.Properties = props
		}
	}

	return entry, nil
}
