package fivenine

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Protocol constants sent with every custom event.
const (
	eventType     = "customevent"
	protocolVer   = "1"
	schemaNumber  = "1"
	clientType    = "0"
	identifierLen = 12
)

// ValidIdentifier reports whether id is usable as an entity or device ID:
// exactly 12 ASCII letters or digits, case-insensitive.
func ValidIdentifier(id string) bool {
	if len(id) != identifierLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}

// EventPayload is the query carried by a single custom event ping.
type EventPayload struct {
	// EntityID is sent as "e".
	EntityID string

	// DeviceID is sent as "ui".
	DeviceID string

	// AppVersion is the SDK version tag sent as "av", e.g. "v0.0.1-go".
	AppVersion string

	// EventID is sent as "id".
	EventID string

	// Name is the caller supplied event name, sent as "nm".
	Name string

	// Properties is the JSON encoded property object, sent as "pv".
	Properties string
}

// encodeProperties JSON encodes props. A nil or empty map encodes as {}.
func encodeProperties(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// fields returns the payload as ordered key/value pairs.
func (p *EventPayload) fields() [][2]string {
	return [][2]string{
		{"type", eventType},
		{"v", protocolVer},
		{"sn", schemaNumber},
		{"ct", clientType},
		{"e", p.EntityID},
		{"ui", p.DeviceID},
		{"av", p.AppVersion},
		{"id", p.EventID},
		{"nm", p.Name},
		{"pv", p.Properties},
	}
}

// Encode returns the URL query string for the payload. Keys keep their
// protocol order and values are escaped with url.QueryEscape, so spaces
// become "+".
func (p *EventPayload) Encode() string {
	var b strings.Builder
	for i, kv := range p.fields() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[1]))
	}
	return b.String()
}

// ParseEventPayload decodes a query string produced by Encode. Unknown keys
// are ignored.
func ParseEventPayload(rawQuery string) (*EventPayload, error) {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	return &EventPayload{
		EntityID:   q.Get("e"),
		DeviceID:   q.Get("ui"),
		AppVersion: q.Get("av"),
		EventID:    q.Get("id"),
		Name:       q.Get("nm"),
		Properties: q.Get("pv"),
	}, nil
}
