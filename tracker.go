// Package fivenine reports custom events to the richmetrics collector.
//
// A Tracker is bound to an entity (account or app) ID and a device ID and
// sends one HTTP GET per event through an explicit Transport:
//
//	tracker, err := fivenine.New("FOOBARBAZQUX", fivenine.Config{
//	    DeviceID:  "DEVDEVDEVDEV",
//	    Transport: fivenine.NewHTTPTransport(nil),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := tracker.TrackEvent(ctx, "signup", map[string]any{"plan": "pro"})
//
// Delivery is fire-and-forget: nothing is retried, queued or batched, and
// the response is handed back to the caller without being inspected.
package fivenine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Version is the SDK version reported in the "av" parameter.
const Version = "0.0.1"

// DefaultTag is the platform tag appended to Version.
const DefaultTag = "go"

const defaultLogURLBaseFormat = "https://%s.c.richmetrics.com/log"

// Config holds the optional settings of a Tracker.
type Config struct {
	// DeviceID identifies the reporting installation. Required.
	DeviceID string

	// Transport issues the requests. Required.
	Transport Transport

	// IDGenerator mints event IDs. Defaults to DefaultIdGenerator().
	IDGenerator IDGenerator

	// LogURLBase is the collector endpoint. Defaults to
	// https://<lowercased entity ID>.c.richmetrics.com/log.
	LogURLBase string

	// Tag is the platform tag in the "av" parameter. Defaults to "go".
	Tag string

	// Logger receives debug records for each dispatched event. Nil
	// discards them.
	Logger *slog.Logger
}

// Tracker sends custom events for one entity and device. It holds no
// mutable state and is safe for concurrent use when its Transport and
// IDGenerator are.
type Tracker struct {
	entityID   string
	deviceID   string
	logURLBase string
	appVersion string
	transport  Transport
	ids        IDGenerator
	logger     *trackerLogger
}

// DefaultLogURLBase returns the collector endpoint for entityID.
func DefaultLogURLBase(entityID string) string {
	return fmt.Sprintf(defaultLogURLBaseFormat, strings.ToLower(entityID))
}

// New creates a Tracker for entityID. The device ID is validated before
// the entity ID; either failing yields an *InvalidArgumentError.
func New(entityID string, cfg Config) (*Tracker, error) {
	if !ValidIdentifier(cfg.DeviceID) {
		return nil, &InvalidArgumentError{Field: "device ID", Value: cfg.DeviceID}
	}
	if !ValidIdentifier(entityID) {
		return nil, &InvalidArgumentError{Field: "entity ID", Value: entityID}
	}
	if cfg.Transport == nil {
		return nil, ErrNoTransport
	}

	ids := cfg.IDGenerator
	if ids == nil {
		ids = DefaultIdGenerator()
	}

	base := cfg.LogURLBase
	if base == "" {
		base = DefaultLogURLBase(entityID)
	}

	tag := cfg.Tag
	if tag == "" {
		tag = DefaultTag
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Tracker{
		entityID:   entityID,
		deviceID:   cfg.DeviceID,
		logURLBase: base,
		appVersion: fmt.Sprintf("v%s-%s", Version, tag),
		transport:  cfg.Transport,
		ids:        ids,
		logger:     newTrackerLogger(logger),
	}, nil
}

// EntityID returns the entity ID the tracker reports for.
func (t *Tracker) EntityID() string { return t.entityID }

// DeviceID returns the device ID the tracker reports for.
func (t *Tracker) DeviceID() string { return t.deviceID }

// LogURLBase returns the endpoint events are sent to.
func (t *Tracker) LogURLBase() string { return t.logURLBase }

// Payload builds the payload for one event, minting a fresh event ID.
func (t *Tracker) Payload(name string, properties map[string]any) (*EventPayload, error) {
	pv, err := encodeProperties(properties)
	if err != nil {
		return nil, &SerializationError{Event: name, Err: err}
	}
	return &EventPayload{
		EntityID:   t.entityID,
		DeviceID:   t.deviceID,
		AppVersion: t.appVersion,
		EventID:    t.ids.Generate(),
		Name:       name,
		Properties: pv,
	}, nil
}

// TrackEvent sends the named event with its properties as a single GET
// request. The transport's response and error are returned unchanged;
// non-2xx statuses are not treated as errors.
func (t *Tracker) TrackEvent(ctx context.Context, name string, properties map[string]any) (*http.Response, error) {
	payload, err := t.Payload(name, properties)
	if err != nil {
		return nil, err
	}

	u := t.logURLBase + "?" + payload.Encode()
	t.logger.Debug("Sending event", "event", name, "event_id", payload.EventID, "endpoint", t.logURLBase)

	return t.transport.Get(ctx, u)
}

// trackerLogger prefixes every message with "[FiveNine]".
type trackerLogger struct {
	logger *slog.Logger
}

func newTrackerLogger(logger *slog.Logger) *trackerLogger {
	return &trackerLogger{logger: logger}
}

func (l *trackerLogger) Debug(msg string, args ...any) {
	l.logger.Debug("[FiveNine] "+msg, args...)
}
