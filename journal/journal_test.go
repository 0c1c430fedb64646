package journal

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	fivenine "github.com/burtcorp/fivenine-tracker-go"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testURL(name string) string {
	return "https://foobarbazqux.c.richmetrics.com/log?type=customevent&v=1&sn=1&ct=0" +
		"&e=FOOBARBAZQUX&ui=DEVDEVDEVDEV&av=v0.0.1-go&id=GENGENGENGEN&nm=" + name + "&pv=%7B%22foo%22%3A%22bar%22%7D"
}

func TestOpenClose(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Double close should return error
	if err := db.Close(); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestOpenInMemory(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Record(Entry{EventName: "foo", URL: testURL("foo")}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 entry, got %d", count)
	}
}

func TestRecord(t *testing.T) {
	db := openTestDB(t)

	entry, err := db.Record(Entry{
		EventName:  "signup",
		EventID:    "GENGENGENGEN",
		URL:        testURL("signup"),
		Properties: map[string]any{"plan": "pro"},
		Status:     http.StatusOK,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if entry.ID == (ulid.ULID{}) {
		t.Error("expected ID to be set")
	}
	if entry.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}

	got, err := db.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.EventName != "signup" {
		t.Errorf("EventName mismatch: got %s, want signup", got.EventName)
	}
	if got.Properties["plan"] != "pro" {
		t.Errorf("Property mismatch: got %v, want pro", got.Properties["plan"])
	}
	if got.Status != http.StatusOK {
		t.Errorf("Status mismatch: got %d, want 200", got.Status)
	}
}

func TestRecordRequiresURL(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Record(Entry{EventName: "foo"}); err != ErrEmptyURL {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Get(ulid.Make())
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOperationsOnClosed(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	_ = db.Close()

	if _, err := db.Record(Entry{URL: "x"}); err != ErrClosed {
		t.Errorf("Record: expected ErrClosed, got %v", err)
	}
	if _, err := db.Get(ulid.Make()); err != ErrClosed {
		t.Errorf("Get: expected ErrClosed, got %v", err)
	}
	if _, err := db.Query(context.Background(), Query{}); err != ErrClosed {
		t.Errorf("Query: expected ErrClosed, got %v", err)
	}
	if _, err := db.Count(); err != ErrClosed {
		t.Errorf("Count: expected ErrClosed, got %v", err)
	}
	if _, err := db.DeleteBefore(time.Now()); err != ErrClosed {
		t.Errorf("DeleteBefore: expected ErrClosed, got %v", err)
	}
}

func TestTransportRecordsEvents(t *testing.T) {
	db := openTestDB(t)

	next := fivenine.TransportFunc(func(_ context.Context, _ string) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusAccepted}, nil
	})

	tracker, err := fivenine.New("FOOBARBAZQUX", fivenine.Config{
		DeviceID:  "DEVDEVDEVDEV",
		Transport: db.Transport(next),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := tracker.TrackEvent(context.Background(), "page view", map[string]any{"path": "/home"})
	if err != nil {
		t.Fatalf("TrackEvent failed: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("expected response to pass through, got %d", resp.StatusCode)
	}

	entries, err := db.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.EventName != "page view" {
		t.Errorf("EventName: got %q", e.EventName)
	}
	if !fivenine.ValidEventID(e.EventID) {
		t.Errorf("EventID: got %q", e.EventID)
	}
	if e.EntityID != "FOOBARBAZQUX" || e.DeviceID != "DEVDEVDEVDEV" {
		t.Errorf("identifiers: got %q/%q", e.EntityID, e.DeviceID)
	}
	if e.Properties["path"] != "/home" {
		t.Errorf("Properties: got %v", e.Properties)
	}
	if e.Status != http.StatusAccepted || e.Failed() {
		t.Errorf("Status: got %d, error %q", e.Status, e.Error)
	}
}

func TestTransportRecordsFailures(t *testing.T) {
	db := openTestDB(t)

	boom := errors.New("dial tcp: connection refused")
	tr := db.Transport(fivenine.TransportFunc(func(_ context.Context, _ string) (*http.Response, error) {
		return nil, boom
	}))

	_, err := tr.Get(context.Background(), testURL("foo"))
	if err != boom {
		t.Fatalf("expected transport error to pass through, got %v", err)
	}

	entries, err := db.Query(context.Background(), Query{FailedOnly: true})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 failed entry, got %d", len(entries))
	}
	if entries[0].Error != boom.Error() || entries[0].Status != 0 {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestTransportKeepsResultWhenRecordFails(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}
	_ = db.Close()

	want := &http.Response{StatusCode: http.StatusOK}
	tr := db.Transport(fivenine.TransportFunc(func(_ context.Context, _ string) (*http.Response, error) {
		return want, nil
	}))

	got, err := tr.Get(context.Background(), testURL("foo"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("expected the wrapped response")
	}
}
