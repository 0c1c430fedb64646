package journal

import (
	"context"
	"net/http"

	fivenine "github.com/burtcorp/fivenine-tracker-go"
)

type recordingTransport struct {
	db   *DB
	next fivenine.Transport
}

// Transport wraps next so that every request is recorded in the journal
// once it completes. The response and error of next are returned
// untouched; a failure to record is only logged.
func (db *DB) Transport(next fivenine.Transport) fivenine.Transport {
	return &recordingTransport{db: db, next: next}
}

func (t *recordingTransport) Get(ctx context.Context, url string) (*http.Response, error) {
	resp, err := t.next.Get(ctx, url)

	entry, perr := entryFromURL(url)
	if perr != nil {
		t.db.logger.Warn("[Journal] Unparseable request URL", "url", url, "error", perr)
	}
	if resp != nil {
		entry.Status = resp.StatusCode
	}
	if err != nil {
		entry.Error = err.Error()
	}

	if _, rerr := t.db.Record(entry); rerr != nil {
		t.db.logger.Warn("[Journal] Failed to record event", "event", entry.EventName, "error", rerr)
	}

	return resp, err
}
