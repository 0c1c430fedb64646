package fivenine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport(t *testing.T) {
	t.Parallel()

	var (
		gotMethod string
		gotAgent  string
		gotQuery  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAgent = r.Header.Get("User-Agent")
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tracker, err := New(testEntityID, Config{
		DeviceID:    testDeviceID,
		Transport:   NewHTTPTransport(srv.Client()),
		IDGenerator: IDGeneratorFunc(func() string { return fakeEventID }),
		LogURLBase:  srv.URL + "/log",
	})
	require.NoError(t, err)

	resp, err := tracker.TrackEvent(t.Context(), "foo", map[string]any{"foo": "bar"})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, UserAgent(), gotAgent)
	assert.Contains(t, gotQuery, "pv=%7B%22foo%22%3A%22bar%22%7D")
}

func TestHTTPTransportNonSuccessIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := NewHTTPTransport(nil).Get(t.Context(), srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHTTPTransportConnectionError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(nil).Get(t.Context(), addr)
	require.Error(t, err)
}

func TestHTTPTransportCanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := NewHTTPTransport(srv.Client()).Get(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTransportFunc(t *testing.T) {
	t.Parallel()

	var got string
	tr := TransportFunc(func(_ context.Context, url string) (*http.Response, error) {
		got = url
		return nil, nil
	})
	_, err := tr.Get(t.Context(), "http://example.com/log?x=1")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/log?x=1", got)
}
