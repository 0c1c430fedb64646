package fivenine

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

// Transport performs the GET request carrying an event ping. The tracker
// does not inspect the response; callers that receive one must close its
// body.
type Transport interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, url string) (*http.Response, error)

// Get calls f.
func (f TransportFunc) Get(ctx context.Context, url string) (*http.Response, error) {
	return f(ctx, url)
}

const defaultHTTPTimeout = 30 * time.Second

type httpTransport struct {
	client *http.Client
	agent  string
}

// NewHTTPTransport returns a Transport issuing requests through client. A
// nil client is replaced by one with a 30 second timeout.
func NewHTTPTransport(client *http.Client) Transport {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &httpTransport{
		client: client,
		agent:  UserAgent(),
	}
}

// UserAgent is the User-Agent header sent by the HTTP transport.
func UserAgent() string {
	return fmt.Sprintf("fivenine-tracker-go/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH)
}

func (t *httpTransport) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", t.agent)
	return t.client.Do(req)
}
