package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fivenine "github.com/burtcorp/fivenine-tracker-go"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

type collector struct {
	mu      sync.Mutex
	queries []url.Values
	srv     *httptest.Server
}

func newCollector(t *testing.T) *collector {
	t.Helper()

	c := &collector{}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.queries = append(c.queries, r.URL.Query())
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *collector) Queries() []url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]url.Values{}, c.queries...)
}

func TestTrackCommand(t *testing.T) {
	c := newCollector(t)
	journalDir := filepath.Join(t.TempDir(), "journal")

	out, err := runCLI(t, "track", "signup",
		"--entity", "FOOBARBAZQUX",
		"--device", "DEVDEVDEVDEV",
		"--url", c.srv.URL+"/log",
		"--journal", journalDir,
		"--prop", "plan=pro",
		"--prop", "seats=3",
		"--repeat", "3",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "signup: 204 No Content"))

	queries := c.Queries()
	require.Len(t, queries, 3)
	for _, q := range queries {
		assert.Equal(t, "FOOBARBAZQUX", q.Get("e"))
		assert.Equal(t, "DEVDEVDEVDEV", q.Get("ui"))
		assert.Equal(t, "signup", q.Get("nm"))
		assert.True(t, fivenine.ValidEventID(q.Get("id")))
		assert.JSONEq(t, `{"plan":"pro","seats":3}`, q.Get("pv"))
	}

	out, err = runCLI(t, "journal", "stats", "--journal", journalDir)
	require.NoError(t, err)
	assert.Contains(t, out, "events: 3 (failed: 0)")

	out, err = runCLI(t, "journal", "export", "--journal", journalDir, "--format", "json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 3)

	out, err = runCLI(t, "journal", "list", "--journal", journalDir, "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "\n")+1)

	out, err = runCLI(t, "journal", "prune", "--journal", journalDir, "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 0 entries")
}

func TestTrackCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing entity", args: []string{"track", "foo", "--device", "DEVDEVDEVDEV"}, want: "entity ID is not set"},
		{name: "invalid entity", args: []string{"track", "foo", "--entity", "short", "--device", "DEVDEVDEVDEV"}, want: "invalid entity ID"},
		{name: "invalid device", args: []string{"track", "foo", "--entity", "FOOBARBAZQUX", "--device", "short"}, want: "invalid device ID"},
		{name: "bad prop", args: []string{"track", "foo", "--entity", "FOOBARBAZQUX", "--device", "DEVDEVDEVDEV", "--prop", "novalue"}, want: "expected key=value"},
		{name: "bad repeat", args: []string{"track", "foo", "--entity", "FOOBARBAZQUX", "--repeat", "0"}, want: "--repeat"},
		{name: "no journal", args: []string{"journal", "list"}, want: "no journal configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDeviceIDCommand(t *testing.T) {
	file := filepath.Join(t.TempDir(), "device-id")

	first, err := runCLI(t, "device-id", "--file", file)
	require.NoError(t, err)
	assert.True(t, fivenine.ValidIdentifier(strings.TrimSpace(first)), first)

	second, err := runCLI(t, "device-id", "--file", file)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseProperties(t *testing.T) {
	props, err := parseProperties(`{"a":1,"b":"x"}`, []string{"b=y", "c=true", "d=hello world"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": "y", "c": true, "d": "hello world"}, props)

	_, err = parseProperties(`[1,2]`, nil)
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fivenine version "+fivenine.Version)
}
