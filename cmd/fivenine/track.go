package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	fivenine "github.com/burtcorp/fivenine-tracker-go"
	"github.com/burtcorp/fivenine-tracker-go/internal/device"
	"github.com/burtcorp/fivenine-tracker-go/tracing"
)

const maxParallelSends = 8

type trackFlags struct {
	entityID   string
	deviceID   string
	logURLBase string
	deviceFile string
	props      []string
	propsJSON  string
	repeat     int
	trace      bool
}

func newTrackCmd(root *rootFlags) *cobra.Command {
	var flags trackFlags

	cmd := &cobra.Command{
		Use:   "track NAME",
		Short: "Send a custom event",
		Example: `  fivenine track signup --entity FOOBARBAZQUX --prop plan=pro --prop seats=3
  fivenine track page-view --props-json '{"path":"/home"}' --repeat 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(cmd, root, &flags, args[0])
		},
	}

	cmd.Flags().StringVarP(&flags.entityID, "entity", "e", "", "Entity ID (12 alphanumeric characters)")
	cmd.Flags().StringVar(&flags.deviceID, "device", "", "Device ID (defaults to the persisted device ID)")
	cmd.Flags().StringVar(&flags.logURLBase, "url", "", "Collector endpoint (defaults to https://<entity>.c.richmetrics.com/log)")
	cmd.Flags().StringVar(&flags.deviceFile, "device-file", device.DefaultPath(), "Device ID file used when no device ID is configured")
	cmd.Flags().StringArrayVarP(&flags.props, "prop", "p", nil, "Event property as key=value, repeatable")
	cmd.Flags().StringVar(&flags.propsJSON, "props-json", "", "Event properties as a JSON object")
	cmd.Flags().IntVarP(&flags.repeat, "repeat", "n", 1, "Number of times to send the event")
	cmd.Flags().BoolVar(&flags.trace, "trace", false, "Write OpenTelemetry spans to stderr")

	return cmd
}

func runTrack(cmd *cobra.Command, root *rootFlags, flags *trackFlags, name string) error {
	ctx := cmd.Context()
	cfg := root.cfg

	if flags.entityID != "" {
		cfg.EntityID = flags.entityID
	}
	if flags.deviceID != "" {
		cfg.DeviceID = flags.deviceID
	}
	if flags.logURLBase != "" {
		cfg.LogURLBase = flags.logURLBase
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if flags.repeat < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", flags.repeat)
	}

	props, err := parseProperties(flags.propsJSON, flags.props)
	if err != nil {
		return err
	}

	if cfg.DeviceID == "" {
		if cfg.DeviceID, err = device.Load(flags.deviceFile, nil); err != nil {
			return err
		}
	}

	var transport fivenine.Transport = fivenine.NewHTTPTransport(&http.Client{Timeout: cfg.Timeout})

	if cfg.JournalPath != "" {
		db, err := root.openJournal()
		if err != nil {
			return err
		}
		defer db.Close()
		transport = db.Transport(transport)
	}

	if flags.trace {
		tp, err := tracing.NewWriterProvider(ctx, cmd.ErrOrStderr(), "fivenine")
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(ctx) }()
		transport = tracing.Transport(transport, tracing.WithTracerProvider(tp))
	}

	tracker, err := fivenine.New(cfg.EntityID, fivenine.Config{
		DeviceID:   cfg.DeviceID,
		Transport:  transport,
		LogURLBase: cfg.LogURLBase,
		Logger:     root.logger,
	})
	if err != nil {
		return err
	}

	var mu sync.Mutex
	out := cmd.OutOrStdout()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSends)
	for range flags.repeat {
		g.Go(func() error {
			resp, err := tracker.TrackEvent(gctx, name, props)
			if err != nil {
				return err
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "%s: %s\n", name, resp.Status)
			return nil
		})
	}

	return g.Wait()
}

// parseProperties merges a JSON object with key=value pairs. Values that
// parse as JSON (numbers, booleans, objects) keep their type, anything else
// is sent as a string.
func parseProperties(rawJSON string, pairs []string) (map[string]any, error) {
	props := make(map[string]any)

	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &props); err != nil {
			return nil, fmt.Errorf("--props-json: %w", err)
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--prop %q: expected key=value", pair)
		}

		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		props[key] = v
	}

	return props, nil
}
