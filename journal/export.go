package journal

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
)

// ExportFormat defines the output format for exported entries.
type ExportFormat int

const (
	// JSON exports entries as a JSON array.
	JSON ExportFormat = iota
	// CSV exports entries as CSV with flattened properties.
	CSV
)

// ParseExportFormat maps "json" or "csv" to an ExportFormat.
func ParseExportFormat(s string) (ExportFormat, bool) {
	switch s {
	case "json", "JSON":
		return JSON, true
	case "csv", "CSV":
		return CSV, true
	default:
		return JSON, false
	}
}

// Export writes entries matching the query to w in the given format.
func (db *DB) Export(ctx context.Context, w io.Writer, q Query, format ExportFormat) error {
	entries, err := db.Query(ctx, q)
	if err != nil {
		return err
	}

	switch format {
	case CSV:
		return exportCSV(w, entries)
	default:
		return exportJSON(w, entries)
	}
}

func exportJSON(w io.Writer, entries []*Entry) error {
	if entries == nil {
		entries = []*Entry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

// exportCSV writes entries as CSV.
// Column order: id, timestamp, event_name, event_id, entity_id, device_id, status, error, prop_*
func exportCSV(w io.Writer, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	propKeys := collectPropertyKeys(entries)

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(buildCSVHeader(propKeys)); err != nil {
		return err
	}

	for _, entry := range entries {
		if err := writer.Write(buildCSVRow(entry, propKeys)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// collectPropertyKeys collects all unique property keys across entries.
func collectPropertyKeys(entries []*Entry) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		for k := range e.Properties {
			seen[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildCSVHeader(propKeys []string) []string {
	header := []string{"id", "timestamp", "event_name", "event_id", "entity_id", "device_id", "status", "error"}
	for _, k := range propKeys {
		header = append(header, "prop_"+k)
	}
	return header
}

func buildCSVRow(entry *Entry, propKeys []string) []string {
	row := []string{
		entry.ID.String(),
		entry.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		entry.EventName,
		entry.EventID,
		entry.EntityID,
		entry.DeviceID,
		strconv.Itoa(entry.Status),
		entry.Error,
	}

	for _, k := range propKeys {
		row = append(row, formatPropertyValue(entry.Properties[k]))
	}

	return row
}

// formatPropertyValue converts a property value to a CSV cell.
func formatPropertyValue(v any) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	default:
		// Use JSON encoding for numbers, arrays, objects, etc.
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
