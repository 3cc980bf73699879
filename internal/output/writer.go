// Package output maintains the latest-reading artifact consumed by the web
// front end. The artifact's absence is itself a signal: downstream clients
// treat a missing file as the station being offline.
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"weather-agent/internal/model"
)

// Writer writes the output artifact and, optionally, a raw-frame forwarding
// file for mirror servers.
type Writer struct {
	OutputFile     string
	ForwardingFile string // empty disables forwarding
}

// WriteLatest replaces the output artifact with the given reading, serialized
// as a single-element JSON array of flat key/value pairs.
func (w *Writer) WriteLatest(r model.Reading) error {
	b, err := json.Marshal([]map[string]string{r.Fields()})
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(w.OutputFile, b, 0o644); err != nil {
		return fmt.Errorf("write output artifact: %w", err)
	}
	return nil
}

// WriteForwarding stores the raw frame for pickup by mirror servers. A no-op
// when forwarding is not configured.
func (w *Writer) WriteForwarding(frame string) error {
	if w.ForwardingFile == "" {
		return nil
	}
	if err := os.WriteFile(w.ForwardingFile, []byte(frame+"\n"), 0o644); err != nil {
		return fmt.Errorf("write forwarding file: %w", err)
	}
	return nil
}

// Remove deletes the artifact and forwarding file if present, marking the
// station offline to downstream consumers.
func (w *Writer) Remove() {
	for _, path := range []string{w.OutputFile, w.ForwardingFile} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			os.Remove(path)
		}
	}
}
