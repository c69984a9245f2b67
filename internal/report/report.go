// Package report renders a comparison run for the caller-facing
// boundary: JSON for the machine consumers (spreadsheet and
// notification collaborators live outside this repo) and plain text
// for terminals.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/schemadrift/schemadrift/internal/schema"
)

// WriteJSON emits the whole run as indented JSON.
func WriteJSON(w io.Writer, run *schema.ComparisonRun) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

// ReadJSON loads a run previously written by WriteJSON.
func ReadJSON(r io.Reader) (*schema.ComparisonRun, error) {
	var run schema.ComparisonRun
	if err := json.NewDecoder(r).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode comparison report: %w", err)
	}
	return &run, nil
}

// WriteText emits a human-readable summary, grouped by table in the
// run's deterministic entry order.
func WriteText(w io.Writer, run *schema.ComparisonRun) error {
	if len(run.Entries) == 0 && len(run.Errors) == 0 {
		_, err := fmt.Fprintf(w, "%s and %s match\n", run.LeftName, run.RightName)
		return err
	}

	lastTable := ""
	for _, e := range run.Entries {
		if e.Table != lastTable {
			if _, err := fmt.Fprintf(w, "%s\n", e.Table); err != nil {
				return err
			}
			lastTable = e.Table
		}
		subject := e.Subject
		if subject == "" {
			subject = "(table)"
		}
		if _, err := fmt.Fprintf(w, "  %-28s %-26s %s\n", subject, e.Category, e.Detail); err != nil {
			return err
		}
	}

	if len(run.Errors) > 0 {
		if _, err := fmt.Fprintf(w, "\n%d table(s) could not be compared:\n", len(run.Errors)); err != nil {
			return err
		}
		for _, te := range run.Errors {
			name := te.Table
			if name == "" {
				name = "(unknown)"
			}
			if _, err := fmt.Fprintf(w, "  %s: %s\n", name, te.Err); err != nil {
				return err
			}
		}
	}
	return nil
}
