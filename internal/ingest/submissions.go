// Package ingest reads submission batches exported by the upstream
// inspection-forms collector. The engine itself never touches the
// network; it sees only the finished batch.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/storematch/internal/engine"
	"github.com/storematch/internal/geo"
)

type submissionRecord struct {
	ID           string   `json:"id"`
	FormType     string   `json:"form_type"`
	SubmittedAt  string   `json:"submitted_at"`
	SubmittedBy  string   `json:"submitted_by"`
	LocationText string   `json:"location_text,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
}

// LoadSubmissions reads a JSON submission batch from disk.
func LoadSubmissions(path string) ([]*engine.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read submissions: %w", err)
	}
	return ParseSubmissions(data)
}

// ParseSubmissions decodes a batch. Records are validated enough to be
// processable; resolution fields arriving from upstream are ignored,
// the engine owns them.
func ParseSubmissions(data []byte) ([]*engine.Submission, error) {
	var records []submissionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse submissions: %w", err)
	}

	seen := make(map[string]bool, len(records))
	subs := make([]*engine.Submission, 0, len(records))

	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("submission %d has no id", i)
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("duplicate submission id %q", rec.ID)
		}
		seen[rec.ID] = true

		form := engine.FormType(rec.FormType)
		if form != engine.FormOperational && form != engine.FormSecurity {
			return nil, fmt.Errorf("submission %q has unknown form type %q", rec.ID, rec.FormType)
		}

		at, err := time.Parse(time.RFC3339, rec.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("submission %q has invalid timestamp: %w", rec.ID, err)
		}

		if (rec.Lat == nil) != (rec.Lon == nil) {
			return nil, fmt.Errorf("submission %q has half a coordinate pair", rec.ID)
		}

		sub := &engine.Submission{
			ID:           rec.ID,
			FormType:     form,
			SubmittedAt:  at,
			SubmittedBy:  rec.SubmittedBy,
			LocationText: rec.LocationText,
			Method:       engine.MethodUnresolved,
		}
		if rec.Lat != nil {
			sub.Coordinates = &geo.Point{Lat: *rec.Lat, Lon: *rec.Lon}
		}
		subs = append(subs, sub)
	}

	return subs, nil
}
