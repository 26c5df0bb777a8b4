package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/storematch/internal/geo"
)

// directoryFile is the on-disk shape of the store registry. The file
// is curated externally; corrections are data here, never code.
type directoryFile struct {
	Quotas map[string]quotaEntry `yaml:"quotas"`
	Stores []storeEntry          `yaml:"stores"`
}

type quotaEntry struct {
	Operational int `yaml:"operational"`
	Security    int `yaml:"security"`
}

type storeEntry struct {
	ID             int      `yaml:"id"`
	Name           string   `yaml:"name"`
	Aliases        []string `yaml:"aliases"`
	Lat            *float64 `yaml:"lat"`
	Lon            *float64 `yaml:"lon"`
	Classification string   `yaml:"classification"`
	Group          string   `yaml:"group"`
}

// LoadDirectory reads and validates a YAML store registry. Any
// validation failure is a ConfigurationError and aborts the run.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}
	return ParseDirectory(data)
}

// ParseDirectory builds a Directory from raw YAML.
func ParseDirectory(data []byte) (*Directory, error) {
	var file directoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse store directory: %w", err)
	}

	quotas := DefaultQuotaTable()
	for name, q := range file.Quotas {
		if q.Operational < 0 || q.Security < 0 {
			return nil, &ConfigurationError{Detail: fmt.Sprintf("classification %q has negative quota", name)}
		}
		quotas[Classification(name)] = Quota{Operational: q.Operational, Security: q.Security}
	}

	records := make([]StoreRecord, 0, len(file.Stores))
	for _, entry := range file.Stores {
		rec := StoreRecord{
			ID:             entry.ID,
			Name:           entry.Name,
			Aliases:        entry.Aliases,
			Classification: Classification(entry.Classification),
			Group:          entry.Group,
		}
		if (entry.Lat == nil) != (entry.Lon == nil) {
			return nil, &ConfigurationError{Detail: fmt.Sprintf("store %d has half a coordinate pair", entry.ID)}
		}
		if entry.Lat != nil {
			rec.Coordinates = &geo.Point{Lat: *entry.Lat, Lon: *entry.Lon}
		}
		records = append(records, rec)
	}

	return NewDirectory(records, quotas)
}
