package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LoadOrNew loads path, starting an empty registry when the file does not
// exist yet.
func LoadOrNew(path string) (*DestinationRegistry, error) {
	reg, err := LoadRegistry(path)
	if os.IsNotExist(err) {
		return &DestinationRegistry{Version: "1.0.0"}, nil
	}
	return reg, err
}

// Add appends a new destination.
func (r *DestinationRegistry) Add(d Destination) error {
	d.Country = strings.TrimSpace(d.Country)
	if d.Country == "" {
		return fmt.Errorf("country is required")
	}
	if _, ok := r.Find(d.Country); ok {
		return fmt.Errorf("destination %s already exists", d.Country)
	}
	r.Destinations = append(r.Destinations, d)
	return nil
}

// AddCity appends city to an existing destination.
func (r *DestinationRegistry) AddCity(country, city string) error {
	d, ok := r.Find(country)
	if !ok {
		return fmt.Errorf("destination %s not found", country)
	}
	city = strings.TrimSpace(city)
	for _, c := range d.Cities {
		if strings.EqualFold(c, city) {
			return fmt.Errorf("destination %s already lists %s", d.Country, city)
		}
	}
	d.Cities = append(d.Cities, city)
	return nil
}

// Remove drops a destination.
func (r *DestinationRegistry) Remove(country string) error {
	key := strings.ToLower(strings.TrimSpace(country))
	for i, d := range r.Destinations {
		if strings.ToLower(d.Country) == key {
			r.Destinations = append(r.Destinations[:i], r.Destinations[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("destination %s not found", country)
}

// Save validates the registry, stamps LastUpdated and writes it as indented
// JSON, creating the directory when needed.
func (r *DestinationRegistry) Save(path string, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.LastUpdated = now.UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
