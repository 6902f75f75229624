package traveler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSV column headers.
const (
	ColumnName       = "Traveller_Name"
	ColumnSeasons    = "Preferred_Time_of_Year"
	ColumnActivities = "Preferred_Activities"
	ColumnBudget     = "Max_Budget"
	ColumnVisited    = "Countries_Visited"
)

var requiredColumns = []string{ColumnName, ColumnSeasons, ColumnActivities, ColumnBudget, ColumnVisited}

// Store exposes traveler profile retrieval.
type Store interface {
	List() []Profile
	FindByName(name string) (Profile, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Profile
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied profiles.
func NewMemoryStore(items []Profile) *MemoryStore {
	return &MemoryStore{items: append([]Profile(nil), items...)}
}

// List returns all profiles in file order.
func (s *MemoryStore) List() []Profile {
	return append([]Profile(nil), s.items...)
}

// FindByName looks a traveler up case-insensitively. The first row wins.
func (s *MemoryStore) FindByName(name string) (Profile, bool) {
	for _, item := range s.items {
		if strings.EqualFold(item.Name, name) {
			return item, true
		}
	}
	return Profile{}, false
}

// LoadCSV reads the preference file at path.
func LoadCSV(path string) (*MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	store, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return store, nil
}

// ParseCSV builds a store from CSV content with a header row.
func ParseCSV(r io.Reader) (*MemoryStore, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return NewMemoryStore(nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var profiles []Profile
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		field := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		name := field(ColumnName)
		if name == "" {
			continue
		}

		profiles = append(profiles, Profile{
			Name:             name,
			PreferredSeasons: lowerAll(splitCell(field(ColumnSeasons))),
			Activities:       splitCell(field(ColumnActivities)),
			Budget:           field(ColumnBudget),
			Visited:          splitCell(field(ColumnVisited)),
		})
	}

	return NewMemoryStore(profiles), nil
}

// splitCell strips wrapping quotes and splits a comma separated cell.
func splitCell(raw string) []string {
	cleaned := strings.Trim(raw, `"`)
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}
	parts := strings.Split(cleaned, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func lowerAll(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values
}
