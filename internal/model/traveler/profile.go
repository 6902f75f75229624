package traveler

import "strings"

// Profile captures one traveler's row of TravelPreference.csv.
type Profile struct {
	Name             string   `json:"name"`
	PreferredSeasons []string `json:"preferredSeasons"`
	Activities       []string `json:"activities"`
	Budget           string   `json:"budget"`
	Visited          []string `json:"visited"`
}

// Prefers reports whether season is one of the traveler's preferred seasons.
func (p Profile) Prefers(season string) bool {
	want := strings.ToLower(strings.TrimSpace(season))
	for _, s := range p.PreferredSeasons {
		if s == want {
			return true
		}
	}
	return false
}
