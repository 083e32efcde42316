package listings

import "strings"

// SearchParams filter the listing catalog. Zero values mean "no constraint".
// Results are always ordered newest-created first.
type SearchParams struct {
	MinGuests     int
	LocationQuery string
	Host          HostID
	Limit         int
	Offset        int
}

// Normalized returns a copy with trimmed, lowercased text filters and a sane
// pagination window.
func (p SearchParams) Normalized() SearchParams {
	p.LocationQuery = strings.ToLower(strings.TrimSpace(p.LocationQuery))
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// MatchesLocation applies the case-insensitive substring filter over location
// and title, mirroring the catalog search behavior.
func (l *Listing) MatchesLocation(needle string) bool {
	if needle == "" {
		return true
	}
	haystack := strings.ToLower(l.Location + " " + l.Title)
	return strings.Contains(haystack, needle)
}
