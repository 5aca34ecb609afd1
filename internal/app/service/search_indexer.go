package service

import (
	"strings"

	"github.com/ikkim/venue-backend/internal/app/model"
	"golang.org/x/text/width"
)

// SearchIndex holds the precomputed search text of each venue. Build it once
// per loaded collection, not per query.
type SearchIndex struct {
	entries map[uint]string
}

// normalizeSearchText lowercases s and folds full-width ASCII and half-width
// katakana so "ＮＯＣ" and "noc" compare equal.
func normalizeSearchText(s string) string {
	return strings.ToLower(width.Fold.String(s))
}

// BuildIndex derives the search text for every venue. Fields are joined by
// newlines so a query never matches across two fields.
func BuildIndex(venues []model.Venue) SearchIndex {
	entries := make(map[uint]string, len(venues))
	for i := range venues {
		entries[venues[i].ID] = indexText(&venues[i])
	}
	return SearchIndex{entries: entries}
}

func indexText(v *model.Venue) string {
	parts := make([]string, 0, 4+2*len(v.Stations)+len(v.Tags))
	parts = append(parts, v.Name, v.Prefecture, v.City, v.Address)
	for i := range v.Stations {
		parts = append(parts, v.Stations[i].StationName, v.Stations[i].LineName)
	}
	parts = append(parts, v.Tags...)
	return normalizeSearchText(strings.Join(parts, "\n"))
}

// Len is the number of indexed venues.
func (idx SearchIndex) Len() int {
	return len(idx.entries)
}

// Text returns the indexed text for id.
func (idx SearchIndex) Text(id uint) (string, bool) {
	text, ok := idx.entries[id]
	return text, ok
}

// Match reports whether query occurs in the venue's indexed text or, for
// venues missing from the index, in its raw fields.
func (idx SearchIndex) Match(v *model.Venue, query string) bool {
	if text, ok := idx.entries[v.ID]; ok {
		return strings.Contains(text, normalizeSearchText(query))
	}
	return rawFieldsContain(v, strings.ToLower(query))
}

func rawFieldsContain(v *model.Venue, lowerQuery string) bool {
	for _, field := range []string{v.Name, v.Prefecture, v.City, v.Address} {
		if strings.Contains(strings.ToLower(field), lowerQuery) {
			return true
		}
	}
	for i := range v.Stations {
		if strings.Contains(strings.ToLower(v.Stations[i].StationName), lowerQuery) ||
			strings.Contains(strings.ToLower(v.Stations[i].LineName), lowerQuery) {
			return true
		}
	}
	for _, tag := range v.Tags {
		if strings.Contains(strings.ToLower(tag), lowerQuery) {
			return true
		}
	}
	return false
}

// Search returns the venues matching query in input order. An empty query
// matches nothing; callers decide what "no query" means.
func (idx SearchIndex) Search(venues []model.Venue, query string) []model.Venue {
	result := make([]model.Venue, 0, len(venues))
	if query == "" {
		return result
	}
	for i := range venues {
		if idx.Match(&venues[i], query) {
			result = append(result, venues[i])
		}
	}
	return result
}
