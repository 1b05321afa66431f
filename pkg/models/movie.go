package models

import (
	"strings"
	"time"
)

// Movie is a MovieLens movie record. Genres holds the 18 genre flags in
// canonical order (see GenreColumns); a movie may carry any number of
// active genres, including none.
type Movie struct {
	ID          int
	Title       string
	ReleaseDate *time.Time
	IMDBURL     string
	Genres      [GenreCount]bool
}

// ActiveGenres returns the human-readable names of all active genre flags
// in canonical order.
func (m *Movie) ActiveGenres() []string {
	var names []string
	for i, active := range m.Genres {
		if active {
			names = append(names, GenreNames[i])
		}
	}
	return names
}

// GenreText returns the space-joined active genre names, or "general" when
// no genre flag is set.
func (m *Movie) GenreText() string {
	names := m.ActiveGenres()
	if len(names) == 0 {
		return "general"
	}
	return strings.Join(names, " ")
}

// EmbeddingText is the combined text handed to the text-embedding
// collaborator: title, a space, then the genre text.
func (m *Movie) EmbeddingText() string {
	return m.Title + " " + m.GenreText()
}

// ReleaseYear returns the release year, or 0 when the date is unknown.
func (m *Movie) ReleaseYear() int {
	if m.ReleaseDate == nil {
		return 0
	}
	return m.ReleaseDate.Year()
}
