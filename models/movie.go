package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMovie is returned when a movie fails validation
var ErrInvalidMovie = errors.New("invalid movie")

// MovieStatus determines which listing a movie appears in
type MovieStatus string

// Movie status constants
const (
	StatusRegular    MovieStatus = "regular"
	StatusLatest     MovieStatus = "latest"
	StatusComingSoon MovieStatus = "coming-soon"
)

// Valid reports whether s is one of the known statuses
func (s MovieStatus) Valid() bool {
	switch s {
	case StatusRegular, StatusLatest, StatusComingSoon:
		return true
	}
	return false
}

// MaxRating is the upper bound of the rating scale
const MaxRating = 10.0

// Movie represents a single catalog entry.
// JSON keys follow the browser snapshot format so exported catalogs load as-is.
type Movie struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Poster           string      `json:"poster"`
	Backdrop         string      `json:"backdrop,omitempty"`
	Rating           float64     `json:"rating"` // 0 means not yet released
	ReleaseDate      string      `json:"releaseDate"`
	Duration         string      `json:"duration,omitempty"`
	AgeRating        string      `json:"ageRating,omitempty"`
	Status           MovieStatus `json:"status"`
	Genres           []string    `json:"genres,omitempty"`
	ReleaseCountdown string      `json:"releaseCountdown,omitempty"` // coming-soon only
	Categories       []string    `json:"categories,omitempty"`
}

// Validate checks the fields every stored movie must carry
func (m *Movie) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMovie)
	}
	if strings.TrimSpace(m.Poster) == "" {
		return fmt.Errorf("%w: poster is required", ErrInvalidMovie)
	}
	if m.Rating < 0 || m.Rating > MaxRating {
		return fmt.Errorf("%w: rating %.1f out of range", ErrInvalidMovie, m.Rating)
	}
	if !m.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidMovie, m.Status)
	}
	return nil
}

// HasCategory reports whether the movie is tagged with category
func (m *Movie) HasCategory(category string) bool {
	for _, c := range m.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with m
func (m Movie) Clone() Movie {
	if m.Genres != nil {
		m.Genres = append([]string(nil), m.Genres...)
	}
	if m.Categories != nil {
		m.Categories = append([]string(nil), m.Categories...)
	}
	return m
}

// CatalogStats summarizes the catalog for the admin dashboard
type CatalogStats struct {
	Total      int                 `json:"total"`
	ByStatus   map[MovieStatus]int `json:"by_status"`
	ByCategory map[string]int      `json:"by_category"`
}
