package services

import (
	"log"

	"anistream/repository"
)

// Theme values
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Preferences stores UI preferences that are not part of the session
type Preferences struct {
	kv repository.KeyValueStore
}

// NewPreferences creates a preference store on kv
func NewPreferences(kv repository.KeyValueStore) *Preferences {
	return &Preferences{kv: kv}
}

// Theme returns the stored theme; anything other than dark reads as light
func (p *Preferences) Theme() string {
	theme, _, err := p.kv.Get(repository.KeyTheme)
	if err != nil {
		log.Printf("Failed to read theme preference: %v", err)
	}
	if theme == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// SetTheme stores theme. Unknown themes are rejected.
func (p *Preferences) SetTheme(theme string) bool {
	if theme != ThemeDark && theme != ThemeLight {
		return false
	}
	if err := p.kv.Set(repository.KeyTheme, theme); err != nil {
		log.Printf("Failed to persist theme preference: %v", err)
	}
	return true
}
