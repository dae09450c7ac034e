// Package services holds the catalog and session stores consumed by the API.
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"anistream/models"
	"anistream/repository"
)

var (
	// ErrDuplicateID is returned by Add when the id is already in the catalog
	ErrDuplicateID = errors.New("movie id already exists")
	// ErrInvalidSnapshot is returned when a persisted catalog cannot be used
	ErrInvalidSnapshot = errors.New("invalid catalog snapshot")
)

// Listing sizes for the home page rows
const (
	TrendingLimit   = 6
	LatestLimit     = 5
	ComingSoonLimit = 4
)

// CatalogStore owns the movie collection and its derived listings.
// Every mutation writes a full snapshot to the key-value store.
type CatalogStore struct {
	mu    sync.RWMutex
	kv    repository.KeyValueStore
	byID  map[string]*models.Movie
	order []string // insertion order of ids
	dirty bool     // last snapshot write failed
	seed  func() []models.Movie
	now   func() time.Time
}

// CatalogOption configures a CatalogStore
type CatalogOption func(*CatalogStore)

// WithSeed replaces the bundled seed dataset
func WithSeed(seed func() []models.Movie) CatalogOption {
	return func(c *CatalogStore) { c.seed = seed }
}

// WithClock sets the clock used to derive ids for new movies
func WithClock(now func() time.Time) CatalogOption {
	return func(c *CatalogStore) { c.now = now }
}

// NewCatalogStore creates a catalog and loads it from kv. When no snapshot
// exists, or the snapshot cannot be read, the seed dataset is used.
func NewCatalogStore(kv repository.KeyValueStore, opts ...CatalogOption) *CatalogStore {
	c := &CatalogStore{
		kv:   kv,
		seed: SeedMovies,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c
}

func (c *CatalogStore) load() {
	raw, ok, err := c.kv.Get(repository.KeyMovies)
	if err != nil {
		// The stored snapshot may still be intact; leave it for the next mutation to replace.
		log.Printf("Failed to read catalog snapshot, using seed data: %v", err)
		c.replace(c.seed())
		return
	}
	if !ok {
		c.replace(c.seed())
		c.persist()
		log.Printf("Catalog initialized from seed data (%d movies)", len(c.order))
		return
	}

	movies, err := decodeSnapshot([]byte(raw))
	if err != nil {
		log.Printf("Failed to decode catalog snapshot, using seed data: %v", err)
		c.replace(c.seed())
		c.persist()
		return
	}

	if dropped := c.replace(movies); dropped > 0 {
		log.Printf("Dropped %d movies with duplicate ids from catalog snapshot", dropped)
		c.persist()
	}
	log.Printf("Catalog loaded (%d movies)", len(c.order))
}

// replace swaps the collection for movies, keeping the first of any
// duplicate ids. It returns how many records were dropped.
func (c *CatalogStore) replace(movies []models.Movie) int {
	c.byID = make(map[string]*models.Movie, len(movies))
	c.order = make([]string, 0, len(movies))

	dropped := 0
	for _, m := range movies {
		if _, exists := c.byID[m.ID]; exists {
			dropped++
			continue
		}
		movie := m.Clone()
		c.byID[movie.ID] = &movie
		c.order = append(c.order, movie.ID)
	}
	return dropped
}

// decodeSnapshot parses a persisted catalog. Every record must carry an id
// and pass Validate, and a null document is refused; one bad record
// rejects the whole snapshot.
func decodeSnapshot(data []byte) ([]models.Movie, error) {
	var movies []models.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if movies == nil {
		return nil, fmt.Errorf("%w: missing movie list", ErrInvalidSnapshot)
	}

	for i := range movies {
		if movies[i].ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrInvalidSnapshot, i)
		}
		if err := movies[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: movie %s: %v", ErrInvalidSnapshot, movies[i].ID, err)
		}
	}
	return movies, nil
}

func (c *CatalogStore) encode() ([]byte, error) {
	movies := make([]models.Movie, 0, len(c.order))
	for _, id := range c.order {
		movies = append(movies, *c.byID[id])
	}
	return json.Marshal(movies)
}

// persist writes the snapshot. Failures are logged and leave the store
// dirty; the in-memory collection stays authoritative.
func (c *CatalogStore) persist() {
	if err := c.write(); err != nil {
		log.Printf("Failed to persist catalog: %v", err)
		c.dirty = true
		return
	}
	c.dirty = false
}

func (c *CatalogStore) write() error {
	data, err := c.encode()
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return c.kv.Set(repository.KeyMovies, string(data))
}

// Add appends a movie. An empty id is derived from the current time in
// milliseconds. Existing ids are rejected with ErrDuplicateID.
func (c *CatalogStore) Add(movie *models.Movie) error {
	if err := movie.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if movie.ID == "" {
		movie.ID = c.nextID()
	} else if _, exists := c.byID[movie.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, movie.ID)
	}

	stored := movie.Clone()
	c.byID[stored.ID] = &stored
	c.order = append(c.order, stored.ID)
	c.persist()
	return nil
}

func (c *CatalogStore) nextID() string {
	n := c.now().UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if _, exists := c.byID[id]; !exists {
			return id
		}
		n++
	}
}

// Update replaces the movie with the same id, keeping its position.
// A missing id or an invalid movie leaves the catalog untouched and
// returns false.
func (c *CatalogStore) Update(movie models.Movie) bool {
	if err := movie.Validate(); err != nil {
		log.Printf("Ignoring invalid update for movie %s: %v", movie.ID, err)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[movie.ID]; !exists {
		return false
	}

	stored := movie.Clone()
	c.byID[movie.ID] = &stored
	c.persist()
	return true
}

// Delete removes the movie with id. Deleting a missing id is a no-op
// and returns false.
func (c *CatalogStore) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[id]; !exists {
		return false
	}

	delete(c.byID, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.persist()
	return true
}

// Get returns the movie with id
func (c *CatalogStore) Get(id string) (models.Movie, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.byID[id]
	if !ok {
		return models.Movie{}, false
	}
	return m.Clone(), true
}

// Len returns the number of movies in the catalog
func (c *CatalogStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// filter returns copies of the movies matching keep, in insertion order,
// stopping after limit matches when limit > 0.
func (c *CatalogStore) filter(limit int, keep func(*models.Movie) bool) []models.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := []models.Movie{}
	for _, id := range c.order {
		m := c.byID[id]
		if !keep(m) {
			continue
		}
		result = append(result, m.Clone())
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// All returns the whole catalog in insertion order
func (c *CatalogStore) All() []models.Movie {
	return c.filter(0, func(*models.Movie) bool { return true })
}

// ByCategory returns the movies tagged with category. An empty category
// selects the whole catalog.
func (c *CatalogStore) ByCategory(category string) []models.Movie {
	if category == "" {
		return c.All()
	}
	return c.filter(0, func(m *models.Movie) bool { return m.HasCategory(category) })
}

func (c *CatalogStore) byStatus(status models.MovieStatus, limit int) []models.Movie {
	return c.filter(limit, func(m *models.Movie) bool { return m.Status == status })
}

// Trending returns the first regular releases
func (c *CatalogStore) Trending() []models.Movie {
	return c.byStatus(models.StatusRegular, TrendingLimit)
}

// Latest returns the first latest releases
func (c *CatalogStore) Latest() []models.Movie {
	return c.byStatus(models.StatusLatest, LatestLimit)
}

// ComingSoon returns the first upcoming releases
func (c *CatalogStore) ComingSoon() []models.Movie {
	return c.byStatus(models.StatusComingSoon, ComingSoonLimit)
}

// Search returns movies whose title contains query, ignoring case
func (c *CatalogStore) Search(query string) []models.Movie {
	q := strings.ToLower(strings.TrimSpace(query))
	return c.filter(0, func(m *models.Movie) bool {
		return strings.Contains(strings.ToLower(m.Title), q)
	})
}

// Categories lists every category in the catalog in first-seen order
func (c *CatalogStore) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	categories := []string{}
	for _, id := range c.order {
		for _, cat := range c.byID[id].Categories {
			if !seen[cat] {
				seen[cat] = true
				categories = append(categories, cat)
			}
		}
	}
	return categories
}

// Stats counts movies by status and category
func (c *CatalogStore) Stats() *models.CatalogStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := &models.CatalogStats{
		Total:      len(c.order),
		ByStatus:   make(map[models.MovieStatus]int),
		ByCategory: make(map[string]int),
	}
	for _, id := range c.order {
		m := c.byID[id]
		stats.ByStatus[m.Status]++
		for _, cat := range m.Categories {
			stats.ByCategory[cat]++
		}
	}
	return stats
}

// Snapshot returns the catalog in its persisted form
func (c *CatalogStore) Snapshot() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encode()
}

// Restore replaces the catalog with a persisted snapshot. An invalid
// snapshot leaves the catalog untouched.
func (c *CatalogStore) Restore(data []byte) error {
	movies, err := decodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("failed to restore catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if dropped := c.replace(movies); dropped > 0 {
		log.Printf("Dropped %d movies with duplicate ids from restored snapshot", dropped)
	}
	c.persist()
	return nil
}

// Dirty reports whether the last snapshot write failed
func (c *CatalogStore) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Flush retries a failed snapshot write
func (c *CatalogStore) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}
	if err := c.write(); err != nil {
		return fmt.Errorf("failed to flush catalog: %w", err)
	}
	c.dirty = false
	return nil
}

// Close flushes any pending snapshot
func (c *CatalogStore) Close() error {
	return c.Flush()
}
