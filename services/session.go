package services

import (
	"fmt"
	"log"
	"sync"

	"anistream/models"
	"anistream/repository"
)

// AdminCredentials is the privileged identifier/secret pair
type AdminCredentials struct {
	Identifier string `yaml:"identifier"`
	Secret     string `yaml:"secret"`
}

// DefaultAdminCredentials returns the demo admin pair
func DefaultAdminCredentials() AdminCredentials {
	return AdminCredentials{Identifier: "Shawaiz", Secret: "231980079"}
}

func (a AdminCredentials) matches(identifier, secret string) bool {
	return a.Identifier != "" && identifier == a.Identifier && secret == a.Secret
}

var sessionKeys = []string{
	repository.KeyIsLoggedIn,
	repository.KeyUserRole,
	repository.KeyUserName,
	repository.KeyUserEmail,
}

// SessionStore holds the mocked authentication state.
//
// Credentials are never verified against anything: the admin pair yields
// an admin session and any other non-empty pair a user session. Failures
// are reported as false and never change the session.
type SessionStore struct {
	mu      sync.RWMutex
	kv      repository.KeyValueStore
	admin   AdminCredentials
	session models.Session
	dirty   bool
}

// NewSessionStore creates a session store and restores any persisted session
func NewSessionStore(kv repository.KeyValueStore, admin AdminCredentials) *SessionStore {
	s := &SessionStore{kv: kv, admin: admin}
	s.restore()
	return s
}

func (s *SessionStore) restore() {
	loggedIn, _, err := s.kv.Get(repository.KeyIsLoggedIn)
	if err != nil {
		log.Printf("Failed to read persisted session: %v", err)
		return
	}
	if loggedIn != "true" {
		return
	}

	rawRole, _, err := s.kv.Get(repository.KeyUserRole)
	if err != nil {
		log.Printf("Failed to read persisted role: %v", err)
		return
	}
	role, ok := models.ParseRole(rawRole)
	if !ok {
		log.Printf("Ignoring persisted session with unknown role %q", rawRole)
		return
	}

	s.session = models.Session{LoggedIn: true, Role: role}
	if name, ok, err := s.kv.Get(repository.KeyUserName); err == nil && ok {
		s.session.DisplayName = name
	}
	if email, ok, err := s.kv.Get(repository.KeyUserEmail); err == nil && ok {
		s.session.Email = email
	}
	log.Printf("Restored %s session", role)
}

// Login starts a session. The admin pair yields an admin session, any other
// pair of non-empty values a user session. Over an active session, a login
// resolving to the same role succeeds without changing anything; a role
// change is refused until the caller logs out.
func (s *SessionStore) Login(identifier, secret string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var role models.Role
	switch {
	case s.admin.matches(identifier, secret):
		role = models.RoleAdmin
	case identifier != "" && secret != "":
		role = models.RoleUser
	default:
		return false
	}

	if s.session.LoggedIn {
		return s.session.Role == role
	}
	s.start(models.Session{LoggedIn: true, Role: role})
	return true
}

// LoginAdmin starts an admin session; only the admin pair is accepted.
// An active admin session is left as is.
func (s *SessionStore) LoginAdmin(identifier, secret string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.admin.matches(identifier, secret) {
		return false
	}
	if s.session.LoggedIn {
		return s.session.Role == models.RoleAdmin
	}
	s.start(models.Session{LoggedIn: true, Role: models.RoleAdmin})
	return true
}

// Register starts a user session named after the new account. All three
// values must be non-empty.
func (s *SessionStore) Register(name, email, secret string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.LoggedIn || name == "" || email == "" || secret == "" {
		return false
	}
	s.start(models.Session{LoggedIn: true, Role: models.RoleUser, DisplayName: name, Email: email})
	return true
}

// UpdateProfile changes the display name and email of the active session
func (s *SessionStore) UpdateProfile(name, email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.LoggedIn || name == "" {
		return false
	}
	s.session.DisplayName = name
	s.session.Email = email
	s.persist()
	return true
}

// Logout ends the session and drops every persisted session key.
// Calling it without a session is harmless.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = models.Session{}
	s.persist()
}

func (s *SessionStore) start(session models.Session) {
	s.session = session
	s.persist()
}

// persist mirrors the in-memory session into the key-value store
func (s *SessionStore) persist() {
	if err := s.write(); err != nil {
		log.Printf("Failed to persist session: %v", err)
		s.dirty = true
		return
	}
	s.dirty = false
}

func (s *SessionStore) write() error {
	if !s.session.LoggedIn {
		for _, key := range sessionKeys {
			if err := s.kv.Remove(key); err != nil {
				return err
			}
		}
		return nil
	}

	values := map[string]string{
		repository.KeyIsLoggedIn: "true",
		repository.KeyUserRole:   string(s.session.Role),
		repository.KeyUserName:   s.session.DisplayName,
		repository.KeyUserEmail:  s.session.Email,
	}
	for _, key := range sessionKeys {
		var err error
		if values[key] == "" {
			err = s.kv.Remove(key)
		} else {
			err = s.kv.Set(key, values[key])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// IsLoggedIn reports whether a session is active
func (s *SessionStore) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.LoggedIn
}

// Role returns the role of the active session, RoleNone when anonymous
func (s *SessionStore) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Role
}

// IsAdmin reports whether the active session is an admin session
func (s *SessionStore) IsAdmin() bool {
	return s.Role() == models.RoleAdmin
}

// DisplayName returns the name given at registration or profile update
func (s *SessionStore) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.DisplayName
}

// Snapshot returns a copy of the current session
func (s *SessionStore) Snapshot() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Dirty reports whether the last session write failed
func (s *SessionStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Flush retries a failed session write
func (s *SessionStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := s.write(); err != nil {
		return fmt.Errorf("failed to flush session: %w", err)
	}
	s.dirty = false
	return nil
}

// Close flushes any pending session write
func (s *SessionStore) Close() error {
	return s.Flush()
}
