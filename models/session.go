package models

// Role is the privilege level of a logged in session
type Role string

// Role constants
const (
	RoleNone  Role = ""
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a stored role string to a Role, rejecting unknown values
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return RoleNone, false
}

// SessionState is the state machine position of a session
type SessionState string

// Session states
const (
	StateAnonymous    SessionState = "anonymous"
	StateUserSession  SessionState = "user-session"
	StateAdminSession SessionState = "admin-session"
)

// Session is the authentication state of the single active user
type Session struct {
	LoggedIn    bool   `json:"is_logged_in"`
	Role        Role   `json:"role,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// State derives the state machine position from the session fields
func (s Session) State() SessionState {
	if !s.LoggedIn {
		return StateAnonymous
	}
	if s.Role == RoleAdmin {
		return StateAdminSession
	}
	return StateUserSession
}
