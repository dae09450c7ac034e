package models

import "time"

// ActivityType represents the kind of recorded activity
type ActivityType string

const (
	ActivityMovieAdded     ActivityType = "movie_added"
	ActivityMovieUpdated   ActivityType = "movie_updated"
	ActivityMovieDeleted   ActivityType = "movie_deleted"
	ActivityUserLogin      ActivityType = "user_login"
	ActivityUserRegistered ActivityType = "user_registered"
	ActivityUserLogout     ActivityType = "user_logout"
	ActivityUserUpdated    ActivityType = "user_updated"
	ActivityUserDeleted    ActivityType = "user_deleted"
)

// Activity is an entry in the admin dashboard's recent activity feed
type Activity struct {
	ID        int          `json:"id" db:"id"`
	Type      ActivityType `json:"type" db:"type"`
	Subject   string       `json:"subject" db:"subject"`
	Message   string       `json:"message" db:"message"`
	Details   string       `json:"details,omitempty" db:"details"` // JSON string for additional data
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// DashboardResponse is the admin dashboard payload
type DashboardResponse struct {
	Catalog        *CatalogStats        `json:"catalog"`
	Users          int                  `json:"users"`
	ActiveUsers    int                  `json:"active_users"`
	ActivityCounts map[ActivityType]int `json:"activity_counts"`
	Recent         []Activity           `json:"recent"`
}
