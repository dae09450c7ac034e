package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"anistream/database"
	"anistream/models"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when no user matches the given id
	ErrUserNotFound = errors.New("user not found")
	// ErrProtectedUser is returned when deleting the primary admin account
	ErrProtectedUser = errors.New("cannot delete the primary admin account")
)

// UserRepository handles database operations for the admin user directory
type UserRepository struct {
	db        *database.DB
	adminName string
}

// NewUserRepository creates a new user repository. adminName identifies
// the primary admin account, which cannot be deleted.
func NewUserRepository(db *database.DB, adminName string) *UserRepository {
	return &UserRepository{db: db, adminName: adminName}
}

const userColumns = `id, name, email, role, status, last_login, joined`

// GetAll retrieves all users ordered by join date
func (r *UserRepository) GetAll() ([]models.User, error) {
	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY joined, name`
	if err := r.db.Select(&users, query); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

// Search returns users whose name or email contains q, ignoring case
func (r *UserRepository) Search(q string) ([]models.User, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return r.GetAll()
	}

	users := []models.User{}
	pattern := "%" + strings.ToLower(q) + "%"
	query := `SELECT ` + userColumns + ` FROM users
		WHERE lower(name) LIKE ? OR lower(email) LIKE ?
		ORDER BY joined, name`
	if err := r.db.Select(&users, query, pattern, pattern); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// GetByID retrieves a user by its ID
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.Get(&user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s: %w", id, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Create inserts a new user, assigning an ID and join date when missing
func (r *UserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Joined.IsZero() {
		user.Joined = time.Now().UTC().Truncate(time.Second)
	}
	if user.Role == models.RoleNone {
		user.Role = models.RoleUser
	}
	if user.Status == "" {
		user.Status = models.UserActive
	}

	query := `INSERT INTO users (id, name, email, role, status, last_login, joined)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, user.ID, user.Name, user.Email, user.Role, user.Status,
		nullTime(user.LastLogin), database.FormatTime(user.Joined))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update saves the editable fields of an existing user
func (r *UserRepository) Update(user *models.User) error {
	query := `UPDATE users SET name = ?, email = ?, role = ?, status = ?, last_login = ? WHERE id = ?`
	result, err := r.db.Exec(query, user.Name, user.Email, user.Role, user.Status,
		nullTime(user.LastLogin), user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOneRow(result, user.ID)
}

// Delete removes a user. The primary admin account is refused.
func (r *UserRepository) Delete(id string) error {
	user, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin && user.Name == r.adminName {
		return ErrProtectedUser
	}

	result, err := r.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOneRow(result, id)
}

// Count returns the total number of users and how many are active
func (r *UserRepository) Count() (total, active int, err error) {
	err = r.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(status = ?), 0) FROM users`, models.UserActive).
		Scan(&total, &active)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, active, nil
}

// SeedDefaults inserts the demo directory when the table is empty
func (r *UserRepository) SeedDefaults() error {
	total, _, err := r.Count()
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	for _, user := range defaultUsers(r.adminName) {
		u := user
		if err := r.Create(&u); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d directory users", len(defaultUsers(r.adminName)))
	return nil
}

func defaultUsers(adminName string) []models.User {
	return []models.User{
		{ID: "1", Name: "John Doe", Email: "john@example.com", Role: models.RoleUser, Status: models.UserActive,
			LastLogin: timePtr(date(2023, 4, 15, 14, 30)), Joined: date(2023, 1, 20, 0, 0)},
		{ID: "2", Name: "Emma Wilson", Email: "emma@example.com", Role: models.RoleUser, Status: models.UserActive,
			LastLogin: timePtr(date(2023, 4, 14, 9, 45)), Joined: date(2023, 2, 10, 0, 0)},
		{ID: "3", Name: "David Smith", Email: "david@example.com", Role: models.RoleUser, Status: models.UserInactive,
			LastLogin: timePtr(date(2023, 3, 30, 16, 20)), Joined: date(2023, 3, 5, 0, 0)},
		{ID: "4", Name: adminName, Email: "admin@example.com", Role: models.RoleAdmin, Status: models.UserActive,
			LastLogin: timePtr(date(2023, 4, 15, 10, 15)), Joined: date(2023, 1, 1, 0, 0)},
	}
}

func expectOneRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user with id %s: %w", id, ErrUserNotFound)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: database.FormatTime(*t), Valid: true}
}

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
