package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"anistream/models"
	"anistream/repository"
	"anistream/services"

	"github.com/gorilla/mux"
)

// maxImportSize bounds catalog import bodies
const maxImportSize = 8 << 20

// recentActivityLimit is the length of the dashboard activity feed
const recentActivityLimit = 10

type credentialsRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// requireAdmin rejects requests unless the active session is an admin session
func (app *App) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.session.IsAdmin() {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// recordActivity adds an entry to the dashboard feed when activity storage is available
func (app *App) recordActivity(activityType models.ActivityType, subject, message string, details interface{}) {
	if app.activityRepo == nil {
		return
	}
	if err := app.activityRepo.Create(activityType, subject, message, details); err != nil {
		log.Printf("Failed to record %s activity: %v", activityType, err)
	}
}

// flushIfDirty schedules a retry when a store could not persist its last write
func (app *App) flushIfDirty() {
	if app.jobManager == nil {
		return
	}
	if app.catalog.Dirty() || app.session.Dirty() {
		app.jobManager.TriggerFlush()
	}
}

func (app *App) getMoviesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, app.catalog.ByCategory(r.URL.Query().Get("category")))
}

func (app *App) getTrendingHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, app.catalog.Trending())
}

func (app *App) getLatestHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, app.catalog.Latest())
}

func (app *App) getComingSoonHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, app.catalog.ComingSoon())
}

func (app *App) searchMoviesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, app.catalog.Search(r.URL.Query().Get("q")))
}

func (app *App) getCategoriesHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, app.catalog.Categories())
}

func (app *App) getMovieByIDHandler(w http.ResponseWriter, r *http.Request) {
	movie, ok := app.catalog.Get(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (app *App) createMovieHandler(w http.ResponseWriter, r *http.Request) {
	var movie models.Movie

	// Decode the request body
	if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Set default status if not provided
	if movie.Status == "" {
		movie.Status = models.StatusRegular
	}

	if err := app.catalog.Add(&movie); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidMovie):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrDuplicateID):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			log.Printf("Error creating movie: %v", err)
			http.Error(w, "Failed to create movie", http.StatusInternalServerError)
		}
		return
	}

	app.recordActivity(models.ActivityMovieAdded, movie.ID,
		fmt.Sprintf("Movie '%s' added to catalog", movie.Title), map[string]interface{}{"status": movie.Status})
	app.flushIfDirty()

	writeJSON(w, http.StatusCreated, movie)
}

func (app *App) updateMovieHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var movie models.Movie
	if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	movie.ID = id

	if err := movie.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !app.catalog.Update(movie) {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return
	}

	app.recordActivity(models.ActivityMovieUpdated, id,
		fmt.Sprintf("Movie '%s' updated", movie.Title), nil)
	app.flushIfDirty()

	writeJSON(w, http.StatusOK, movie)
}

func (app *App) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	movie, ok := app.catalog.Get(id)
	if !ok || !app.catalog.Delete(id) {
		http.Error(w, "Movie not found", http.StatusNotFound)
		return
	}

	app.recordActivity(models.ActivityMovieDeleted, id,
		fmt.Sprintf("Movie '%s' deleted from catalog", movie.Title), nil)
	app.flushIfDirty()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Movie deleted successfully",
		"movie_id": id,
		"title":    movie.Title,
	})
}

func (app *App) getSessionHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, app.session.Snapshot())
}

func (app *App) loginHandler(w http.ResponseWriter, r *http.Request) {
	app.handleLogin(w, r, app.session.Login)
}

func (app *App) adminLoginHandler(w http.ResponseWriter, r *http.Request) {
	app.handleLogin(w, r, app.session.LoginAdmin)
}

func (app *App) handleLogin(w http.ResponseWriter, r *http.Request, login func(identifier, secret string) bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !login(req.Identifier, req.Secret) {
		http.Error(w, "Login failed", http.StatusUnauthorized)
		return
	}

	session := app.session.Snapshot()
	app.recordActivity(models.ActivityUserLogin, req.Identifier,
		fmt.Sprintf("%s session started", session.Role), nil)
	app.flushIfDirty()

	writeJSON(w, http.StatusOK, session)
}

func (app *App) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !app.session.Register(req.Name, req.Email, req.Password) {
		http.Error(w, "Registration failed", http.StatusBadRequest)
		return
	}

	// Registered accounts also show up in the admin user directory
	if app.userRepo != nil {
		if err := app.userRepo.Create(&models.User{Name: req.Name, Email: req.Email}); err != nil {
			log.Printf("Failed to add %s to user directory: %v", req.Email, err)
		}
	}

	app.recordActivity(models.ActivityUserRegistered, req.Email,
		fmt.Sprintf("New user '%s' registered", req.Name), nil)
	app.flushIfDirty()

	writeJSON(w, http.StatusCreated, app.session.Snapshot())
}

func (app *App) logoutHandler(w http.ResponseWriter, _ *http.Request) {
	previous := app.session.Snapshot()
	app.session.Logout()

	if previous.LoggedIn {
		app.recordActivity(models.ActivityUserLogout, previous.DisplayName,
			fmt.Sprintf("%s session ended", previous.Role), nil)
	}
	app.flushIfDirty()

	writeJSON(w, http.StatusOK, app.session.Snapshot())
}

func (app *App) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !app.session.UpdateProfile(req.Name, req.Email) {
		http.Error(w, "Profile update failed", http.StatusBadRequest)
		return
	}
	app.flushIfDirty()

	writeJSON(w, http.StatusOK, app.session.Snapshot())
}

func (app *App) getThemeHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, themeRequest{Theme: app.preferences.Theme()})
}

func (app *App) setThemeHandler(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !app.preferences.SetTheme(req.Theme) {
		http.Error(w, "Unknown theme", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, themeRequest{Theme: app.preferences.Theme()})
}

func (app *App) dashboardHandler(w http.ResponseWriter, _ *http.Request) {
	response := &models.DashboardResponse{
		Catalog:        app.catalog.Stats(),
		ActivityCounts: map[models.ActivityType]int{},
		Recent:         []models.Activity{},
	}

	if app.userRepo != nil {
		total, active, err := app.userRepo.Count()
		if err != nil {
			log.Printf("Failed to count users: %v", err)
		}
		response.Users, response.ActiveUsers = total, active
	}

	if app.activityRepo != nil {
		if counts, err := app.activityRepo.CountsByType(); err != nil {
			log.Printf("Failed to count activities: %v", err)
		} else {
			response.ActivityCounts = counts
		}
		if recent, err := app.activityRepo.Recent(recentActivityLimit); err != nil {
			log.Printf("Failed to get recent activities: %v", err)
		} else {
			response.Recent = recent
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (app *App) getUsersHandler(w http.ResponseWriter, r *http.Request) {
	if app.userRepo == nil {
		http.Error(w, "User directory unavailable", http.StatusServiceUnavailable)
		return
	}

	var users []models.User
	var err error
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		users, err = app.userRepo.Search(q)
	} else {
		users, err = app.userRepo.GetAll()
	}
	if err != nil {
		log.Printf("Error getting users: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (app *App) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	if app.userRepo == nil {
		http.Error(w, "User directory unavailable", http.StatusServiceUnavailable)
		return
	}

	id := mux.Vars(r)["id"]
	user, err := app.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("Error getting user: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var changes models.User
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Only supplied fields change
	if changes.Name != "" {
		user.Name = changes.Name
	}
	if changes.Email != "" {
		user.Email = changes.Email
	}
	if changes.Role != models.RoleNone {
		if _, ok := models.ParseRole(string(changes.Role)); !ok {
			http.Error(w, "Invalid role", http.StatusBadRequest)
			return
		}
		user.Role = changes.Role
	}
	switch changes.Status {
	case "":
	case models.UserActive, models.UserInactive:
		user.Status = changes.Status
	default:
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	if err := app.userRepo.Update(user); err != nil {
		log.Printf("Error updating user: %v", err)
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	app.recordActivity(models.ActivityUserUpdated, user.ID,
		fmt.Sprintf("User '%s' updated", user.Name), nil)

	writeJSON(w, http.StatusOK, user)
}

func (app *App) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if app.userRepo == nil {
		http.Error(w, "User directory unavailable", http.StatusServiceUnavailable)
		return
	}

	id := mux.Vars(r)["id"]
	if err := app.userRepo.Delete(id); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			http.Error(w, "User not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrProtectedUser):
			http.Error(w, "The primary admin cannot be deleted", http.StatusForbidden)
		default:
			log.Printf("Failed to delete user: %v", err)
			http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		}
		return
	}

	app.recordActivity(models.ActivityUserDeleted, id, "User deleted", nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User deleted successfully",
		"user_id": id,
	})
}

func (app *App) exportCatalogHandler(w http.ResponseWriter, _ *http.Request) {
	data, err := app.catalog.Snapshot()
	if err != nil {
		log.Printf("Failed to export catalog: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.json"`)
	if _, err := w.Write(data); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (app *App) importCatalogHandler(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := app.catalog.Restore(data); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	app.flushIfDirty()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Catalog imported successfully",
		"movies":  app.catalog.Len(),
	})
}
