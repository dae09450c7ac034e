package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"anistream/database"
	"anistream/jobs"
	"anistream/models"
	"anistream/repository"
	"anistream/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*App, func()) {
	// Create a temporary test database
	testDB, err := database.NewDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// Initialize schema
	if err := testDB.InitSchema(); err != nil {
		t.Fatalf("Failed to initialize test schema: %v", err)
	}

	kv := repository.NewSQLiteKeyValueStore(testDB)
	admin := services.DefaultAdminCredentials()
	catalog := services.NewCatalogStore(kv)
	session := services.NewSessionStore(kv, admin)
	userRepo := repository.NewUserRepository(testDB, admin.Identifier)
	require.NoError(t, userRepo.SeedDefaults())
	activityRepo := repository.NewActivityRepository(testDB)

	app := &App{
		catalog:      catalog,
		session:      session,
		preferences:  services.NewPreferences(kv),
		userRepo:     userRepo,
		activityRepo: activityRepo,
		jobManager:   jobs.NewJobManager(jobs.NewMaintenanceJob(activityRepo, time.Hour, catalog, session), time.Hour),
	}

	// Return cleanup function
	cleanup := func() {
		app.jobManager.Wait()
		if err := testDB.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	}

	return app, cleanup
}

func doRequest(t *testing.T, app *App, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)
	return rr
}

func loginAdmin(t *testing.T, app *App) {
	t.Helper()
	rr := doRequest(t, app, "POST", "/api/v1/session/admin-login",
		credentialsRequest{Identifier: "Shawaiz", Secret: "231980079"})
	require.Equal(t, http.StatusOK, rr.Code)
}

func decodeMovies(t *testing.T, rr *httptest.ResponseRecorder) []models.Movie {
	t.Helper()
	var movies []models.Movie
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &movies))
	return movies
}

func TestHealthHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/health", nil)
	assert.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(healthHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestGetMoviesHandler_SeedCatalog(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	rr := doRequest(t, app, "GET", "/api/v1/movies", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Len(t, decodeMovies(t, rr), 15)
}

func TestGetMoviesHandler_ByCategory(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	rr := doRequest(t, app, "GET", "/api/v1/movies?category=Romance", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	movies := decodeMovies(t, rr)
	assert.NotEmpty(t, movies)
	for _, m := range movies {
		assert.Contains(t, m.Categories, "Romance")
	}

	rr = doRequest(t, app, "GET", "/api/v1/movies?category=Western", nil)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestListingHandlers(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	tests := []struct {
		path   string
		count  int
		status models.MovieStatus
	}{
		{"/api/v1/movies/trending", services.TrendingLimit, models.StatusRegular},
		{"/api/v1/movies/latest", services.LatestLimit, models.StatusLatest},
		{"/api/v1/movies/coming-soon", services.ComingSoonLimit, models.StatusComingSoon},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := doRequest(t, app, "GET", tt.path, nil)
			require.Equal(t, http.StatusOK, rr.Code)

			movies := decodeMovies(t, rr)
			assert.Len(t, movies, tt.count)
			for _, m := range movies {
				assert.Equal(t, tt.status, m.Status)
			}
		})
	}
}

func TestGetMovieByIDHandler(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	rr := doRequest(t, app, "GET", "/api/v1/movies/6", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var movie models.Movie
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &movie))
	assert.Equal(t, "Spirited Away", movie.Title)

	rr = doRequest(t, app, "GET", "/api/v1/movies/999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminRoutes_RequireAdminSession(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	routes := []struct{ method, path string }{
		{"GET", "/api/v1/movies/search?q=your"},
		{"POST", "/api/v1/movies"},
		{"PUT", "/api/v1/movies/1"},
		{"DELETE", "/api/v1/movies/1"},
		{"GET", "/api/v1/admin/dashboard"},
		{"GET", "/api/v1/admin/users"},
		{"DELETE", "/api/v1/admin/users/1"},
		{"GET", "/api/v1/admin/catalog/export"},
	}

	for _, route := range routes {
		rr := doRequest(t, app, route.method, route.path, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code, "%s %s anonymous", route.method, route.path)
	}

	rr := doRequest(t, app, "POST", "/api/v1/session/login", credentialsRequest{Identifier: "fan", Secret: "pw"})
	require.Equal(t, http.StatusOK, rr.Code)

	for _, route := range routes {
		rr := doRequest(t, app, route.method, route.path, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code, "%s %s as user", route.method, route.path)
	}
	assert.Equal(t, 15, app.catalog.Len())
}

func TestCreateMovieHandler(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()
	loginAdmin(t, app)

	rr := doRequest(t, app, "POST", "/api/v1/movies", models.Movie{
		Title:      "Perfect Blue",
		Poster:     "https://example.com/pb.jpg",
		Rating:     8.0,
		Categories: []string{"Thriller"},
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var created models.Movie
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusRegular, created.Status)
	assert.Equal(t, 16, app.catalog.Len())

	stored, ok := app.catalog.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Perfect Blue", stored.Title)

	rr = doRequest(t, app, "POST", "/api/v1/movies", models.Movie{ID: "1", Title: "Dup", Poster: "p"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doRequest(t, app, "POST", "/api/v1/movies", models.Movie{Title: "No poster"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req, err := http.NewRequest("POST", "/api/v1/movies", strings.NewReader("{not json"))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMovieHandler(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()
	loginAdmin(t, app)

	original, ok := app.catalog.Get("3")
	require.True(t, ok)
	original.Title = "Weathering With You (Remastered)"

	rr := doRequest(t, app, "PUT", "/api/v1/movies/3", original)
	require.Equal(t, http.StatusOK, rr.Code)

	updated, _ := app.catalog.Get("3")
	assert.Equal(t, "Weathering With You (Remastered)", updated.Title)

	rr = doRequest(t, app, "PUT", "/api/v1/movies/404", original)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	original.Rating = 11
	rr = doRequest(t, app, "PUT", "/api/v1/movies/3", original)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteMovieHandler(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()
	loginAdmin(t, app)

	rr := doRequest(t, app, "DELETE", "/api/v1/movies/1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 14, app.catalog.Len())

	rr = doRequest(t, app, "DELETE", "/api/v1/movies/1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 14, app.catalog.Len())
}

func TestSearchMoviesHandler(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()
	loginAdmin(t, app)

	rr := doRequest(t, app, "GET", "/api/v1/movies/search?q=YOUR", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	for _, m := range decodeMovies(t, rr) {
		assert.Contains(t, strings.ToLower(m.Title), "your")
	}
}

func TestSessionHandlers(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	rr := doRequest(t, app, "POST", "/api/v1/session/login", credentialsRequest{Identifier: "", Secret: "x"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(t, app, "POST", "/api/v1/session/admin-login", credentialsRequest{Identifier: "fan", Secret: "pw"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(t, app, "POST", "/api/v1/session/register", registerRequest{Name: "Aiko"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, app, "POST", "/api/v1/session/register",
		registerRequest{Name: "Aiko", Email: "aiko@example.com", Password: "pw"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var session models.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))
	assert.True(t, session.LoggedIn)
	assert.Equal(t, models.RoleUser, session.Role)
	assert.Equal(t, "Aiko", session.DisplayName)

	users, err := app.userRepo.Search("aiko@example.com")
	require.NoError(t, err)
	assert.Len(t, users, 1)

	rr = doRequest(t, app, "POST", "/api/v1/session/login", credentialsRequest{Identifier: "aiko@example.com", Secret: "pw"})
	assert.Equal(t, http.StatusOK, rr.Code, "logging in again as a user keeps the session")
	rr = doRequest(t, app, "POST", "/api/v1/session/admin-login", credentialsRequest{Identifier: "Shawaiz", Secret: "231980079"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "switching to admin needs a logout")
	assert.Equal(t, "Aiko", app.session.DisplayName())

	rr = doRequest(t, app, "PUT", "/api/v1/session/profile", profileRequest{Name: "Aiko M", Email: "aiko@example.com"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Aiko M", app.session.DisplayName())

	rr = doRequest(t, app, "POST", "/api/v1/session/logout", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, app.session.IsLoggedIn())

	rr = doRequest(t, app, "PUT", "/api/v1/session/profile", profileRequest{Name: "Ghost"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestThemeHandlers(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	rr := doRequest(t, app, "GET", "/api/v1/preferences/theme", nil)
	assert.JSONEq(t, `{"theme":"light"}`, rr.Body.String())

	rr = doRequest(t, app, "PUT", "/api/v1/preferences/theme", themeRequest{Theme: "dark"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"theme":"dark"}`, rr.Body.String())

	rr = doRequest(t, app, "PUT", "/api/v1/preferences/theme", themeRequest{Theme: "neon"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, services.ThemeDark, app.preferences.Theme())
}

func TestDashboardHandler(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()
	loginAdmin(t, app)

	rr := doRequest(t, app, "DELETE", "/api/v1/movies/2", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, app, "GET", "/api/v1/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var dashboard models.DashboardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dashboard))
	assert.Equal(t, 14, dashboard.Catalog.Total)
	assert.Equal(t, 4, dashboard.Users)
	assert.Equal(t, 3, dashboard.ActiveUsers)
	assert.Equal(t, 1, dashboard.ActivityCounts[models.ActivityUserLogin])
	assert.Equal(t, 1, dashboard.ActivityCounts[models.ActivityMovieDeleted])
	require.NotEmpty(t, dashboard.Recent)
	assert.Equal(t, models.ActivityMovieDeleted, dashboard.Recent[0].Type)
}

func TestUserAdminHandlers(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()
	loginAdmin(t, app)

	rr := doRequest(t, app, "GET", "/api/v1/admin/users?q=emma", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var users []models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "Emma Wilson", users[0].Name)

	rr = doRequest(t, app, "PUT", "/api/v1/admin/users/2", map[string]string{"status": "inactive"})
	require.Equal(t, http.StatusOK, rr.Code)
	user, err := app.userRepo.GetByID("2")
	require.NoError(t, err)
	assert.Equal(t, models.UserInactive, user.Status)
	assert.Equal(t, "Emma Wilson", user.Name)

	rr = doRequest(t, app, "PUT", "/api/v1/admin/users/2", map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, app, "PUT", "/api/v1/admin/users/missing", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, app, "DELETE", "/api/v1/admin/users/4", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code, "primary admin is protected")

	rr = doRequest(t, app, "DELETE", "/api/v1/admin/users/1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, app, "DELETE", "/api/v1/admin/users/1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCatalogExportImport(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()
	loginAdmin(t, app)

	rr := doRequest(t, app, "GET", "/api/v1/admin/catalog/export", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	exported := rr.Body.Bytes()

	require.True(t, app.catalog.Delete("1"))
	require.Equal(t, 14, app.catalog.Len())

	req, err := http.NewRequest("PUT", "/api/v1/admin/catalog/import", bytes.NewReader(exported))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 15, app.catalog.Len())

	bodies := []string{
		"not json",
		"null",
		`[{"title":""},{"id":"x","title":"t","poster":"p","status":"bogus","rating":99}]`,
	}
	for _, body := range bodies {
		req, err = http.NewRequest("PUT", "/api/v1/admin/catalog/import", strings.NewReader(body))
		require.NoError(t, err)
		rec = httptest.NewRecorder()
		app.routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, 15, app.catalog.Len(), body)
	}
	_, ok := app.catalog.Get("x")
	assert.False(t, ok)
}

// toggleKV fails every write while failing is set
type toggleKV struct {
	*repository.MemoryKeyValueStore
	failing bool
}

func (k *toggleKV) Set(key, value string) error {
	if k.failing {
		return errors.New("storage unavailable")
	}
	return k.MemoryKeyValueStore.Set(key, value)
}

func (k *toggleKV) Remove(key string) error {
	if k.failing {
		return errors.New("storage unavailable")
	}
	return k.MemoryKeyValueStore.Remove(key)
}

func TestShutdown_FlushesPendingWrites(t *testing.T) {
	kv := &toggleKV{MemoryKeyValueStore: repository.NewMemoryKeyValueStore()}
	catalog := services.NewCatalogStore(kv)
	session := services.NewSessionStore(kv, services.DefaultAdminCredentials())
	jobManager := jobs.NewJobManager(jobs.NewMaintenanceJob(nil, 0), time.Hour)
	jobManager.Start()

	app := &App{catalog: catalog, session: session, jobManager: jobManager}

	kv.failing = true
	require.True(t, catalog.Delete("1"))
	require.True(t, session.Login("fan", "pw"))
	require.True(t, catalog.Dirty())
	require.True(t, session.Dirty())
	kv.failing = false

	server := &http.Server{Handler: app.routes()}
	require.NoError(t, app.shutdown(context.Background(), server))

	assert.False(t, jobManager.IsRunning())
	assert.False(t, catalog.Dirty())
	assert.False(t, session.Dirty())

	reloaded := services.NewCatalogStore(kv)
	assert.Equal(t, 14, reloaded.Len())
	loggedIn, _, _ := kv.Get(repository.KeyIsLoggedIn)
	assert.Equal(t, "true", loggedIn)
}

func TestShutdown_ReportsFailedFlush(t *testing.T) {
	kv := &toggleKV{MemoryKeyValueStore: repository.NewMemoryKeyValueStore()}
	app := &App{
		catalog: services.NewCatalogStore(kv),
		session: services.NewSessionStore(kv, services.DefaultAdminCredentials()),
	}

	kv.failing = true
	require.True(t, app.catalog.Delete("1"))

	err := app.shutdown(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to flush catalog")
}

func TestCatalogSurvivesRestart(t *testing.T) {
	path := t.TempDir() + "/catalog.db"

	db, err := openDatabase(path)
	require.NoError(t, err)
	catalog := services.NewCatalogStore(repository.NewSQLiteKeyValueStore(db))
	require.True(t, catalog.Delete("15"))
	require.NoError(t, db.Close())

	db, err = openDatabase(path)
	require.NoError(t, err)
	defer db.Close()
	reloaded := services.NewCatalogStore(repository.NewSQLiteKeyValueStore(db))
	assert.Equal(t, 14, reloaded.Len())
	_, ok := reloaded.Get("15")
	assert.False(t, ok)
}

func TestOpenDatabase_NoPath(t *testing.T) {
	_, err := openDatabase("")
	assert.Error(t, err)
}

func TestMain(m *testing.M) {
	// Setup code before tests
	code := m.Run()
	// Cleanup code after tests
	os.Exit(code)
}
