// Package main provides the main entry point for the anime catalog server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anistream/config"
	"anistream/database"
	"anistream/jobs"
	"anistream/repository"
	"anistream/services"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// shutdownTimeout bounds how long in-flight requests may take to finish
const shutdownTimeout = 10 * time.Second

// App represents the application with its dependencies
type App struct {
	catalog      *services.CatalogStore
	session      *services.SessionStore
	preferences  *services.Preferences
	userRepo     *repository.UserRepository
	activityRepo *repository.ActivityRepository
	jobManager   *jobs.JobManager
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	configPath := pflag.String("config", os.Getenv("ANISTREAM_CONFIG"), "path to the YAML configuration file")
	addr := pflag.String("addr", "", "listen address, overrides server.addr")
	dbPath := pflag.String("db", "", "SQLite database path, overrides database.path")
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal("Failed to load configuration:", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	admin := services.AdminCredentials{Identifier: cfg.Admin.Identifier, Secret: cfg.Admin.Secret}

	// Initialize storage; without a database everything stays in memory
	var kv repository.KeyValueStore = repository.NewMemoryKeyValueStore()
	var userRepo *repository.UserRepository
	var activityRepo *repository.ActivityRepository

	db, err := openDatabase(cfg.Database.Path)
	if err != nil {
		log.Printf("Warning: %v - state will not survive a restart", err)
	} else {
		defer func() {
			if err := db.Close(); err != nil {
				log.Printf("Failed to close database: %v", err)
			}
		}()

		kv = repository.NewSQLiteKeyValueStore(db)
		userRepo = repository.NewUserRepository(db, admin.Identifier)
		activityRepo = repository.NewActivityRepository(db)

		if err := userRepo.SeedDefaults(); err != nil {
			log.Printf("Failed to seed users: %v", err)
		}
	}

	catalog := services.NewCatalogStore(kv)
	session := services.NewSessionStore(kv, admin)

	var pruner jobs.ActivityPruner
	if activityRepo != nil {
		pruner = activityRepo
	}
	maintenanceJob := jobs.NewMaintenanceJob(pruner, cfg.Maintenance.ActivityRetention, catalog, session)
	jobManager := jobs.NewJobManager(maintenanceJob, cfg.Maintenance.FlushInterval)
	jobManager.Start()

	app := &App{
		catalog:      catalog,
		session:      session,
		preferences:  services.NewPreferences(kv),
		userRepo:     userRepo,
		activityRepo: activityRepo,
		jobManager:   jobManager,
	}

	handler := handlers.CombinedLoggingHandler(os.Stdout, app.routes())
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.shutdown(shutdownCtx, server); err != nil {
		log.Printf("Shutdown incomplete: %v", err)
	}
}

// shutdown drains the server, stops background jobs and writes any
// snapshot still pending
func (app *App) shutdown(ctx context.Context, server *http.Server) error {
	var errs []error
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down server: %w", err))
		}
	}

	if app.jobManager != nil {
		app.jobManager.Stop()
	}

	if err := app.catalog.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := app.session.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func openDatabase(path string) (*database.DB, error) {
	if path == "" {
		return nil, errors.New("no database path configured")
	}

	db, err := database.NewDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// routes builds the API router
func (app *App) routes() *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint
	r.HandleFunc("/health", healthHandler).Methods("GET")

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(handlers.CompressHandler)

	// Movie endpoints; fixed paths go before {id}
	api.HandleFunc("/movies", app.getMoviesHandler).Methods("GET")
	api.HandleFunc("/movies/trending", app.getTrendingHandler).Methods("GET")
	api.HandleFunc("/movies/latest", app.getLatestHandler).Methods("GET")
	api.HandleFunc("/movies/coming-soon", app.getComingSoonHandler).Methods("GET")
	api.HandleFunc("/movies/search", app.requireAdmin(app.searchMoviesHandler)).Methods("GET")
	api.HandleFunc("/movies/{id}", app.getMovieByIDHandler).Methods("GET")
	api.HandleFunc("/movies", app.requireAdmin(app.createMovieHandler)).Methods("POST")
	api.HandleFunc("/movies/{id}", app.requireAdmin(app.updateMovieHandler)).Methods("PUT")
	api.HandleFunc("/movies/{id}", app.requireAdmin(app.deleteMovieHandler)).Methods("DELETE")
	api.HandleFunc("/categories", app.getCategoriesHandler).Methods("GET")

	// Session endpoints
	api.HandleFunc("/session", app.getSessionHandler).Methods("GET")
	api.HandleFunc("/session/login", app.loginHandler).Methods("POST")
	api.HandleFunc("/session/admin-login", app.adminLoginHandler).Methods("POST")
	api.HandleFunc("/session/register", app.registerHandler).Methods("POST")
	api.HandleFunc("/session/logout", app.logoutHandler).Methods("POST")
	api.HandleFunc("/session/profile", app.updateProfileHandler).Methods("PUT")

	// Preferences
	api.HandleFunc("/preferences/theme", app.getThemeHandler).Methods("GET")
	api.HandleFunc("/preferences/theme", app.setThemeHandler).Methods("PUT")

	// Admin endpoints
	api.HandleFunc("/admin/dashboard", app.requireAdmin(app.dashboardHandler)).Methods("GET")
	api.HandleFunc("/admin/users", app.requireAdmin(app.getUsersHandler)).Methods("GET")
	api.HandleFunc("/admin/users/{id}", app.requireAdmin(app.updateUserHandler)).Methods("PUT")
	api.HandleFunc("/admin/users/{id}", app.requireAdmin(app.deleteUserHandler)).Methods("DELETE")
	api.HandleFunc("/admin/catalog/export", app.requireAdmin(app.exportCatalogHandler)).Methods("GET")
	api.HandleFunc("/admin/catalog/import", app.requireAdmin(app.importCatalogHandler)).Methods("PUT")

	return r
}
