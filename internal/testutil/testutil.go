package testutil

import (
	"fmt"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/skillshare/skillshare-backend/internal/api"
	"github.com/skillshare/skillshare-backend/internal/config"
	"github.com/skillshare/skillshare-backend/internal/logging"
	"github.com/skillshare/skillshare-backend/internal/media"
	"github.com/skillshare/skillshare-backend/internal/metrics"
	"github.com/skillshare/skillshare-backend/internal/repository"
	"github.com/skillshare/skillshare-backend/internal/repository/gormrepo"
	"github.com/skillshare/skillshare-backend/internal/service"
	"github.com/skillshare/skillshare-backend/internal/websocket"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB is a migrated database private to one test
type TestDB struct {
	DB     *gorm.DB
	Driver string
	DSN    string
}

// NewTestDB opens a fresh SQLite database file under the test's temp dir
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)

	db, err := gormrepo.NewConnection(config.DriverSQLite, dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return &TestDB{DB: db, Driver: config.DriverSQLite, DSN: dsn}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"story_views", "stories", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Environment:        "test",
		CORSAllowedOrigin:  "*",
		LogLevel:           "error",
		LogFormat:          "text",
		DatabaseDriver:     config.DriverSQLite,
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		BcryptCost:         bcrypt.MinCost,
		StoryTTL:           24 * time.Hour,
		StorySweepInterval: time.Hour,
		MediaBackend:       config.MediaBackendLocal,
		MediaMaxBytes:      1 << 20,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Media    *media.LocalStore
	Metrics  *metrics.Metrics
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithLogger(t, logging.Discard())
}

// NewTestServerWithLogger is NewTestServer with every component logging to log
func NewTestServerWithLogger(t *testing.T, log *slog.Logger) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()
	cfg.MediaDir = t.TempDir()

	store, err := media.NewLocalStore(cfg.MediaDir)
	if err != nil {
		t.Fatalf("failed to create media store: %v", err)
	}

	repos := gormrepo.NewRepositories(testDB.DB)
	m := metrics.New()

	hub := websocket.NewHub(log)
	go hub.Run()

	services, err := service.NewServices(repos, cfg, store, hub, m, log)
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}

	router := api.NewRouter(services, api.Deps{
		Hub:     hub,
		Metrics: m.Handler(),
		Uploads: store.Handler(),
		Logger:  log,
	}, cfg)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Media:    store,
		Metrics:  m,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/api/v1/ws?token=%s", wsURL, token)
}
