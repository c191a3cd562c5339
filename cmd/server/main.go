/*
main.go - Application entry point

PURPOSE:
  Starts the farm attendance ledger server: loads configuration, opens
  the SQLite store, optionally seeds it and serves the HTTP API until
  interrupted.

STARTUP SEQUENCE:
  1. Load configuration (.env file, FARM_* environment, then flags)
  2. Build the logger
  3. Open the SQLite store (migrations run on open)
  4. Seed from a YAML snapshot if the store is empty
  5. Configure the HTTP router and serve

COMMAND-LINE FLAGS (override the environment):
  -env     Path to a .env file (default: ./.env if present)
  -port    HTTP server port (FARM_PORT, default 8080)
  -db      SQLite database path (FARM_DB_PATH, default farm.db)
           Use ":memory:" for an in-memory database
  -seed    YAML snapshot loaded into an empty store (FARM_SEED_FILE)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection

EXAMPLES:
  ./server -db="./data/farm.db"
  ./server -db=":memory:" -seed=./api/scenarios/carry-forward.yaml
  FARM_LOG_FORMAT=json ./server -port=3000

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bijoor/farm-attendance-sub000/api"
	"github.com/bijoor/farm-attendance-sub000/config"
	"github.com/bijoor/farm-attendance-sub000/store/sqlite"
	"github.com/sirupsen/logrus"
)

func main() {
	// Flags
	envFile := flag.String("env", "", "Path to a .env file")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	seedFile := flag.String("seed", "", "YAML snapshot to load into an empty store")
	flag.Parse()

	var envPaths []string
	if *envFile != "" {
		envPaths = append(envPaths, *envFile)
	}
	cfg, err := config.Load(envPaths...)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *seedFile != "" {
		cfg.SeedFile = *seedFile
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	log := cfg.NewLogger()

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	handler := api.NewHandler(store, log)

	if cfg.SeedFile != "" {
		if _, err := handler.Seed(context.Background(), cfg.SeedFile); err != nil {
			log.WithError(err).WithField("seed_file", cfg.SeedFile).Fatal("Failed to seed database")
		}
	}

	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port": cfg.Port,
			"db":   cfg.DBPath,
		}).Infof("Server starting on http://localhost:%d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		return
	}

	log.Info("Server stopped")
}
