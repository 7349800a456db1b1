/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the overtime engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Initialize SQLite store
  3. Bootstrap an admin account if the directory is empty
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: overtime.db)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  OVERTIME_JWT_SECRET    Token signing secret (required outside dev)
  OVERTIME_ADMIN_NIK     Bootstrap admin NIK (default: admin)
  OVERTIME_ADMIN_PASS    Bootstrap admin password (default: admin)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/store/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file, using process environment")
	}

	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "overtime.db", "SQLite database path")
	flag.Parse()

	secret := os.Getenv("OVERTIME_JWT_SECRET")
	if secret == "" {
		secret = "dev-only-secret"
		log.Printf("Warning: OVERTIME_JWT_SECRET not set, using dev default")
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if err := bootstrapAdmin(context.Background(), store); err != nil {
		log.Fatalf("Failed to bootstrap admin: %v", err)
	}

	// Initialize handler and router
	handler := api.NewHandler(store, api.NewTokenAuth(secret))
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// bootstrapAdmin seeds a single admin account when the directory is
// empty, so a fresh deployment can log in and build the org.
func bootstrapAdmin(ctx context.Context, store overtime.Store) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	nik := envOr("OVERTIME_ADMIN_NIK", "admin")
	pass := envOr("OVERTIME_ADMIN_PASS", "admin")
	hash, err := api.HashPassword(pass)
	if err != nil {
		return err
	}

	dir := overtime.NewDirectory(store)
	if err := dir.Create(ctx, overtime.User{
		NIK:          overtime.NIK(nik),
		Name:         "Administrator",
		Role:         overtime.RoleAdmin,
		PasswordHash: hash,
	}); err != nil {
		return err
	}
	log.Printf("Bootstrapped admin account %q", nik)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
