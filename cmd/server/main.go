/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the team billing server. Handles configuration,
  dependency injection, admin bootstrap, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and environment configuration
  2. Initialize SQLite store
  3. Initialize document storage, identity provider, PDF generator
  4. Wire closing engine and provisioning workflow
  5. Bootstrap the admin account when configured and absent
  6. Start the closing scheduler
  7. Start HTTP server with graceful shutdown

CONFIGURATION:
  All settings come from environment variables (see config/config.go).
  A .env file in the working directory is loaded first.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the closing scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Closing scheduler
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/paddock/billing-engine/api"
	"github.com/paddock/billing-engine/closing"
	"github.com/paddock/billing-engine/config"
	"github.com/paddock/billing-engine/docstore"
	"github.com/paddock/billing-engine/identity"
	"github.com/paddock/billing-engine/provision"
	"github.com/paddock/billing-engine/report"
	"github.com/paddock/billing-engine/store/sqlite"

	"github.com/paddock/billing-engine/billing"
)

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Document storage
	documents, err := docstore.NewFilesystem(cfg.DocumentsDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize document storage: %v", err)
	}

	// Identity provider
	identities := identity.NewLocal(store, cfg.SessionSecret, cfg.SessionTTL)

	// Closing engine and provisioning workflow
	reports := report.NewPDFGenerator(cfg.TeamName, cfg.PaymentInfo)
	engine := closing.NewEngine(store, reports, documents)
	workflow := provision.NewWorkflow(store, identities)

	// Bootstrap admin account
	if cfg.AdminEmail != "" {
		if err := bootstrapAdmin(context.Background(), identities, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("Failed to bootstrap admin: %v", err)
		}
	}

	// Closing scheduler
	scheduler := api.NewClosingScheduler(engine, identities)
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	handler := api.NewHandler(store, identities, engine, workflow, documents)
	router := api.NewRouter(handler, cfg.DocumentsDir)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", cfg.Port)
		log.Printf("API available at http://localhost:%s/api", cfg.Port)
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

// bootstrapAdmin ensures the configured admin account exists and can
// sign in. Re-running against an existing account is a no-op.
func bootstrapAdmin(ctx context.Context, identities identity.Provider, email, password string) error {
	id, err := identities.Create(ctx, email, password)
	if err != nil {
		if errors.Is(err, billing.ErrEmailInUse) {
			return nil
		}
		return err
	}
	if err := identities.Confirm(ctx, id); err != nil {
		return err
	}
	if err := identities.LinkAdminProfile(ctx, id); err != nil {
		return err
	}
	log.Printf("Bootstrapped admin account %s", email)
	return nil
}
