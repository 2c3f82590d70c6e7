// Command circuit-report serves telemetry sessions and their lap/course
// analysis over HTTP, and imports CSV sessions into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/circuit.report/internal/api"
	"github.com/banshee-data/circuit.report/internal/config"
	"github.com/banshee-data/circuit.report/internal/db"
	"github.com/banshee-data/circuit.report/internal/telemetry"
	"github.com/banshee-data/circuit.report/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "sessions.db", "Path to the sqlite database")
	tuningPath = flag.String("tuning", "", "Optional tuning config JSON file")
	importCSV  = flag.String("import", "", "Import a telemetry CSV as a new session and exit")
	importName = flag.String("name", "", "Session name for -import (defaults to the file name)")
	migrateCmd = flag.String("migrate", "", "Run a migration command (up, down, version) and exit")
)

func runMigrate(database *db.DB, cmd string) error {
	switch cmd {
	case "up":
		return database.MigrateUp()
	case "down":
		return database.MigrateDown()
	case "version":
		v, dirty, err := database.MigrateVersion()
		if err != nil {
			return err
		}
		log.Printf("migration version %d (dirty=%v)", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q (want up, down, or version)", cmd)
	}
}

func importSession(database *db.DB, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := telemetry.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if name == "" {
		name = filepath.Base(path)
	}

	session, err := database.CreateSession(name)
	if err != nil {
		return err
	}
	if err := database.InsertRows(session.ID, rows); err != nil {
		return err
	}
	log.Printf("Imported %d rows as session %s (%s)", len(rows), session.ID, name)
	return nil
}

func main() {
	flag.Parse()
	log.Printf("circuit-report %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	tuning := config.DefaultTuning()
	if *tuningPath != "" {
		var err error
		tuning, err = config.LoadTuning(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	}

	if *migrateCmd != "" {
		// Open without auto-migration; the command manages the schema.
		database, err := db.OpenDB(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()
		if err := runMigrate(database, *migrateCmd); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if *importCSV != "" {
		if err := importSession(database, *importCSV, *importName); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		apiMux := api.NewServer(database, tuning).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("Listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
