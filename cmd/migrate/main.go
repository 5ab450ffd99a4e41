package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/clubroll/clubroll/internal/config"
	"github.com/clubroll/clubroll/internal/logger"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Print migration SQL without executing it")
	dir := flag.String("dir", "migrations", "Directory holding .sql migration files")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		logger.Fatalw("Failed to list migration files", "error", err, "dir", *dir)
	}
	sort.Strings(files)
	if len(files) == 0 {
		logger.Fatalw("No migration files found", "dir", *dir)
	}

	if *dryRun {
		logger.Info("Dry run mode - printing migration SQL without executing")
		for _, file := range files {
			sql, err := os.ReadFile(file)
			if err != nil {
				logger.Fatalw("Failed to read migration file", "error", err, "file", file)
			}
			fmt.Printf("-- %s\n%s\n", file, sql)
		}
		return
	}

	dsn := cfg.Postgres.GetDSN()
	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		logger.Fatalw("Failed to create schema_migrations table", "error", err)
	}

	logger.Info("Running database migrations...")
	for _, file := range files {
		name := filepath.Base(file)

		var applied int
		if err := db.Get(&applied, "SELECT COUNT(*) FROM schema_migrations WHERE filename = $1", name); err != nil {
			logger.Fatalw("Failed to check migration state", "error", err, "file", name)
		}
		if applied > 0 {
			logger.Debugw("Skipping applied migration", "file", name)
			continue
		}

		sql, err := os.ReadFile(file)
		if err != nil {
			logger.Fatalw("Failed to read migration file", "error", err, "file", name)
		}

		tx, err := db.Beginx()
		if err != nil {
			logger.Fatalw("Failed to begin transaction", "error", err, "file", name)
		}
		if _, err := tx.Exec(string(sql)); err != nil {
			_ = tx.Rollback()
			logger.Fatalw("Failed to apply migration", "error", err, "file", name)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (filename) VALUES ($1)", name); err != nil {
			_ = tx.Rollback()
			logger.Fatalw("Failed to record migration", "error", err, "file", name)
		}
		if err := tx.Commit(); err != nil {
			logger.Fatalw("Failed to commit migration", "error", err, "file", name)
		}

		logger.Infow("Applied migration", "file", name)
	}

	fmt.Println("Migration process completed")
}
