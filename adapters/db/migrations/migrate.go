package migrations

import (
	"context"
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gosobol/internal"

	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var migrationFS embed.FS

// Migrator handles database schema migrations
type Migrator struct {
	db     *sqlx.DB
	logger *internal.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *sqlx.DB, logger *internal.Logger) *Migrator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Migrator{db: db, logger: logger}
}

// MigrationFile represents a migration file
type MigrationFile struct {
	Version string
	Path    string
}

// MigrationStatus reports whether one migration has been applied
type MigrationStatus struct {
	Version string
	Applied bool
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// Up executes all pending migrations
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	files, err := findMigrationFiles()
	if err != nil {
		return fmt.Errorf("failed to find migration files: %w", err)
	}

	for _, file := range files {
		if _, ok := applied[file.Version]; ok {
			continue
		}
		if err := m.applyMigration(ctx, file); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Version, err)
		}
		m.logger.Debug("Applied migration: %s", file.Version)
	}
	return nil
}

// Status lists every known migration and whether it has been applied
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	files, err := findMigrationFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to find migration files: %w", err)
	}

	out := make([]MigrationStatus, len(files))
	for i, file := range files {
		_, ok := applied[file.Version]
		out[i] = MigrationStatus{Version: file.Version, Applied: ok}
	}
	return out, nil
}

// Verify checks that applied migrations still match their embedded SQL
func (m *Migrator) Verify(ctx context.Context) error {
	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	files, err := findMigrationFiles()
	if err != nil {
		return err
	}
	for _, file := range files {
		stored, ok := applied[file.Version]
		if !ok {
			continue
		}
		data, err := migrationFS.ReadFile(file.Path)
		if err != nil {
			return err
		}
		if stored != calculateChecksum(data) {
			return fmt.Errorf("migration %s was modified after it was applied", file.Version)
		}
	}
	return nil
}

// getAppliedMigrations returns applied versions mapped to their checksums
func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Version  string `db:"version"`
		Checksum string `db:"checksum"`
	}
	if err := m.db.SelectContext(ctx, &rows, "SELECT version, checksum FROM schema_migrations"); err != nil {
		return nil, err
	}

	applied := make(map[string]string, len(rows))
	for _, r := range rows {
		applied[r.Version] = r.Checksum
	}
	return applied, nil
}

// calculateChecksum computes SHA256 checksum of migration content
func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// findMigrationFiles lists embedded migrations named like 001_run_archive.sql
func findMigrationFiles() ([]MigrationFile, error) {
	var files []MigrationFile
	err := fs.WalkDir(migrationFS, "sql", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".sql") {
			return nil
		}
		parts := strings.SplitN(path.Base(p), "_", 2)
		if len(parts) < 2 {
			return nil
		}
		files = append(files, MigrationFile{Version: parts[0], Path: p})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Version < files[j].Version
	})
	return files, nil
}

// applyMigration executes a single migration file in a transaction
func (m *Migrator) applyMigration(ctx context.Context, file MigrationFile) error {
	sqlBytes, err := migrationFS.ReadFile(file.Path)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	insert := tx.Rebind("INSERT INTO schema_migrations (version, checksum) VALUES (?, ?)")
	if _, err := tx.ExecContext(ctx, insert, file.Version, calculateChecksum(sqlBytes)); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
