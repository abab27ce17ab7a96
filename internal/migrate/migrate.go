// Package migrate applies the SQL files under migrations/ in lexical order.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const DirName = "migrations"

const createVersionsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Up executes every *.up.sql file in dir that is not yet recorded in
// schema_migrations, in name order, each in its own transaction. It
// returns the files applied by this call.
func Up(ctx context.Context, db *sql.DB, dir string) ([]string, error) {
	files, err := upFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("migrate.Up: %w", err)
	}
	if _, err := db.ExecContext(ctx, createVersionsTable); err != nil {
		return nil, fmt.Errorf("migrate.Up: versions table: %w", err)
	}

	var applied []string
	for _, f := range files {
		done, err := apply(ctx, db, dir, f)
		if err != nil {
			return applied, fmt.Errorf("migrate.Up: %s: %w", f, err)
		}
		if done {
			applied = append(applied, f)
		}
	}
	return applied, nil
}

func apply(ctx context.Context, db *sql.DB, dir, file string) (bool, error) {
	version := strings.TrimSuffix(file, ".up.sql")

	content, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return false, fmt.Errorf("read: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING`, version)
	if err != nil {
		return false, fmt.Errorf("record version: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return false, fmt.Errorf("execute: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func upFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// FindDir walks up from the working directory looking for migrations/.
// go test runs with the package directory as CWD, so callers nested under
// internal/ still resolve the project root copy.
func FindDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return DirName
	}
	for range 10 {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	return DirName
}
