// Package db opens the workspace SQLite database. All durable state lives
// under <workspace>/.ventureline/ventureline.db.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	workspaceDir = ".ventureline"
	databaseFile = "ventureline.db"
)

// EnsureWorkspace creates the workspace data directory if missing and
// returns its path.
func EnsureWorkspace(workspace string) (string, error) {
	dir := filepath.Join(root(workspace), workspaceDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("db: create workspace: %w", err)
	}
	return dir, nil
}

// Open ensures the workspace exists and opens its database. Foreign keys
// are enabled; WAL and a busy timeout cover a CLI and a server sharing the
// same workspace.
func Open(workspace string) (*sql.DB, error) {
	if _, err := EnsureWorkspace(workspace); err != nil {
		return nil, err
	}
	dsn := "file:" + Path(workspace) +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", Path(workspace), err)
	}
	return conn, nil
}

// Path returns the database file path for a workspace.
func Path(workspace string) string {
	return filepath.Join(root(workspace), workspaceDir, databaseFile)
}

func root(workspace string) string {
	if workspace == "" {
		return "."
	}
	return workspace
}
