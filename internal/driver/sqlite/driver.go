// Package sqlite provides the SQLite driver implementation.
// It registers itself with the driver registry on import.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/johndauphine/drizzle-project/internal/driver"
)

func init() {
	driver.Register(&Driver{})
}

// ErrRemote is returned for libsql/turso URLs, which need a network client.
var ErrRemote = errors.New("remote libsql/turso databases cannot be checked, only local files")

var remoteSchemes = []string{"libsql://", "http://", "https://", "ws://", "wss://"}

// Driver implements driver.Driver for local SQLite database files.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "sqlite"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"sqlite3", "libsql"}
}

// Defaults returns the default configuration values for SQLite.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Scheme: "file",

		// Remote schemes are recognized so Ping can reject them with ErrRemote.
		OtherSchemes: []string{"libsql", "http", "https", "ws", "wss"},
	}
}

// Ping opens the database file and returns the library version.
// The file must already exist.
func (d *Driver) Ping(ctx context.Context, url string) (string, error) {
	path, err := FilePath(url)
	if err != nil {
		return "", err
	}

	// Opening a missing file would create it.
	if path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("opening %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return "", fmt.Errorf("querying %s: %w", path, err)
	}
	return "SQLite " + version, nil
}

// FilePath extracts the database file from a DATABASE_URL value. Both
// plain paths and file: URLs are accepted.
func FilePath(url string) (string, error) {
	lower := strings.ToLower(url)
	for _, s := range remoteSchemes {
		if strings.HasPrefix(lower, s) {
			return "", ErrRemote
		}
	}

	path := strings.TrimPrefix(url, "file:")
	path = strings.TrimPrefix(path, "//")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "", driver.ErrEmptyURL
	}
	return path, nil
}
