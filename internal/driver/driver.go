// Package driver provides pluggable database connectivity checks.
// Each database (PostgreSQL, MySQL, SQLite) implements the Driver interface
// so the generated project's DATABASE_URL can be verified before the first
// migration is run.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/johndauphine/drizzle-project/internal/logging"
)

// DefaultTimeout bounds a single connectivity check.
const DefaultTimeout = 10 * time.Second

// ErrEmptyURL is returned when no connection URL was given.
var ErrEmptyURL = errors.New("connection URL is empty")

// DriverDefaults contains default values for a database driver.
type DriverDefaults struct {
	// Port is the default port (0 for file based databases).
	Port int

	// Scheme is the URL scheme used in DATABASE_URL.
	Scheme string

	// OtherSchemes are further schemes the driver recognizes.
	OtherSchemes []string
}

// Accepts reports whether a URL with the given scheme belongs to the driver.
func (d DriverDefaults) Accepts(scheme string) bool {
	if strings.EqualFold(scheme, d.Scheme) {
		return true
	}
	for _, s := range d.OtherSchemes {
		if strings.EqualFold(scheme, s) {
			return true
		}
	}
	return false
}

// urlScheme returns the scheme of a scheme://... URL. DSNs and plain paths
// have none.
func urlScheme(url string) (string, bool) {
	i := strings.Index(url, "://")
	if i <= 0 {
		return "", false
	}
	scheme := url[:i]
	for j, r := range scheme {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isLetter && (j == 0 || !strings.ContainsRune("0123456789+-.", r)) {
			return "", false
		}
	}
	return scheme, true
}

// Driver checks that a database is reachable.
//
// To add a new database:
// 1. Create a package under internal/driver/<dbname>/
// 2. Implement the Driver interface
// 3. Register via init(): driver.Register(&MyDriver{})
type Driver interface {
	// Name returns the primary driver name, matching the init --driver value.
	Name() string

	// Aliases returns alternative names for this driver.
	Aliases() []string

	// Defaults returns the default configuration values for this driver.
	Defaults() DriverDefaults

	// Ping connects to url, runs a trivial query and returns the server
	// version.
	Ping(ctx context.Context, url string) (string, error)
}

var (
	mu      sync.RWMutex
	drivers = make(map[string]Driver)
	aliases = make(map[string]string)
)

// Register makes a driver available by name and aliases. It panics when a
// name is registered twice.
func Register(d Driver) {
	mu.Lock()
	defer mu.Unlock()

	name := strings.ToLower(d.Name())
	if _, dup := drivers[name]; dup {
		panic("driver: Register called twice for " + name)
	}
	drivers[name] = d
	for _, a := range d.Aliases() {
		aliases[strings.ToLower(a)] = name
	}
}

// Get returns the driver registered under name or one of its aliases.
func Get(name string) (Driver, error) {
	mu.RLock()
	defer mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if primary, ok := aliases[key]; ok {
		key = primary
	}
	d, ok := drivers[key]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q (available: %s)", name, strings.Join(availableLocked(), ", "))
	}
	return d, nil
}

// Available returns the primary names of all registered drivers, sorted.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()
	return availableLocked()
}

func availableLocked() []string {
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CheckResult is the outcome of a connectivity check.
type CheckResult struct {
	Driver    string `json:"driver"`
	Connected bool   `json:"connected"`
	Version   string `json:"version,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Check pings the database at url with the named driver. Connection
// failures, and a URL scheme the driver does not recognize, are reported in
// the result; only an unknown driver or an empty URL is returned as an error.
func Check(ctx context.Context, name, url string, timeout time.Duration) (*CheckResult, error) {
	d, err := Get(name)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	result := &CheckResult{
		Driver:    d.Name(),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	defaults := d.Defaults()
	if scheme, ok := urlScheme(url); ok && !defaults.Accepts(scheme) {
		result.Error = fmt.Sprintf("%s URL expected (%s://...), got %s://", d.Name(), defaults.Scheme, scheme)
		logging.Debug("%s check skipped: %s", d.Name(), result.Error)
		return result, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	version, err := d.Ping(checkCtx, url)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		logging.Debug("%s check failed after %dms: %v", d.Name(), result.LatencyMs, err)
		return result, nil
	}

	result.Connected = true
	result.Version = version
	logging.Debug("%s check ok in %dms (%s)", d.Name(), result.LatencyMs, version)
	return result, nil
}
