// Package mysql provides the MySQL/MariaDB driver implementation.
// It registers itself with the driver registry on import.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/johndauphine/drizzle-project/internal/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for MySQL/MariaDB databases.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "mysql"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"mariadb", "maria"}
}

var defaults = driver.DriverDefaults{
	Port:   3306,
	Scheme: "mysql",
}

// Defaults returns the default configuration values for MySQL.
func (d *Driver) Defaults() driver.DriverDefaults {
	return defaults
}

// Ping opens a single connection and returns the server version.
func (d *Driver) Ping(ctx context.Context, rawURL string) (string, error) {
	dsn, err := BuildDSN(rawURL)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return "", fmt.Errorf("opening connection: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return "", fmt.Errorf("pinging database: %w", err)
	}

	var version string
	if err := db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return "", fmt.Errorf("querying server version: %w", err)
	}
	if strings.Contains(strings.ToLower(version), "mariadb") {
		return "MariaDB " + version, nil
	}
	return "MySQL " + version, nil
}

// BuildDSN converts a mysql:// URL, as used by drizzle and most hosting
// providers, into a go-sql-driver DSN. Anything else is validated and
// returned as a DSN.
func BuildDSN(rawURL string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(rawURL), defaults.Scheme+"://") {
		cfg, err := gomysql.ParseDSN(rawURL)
		if err != nil {
			return "", fmt.Errorf("parsing DSN: %w", err)
		}
		return cfg.FormatDSN(), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing connection URL: %w", err)
	}

	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := u.Port()
	if port == "" {
		port = strconv.Itoa(defaults.Port)
	}
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.DBName = strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	// PlanetScale style URLs carry ssl={"rejectUnauthorized":true}
	if ssl := query.Get("ssl"); ssl != "" {
		cfg.TLSConfig = "true"
		query.Del("ssl")
	}
	if mode := query.Get("sslaccept"); mode != "" {
		if mode == "strict" {
			cfg.TLSConfig = "true"
		}
		query.Del("sslaccept")
	}
	for k := range query {
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[k] = query.Get(k)
	}

	return cfg.FormatDSN(), nil
}
