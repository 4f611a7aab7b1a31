// Package dbconfig holds the static driver and provider tables shared by
// the config, templates, manifest and driver packages. It exists so those
// packages agree on names without importing each other.
package dbconfig

import "strings"

// Driver is a database family.
type Driver string

const (
	MySQL      Driver = "mysql"
	PostgreSQL Driver = "postgresql"
	SQLite     Driver = "sqlite"
)

// Drivers lists every supported driver in display order.
var Drivers = []Driver{MySQL, PostgreSQL, SQLite}

// Provider is a client library choice within a driver.
type Provider string

// Language selects the file flavour that gets generated.
type Language string

const (
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
)

// Languages lists the supported languages, default first.
var Languages = []Language{TypeScript, JavaScript}

// Ext returns the file extension (without dot) for the language.
func (l Language) Ext() string {
	if l == JavaScript {
		return "js"
	}
	return "ts"
}

// Scripts are the drizzle-kit commands wired into package.json for a driver.
// Migrate may contain placeholder tokens that are resolved per run.
type Scripts struct {
	Generate string
	Push     string
	Migrate  string
}

// MigrateCommandToken is replaced by the command that runs the migration file.
const MigrateCommandToken = "#migrateCommand"

type driverSpec struct {
	providers []Provider
	scripts   Scripts
}

var specs = map[Driver]driverSpec{
	MySQL: {
		providers: []Provider{"mysql2", "planetscale"},
		scripts: Scripts{
			Generate: "npx drizzle-kit generate:mysql",
			Push:     "npx drizzle-kit push:mysql",
			Migrate:  MigrateCommandToken,
		},
	},
	PostgreSQL: {
		providers: []Provider{"node-postgres", "neon-http", "postgres-js", "pglite"},
		scripts: Scripts{
			Generate: "npx drizzle-kit generate:pg",
			Push:     "npx drizzle-kit push:pg",
			Migrate:  MigrateCommandToken,
		},
	},
	SQLite: {
		providers: []Provider{"better-sqlite3", "libsql", "turso", "bun", "sql.js"},
		scripts: Scripts{
			Generate: "npx drizzle-kit generate:sqlite",
			Push:     "npx drizzle-kit push:sqlite",
			Migrate:  MigrateCommandToken,
		},
	},
}

// IsValid reports whether d is one of the supported drivers.
func (d Driver) IsValid() bool {
	_, ok := specs[d]
	return ok
}

// Providers returns the providers that belong to the driver, or nil for an
// unknown driver.
func (d Driver) Providers() []Provider {
	spec, ok := specs[d]
	if !ok {
		return nil
	}
	return append([]Provider(nil), spec.providers...)
}

// Scripts returns the package.json scripts for the driver.
func (d Driver) Scripts() (Scripts, bool) {
	spec, ok := specs[d]
	return spec.scripts, ok
}

// HasProvider reports whether p belongs to the driver.
func (d Driver) HasProvider(p Provider) bool {
	for _, candidate := range specs[d].providers {
		if candidate == p {
			return true
		}
	}
	return false
}

// AllProviders returns every provider of every driver, in driver order.
func AllProviders() []Provider {
	var all []Provider
	for _, d := range Drivers {
		all = append(all, specs[d].providers...)
	}
	return all
}

// DriversFor returns the drivers that list p as a provider.
func DriversFor(p Provider) []Driver {
	var drivers []Driver
	for _, d := range Drivers {
		if d.HasProvider(p) {
			drivers = append(drivers, d)
		}
	}
	return drivers
}

// ProviderKey identifies one template bundle.
type ProviderKey struct {
	Driver   Driver
	Provider Provider
}

// String returns "driver/provider".
func (k ProviderKey) String() string {
	return string(k.Driver) + "/" + string(k.Provider)
}

// Join renders a list of names for error messages.
func Join[T ~string](items []T) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = string(item)
	}
	return strings.Join(parts, ", ")
}
