package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/johndauphine/drizzle-project/internal/dbconfig"
)

// ValidateDriver checks that input names one of the supported drivers.
func ValidateDriver(input string) (dbconfig.Driver, error) {
	d := dbconfig.Driver(input)
	if !d.IsValid() {
		return "", fmt.Errorf("unknown driver %q, expected one of: %s", input, dbconfig.Join(dbconfig.Drivers))
	}
	return d, nil
}

// ValidateProvider checks that input is a provider of some driver. Whether it
// belongs to the chosen driver is checked when templates are resolved, so
// "wrong driver" and "unknown provider" stay distinguishable.
func ValidateProvider(input string) (dbconfig.Provider, error) {
	p := dbconfig.Provider(input)
	if len(dbconfig.DriversFor(p)) == 0 {
		return "", fmt.Errorf("unknown provider %q, expected one of: %s", input, dbconfig.Join(dbconfig.AllProviders()))
	}
	return p, nil
}

// ValidateLanguage accepts "typescript" or "javascript".
func ValidateLanguage(input string) (dbconfig.Language, error) {
	for _, l := range dbconfig.Languages {
		if string(l) == input {
			return l, nil
		}
	}
	return "", fmt.Errorf("invalid language %q, expected 'typescript' or 'javascript'", input)
}

// ValidateMigrationFile requires a relative path with a file extension.
func ValidateMigrationFile(input string) (string, error) {
	if filepath.IsAbs(input) {
		return "", fmt.Errorf("migrate file path %q should be relative to the current dir", input)
	}
	// Anything with an extension is assumed to be a file.
	if filepath.Ext(input) == "" {
		return "", fmt.Errorf("expected a valid file, eg: migrate.ts (got %q)", input)
	}
	return input, nil
}

// ValidateDatabaseDir requires a non-empty relative path.
func ValidateDatabaseDir(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("database and schema directory must not be empty")
	}
	if filepath.IsAbs(input) {
		return "", fmt.Errorf("database and schema path %q should be relative to the current dir", input)
	}
	return input, nil
}

// ValidateOutputDir requires a non-empty relative path.
func ValidateOutputDir(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("output directory must not be empty")
	}
	if filepath.IsAbs(input) {
		return "", fmt.Errorf("output directory path %q should be relative to the current dir", input)
	}
	return input, nil
}
