package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/johndauphine/drizzle-project/internal/dbconfig"
)

const (
	// DefaultOutDir is where drizzle-kit writes generated migrations.
	DefaultOutDir = "./drizzle"

	// ManifestFile is the package manifest at the project root.
	ManifestFile = "package.json"
)

// InitArgs is the validated input of one init run.
type InitArgs struct {
	Driver      dbconfig.Driver
	Provider    dbconfig.Provider
	Language    dbconfig.Language
	MigrateFile string
	DatabaseDir string
	OutDir      string
	Install     bool

	// ExtraDeps are additional runtime dependencies requested by the user.
	ExtraDeps []string
}

// Key returns the template catalog key for the args.
func (a InitArgs) Key() dbconfig.ProviderKey {
	return dbconfig.ProviderKey{Driver: a.Driver, Provider: a.Provider}
}

// Validate runs every option validator over the args and returns the first
// failure.
func (a InitArgs) Validate() error {
	if _, err := ValidateDriver(string(a.Driver)); err != nil {
		return err
	}
	if _, err := ValidateProvider(string(a.Provider)); err != nil {
		return err
	}
	if _, err := ValidateLanguage(string(a.Language)); err != nil {
		return err
	}
	if _, err := ValidateMigrationFile(a.MigrateFile); err != nil {
		return err
	}
	if _, err := ValidateDatabaseDir(a.DatabaseDir); err != nil {
		return err
	}
	if _, err := ValidateOutputDir(a.OutDir); err != nil {
		return err
	}
	return nil
}

// Sanitized returns a copy with trailing separators removed from the
// directory paths ("./lib/db/" becomes "./lib/db").
func (a InitArgs) Sanitized() InitArgs {
	a.DatabaseDir = SanitizeDir(a.DatabaseDir)
	a.OutDir = SanitizeDir(a.OutDir)
	return a
}

// SanitizeDir strips trailing path separators, keeping a lone ".".
func SanitizeDir(dir string) string {
	trimmed := strings.TrimRight(dir, `/\`)
	if trimmed == "" && dir != "" {
		return "."
	}
	return trimmed
}

// MigrateCommand is the shell command that runs the migration file: node for
// javascript, tsx (transpile and run) for typescript.
func (a InitArgs) MigrateCommand() string {
	file := filepath.ToSlash(a.MigrateFile)
	if a.Language == dbconfig.JavaScript {
		return "node " + file
	}
	return "tsx " + file
}

// DestinationPaths are the absolute paths a run writes to.
type DestinationPaths struct {
	ConfigFile  string
	MigrateFile string
	SchemaFile  string
	ClientFile  string
	Manifest    string
}

// Destinations derives the output paths from the args and the working
// directory. The result is never cached; call again after changing args.
func (a InitArgs) Destinations(cwd string) DestinationPaths {
	ext := a.Language.Ext()
	dbDir := filepath.Join(cwd, filepath.FromSlash(SanitizeDir(a.DatabaseDir)))
	return DestinationPaths{
		ConfigFile:  filepath.Join(cwd, "drizzle.config."+ext),
		MigrateFile: filepath.Join(cwd, filepath.FromSlash(a.MigrateFile)),
		SchemaFile:  filepath.Join(dbDir, "schema."+ext),
		ClientFile:  filepath.Join(dbDir, "index."+ext),
		Manifest:    filepath.Join(cwd, ManifestFile),
	}
}

// Files returns the four generated files in write order:
// config, schema, client, migration.
func (p DestinationPaths) Files() []string {
	return []string{p.ConfigFile, p.SchemaFile, p.ClientFile, p.MigrateFile}
}

// DefaultMigrateFile returns the migration runner path for a language.
func DefaultMigrateFile(lang dbconfig.Language) string {
	return "./migrate." + lang.Ext()
}

// DefaultDatabaseDir picks a database directory that matches the project
// layout: src/ and app/ projects keep the files under their source root.
func DefaultDatabaseDir(cwd string) string {
	if isDir(filepath.Join(cwd, "src")) {
		return "./src/lib/db"
	}
	if isDir(filepath.Join(cwd, "app")) {
		return "./app/lib/db"
	}
	return "./lib/db"
}

// DetectLanguage guesses the project language from its config files.
// Returns "" when nothing points either way.
func DetectLanguage(cwd string) dbconfig.Language {
	entries, err := os.ReadDir(cwd)
	if err != nil {
		return ""
	}
	var hasJSConfig bool
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "tsconfig.") {
			return dbconfig.TypeScript
		}
		if name == "jsconfig.json" {
			hasJSConfig = true
		}
	}
	if hasJSConfig {
		return dbconfig.JavaScript
	}
	return ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// String renders the args for debug logs.
func (a InitArgs) String() string {
	return fmt.Sprintf("driver=%s provider=%s language=%s migrate=%s databaseDir=%s outDir=%s install=%t",
		a.Driver, a.Provider, a.Language, a.MigrateFile, a.DatabaseDir, a.OutDir, a.Install)
}
