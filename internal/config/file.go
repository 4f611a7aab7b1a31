package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is looked up in the working directory when no path is given.
	DefaultFile = ".drizzle-project.yaml"
	// FileEnvVar overrides the defaults file location.
	FileEnvVar = "DRIZZLE_PROJECT_CONFIG"
)

// File holds per-project defaults. Every field is optional; command-line
// flags take precedence over values loaded here.
type File struct {
	Driver      string   `yaml:"driver"`
	Provider    string   `yaml:"provider"`
	Language    string   `yaml:"language"`
	MigrateFile string   `yaml:"migrate_file"`
	DatabaseDir string   `yaml:"database_dir"`
	OutDir      string   `yaml:"out_dir"`
	Install     *bool    `yaml:"install"`
	ExtraDeps   []string `yaml:"extra_deps"`
	LogLevel    string   `yaml:"log_level"`
	LogFormat   string   `yaml:"log_format"`
}

// Load reads the defaults file. An explicit path (argument or FileEnvVar)
// must exist; the implicit DefaultFile in cwd is optional and a missing one
// yields an empty File.
func Load(path, cwd string) (*File, error) {
	explicit := true
	if path == "" {
		path = os.Getenv(FileEnvVar)
	}
	if path == "" {
		explicit = false
		path = filepath.Join(cwd, DefaultFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return &File{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates defaults file content. Unknown keys are
// rejected so typos surface instead of being ignored.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the values that are set.
func (f *File) Validate() error {
	if f.Driver != "" {
		if _, err := ValidateDriver(f.Driver); err != nil {
			return err
		}
	}
	if f.Provider != "" {
		if _, err := ValidateProvider(f.Provider); err != nil {
			return err
		}
	}
	if f.Language != "" {
		if _, err := ValidateLanguage(f.Language); err != nil {
			return err
		}
	}
	if f.MigrateFile != "" {
		if _, err := ValidateMigrationFile(f.MigrateFile); err != nil {
			return err
		}
	}
	if f.DatabaseDir != "" {
		if _, err := ValidateDatabaseDir(f.DatabaseDir); err != nil {
			return err
		}
	}
	if f.OutDir != "" {
		if _, err := ValidateOutputDir(f.OutDir); err != nil {
			return err
		}
	}
	return nil
}

// GenerateTemplate returns a commented defaults file.
func GenerateTemplate() string {
	return `# drizzle-project defaults
# Values here are used when the matching flag is not given.

# driver: postgresql          # mysql, postgresql, sqlite
# provider: node-postgres     # see: drizzle-project list
# language: typescript        # typescript, javascript
# migrate_file: ./migrate.ts
# database_dir: ./src/lib/db
# out_dir: ./drizzle
# install: true
# extra_deps: [zod, drizzle-zod]

# log_level: info             # debug, info, warn, error
# log_format: text            # text, json
`
}
