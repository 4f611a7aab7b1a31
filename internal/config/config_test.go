package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johndauphine/drizzle-project/internal/dbconfig"
)

func TestValidateDriver(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"mysql", false},
		{"postgresql", false},
		{"sqlite", false},
		{"postgres", true},
		{"", true},
		{"MYSQL", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ValidateDriver(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateDriver(%q) expected error", tt.input)
				}
				if !strings.Contains(err.Error(), "mysql, postgresql, sqlite") {
					t.Errorf("error should list allowed drivers: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateDriver(%q) unexpected error: %v", tt.input, err)
			}
			if string(d) != tt.input {
				t.Errorf("ValidateDriver(%q) = %q", tt.input, d)
			}
		})
	}
}

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"mysql2", false},
		{"node-postgres", false},
		{"better-sqlite3", false},
		{"sql.js", false},
		{"prisma", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ValidateProvider(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateProvider(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.input) {
				t.Errorf("error should name the offending value: %v", err)
			}
		})
	}
}

func TestValidateLanguage(t *testing.T) {
	if l, err := ValidateLanguage("typescript"); err != nil || l != dbconfig.TypeScript {
		t.Errorf("ValidateLanguage(typescript) = %q, %v", l, err)
	}
	if l, err := ValidateLanguage("javascript"); err != nil || l != dbconfig.JavaScript {
		t.Errorf("ValidateLanguage(javascript) = %q, %v", l, err)
	}
	if _, err := ValidateLanguage("ts"); err == nil {
		t.Error("ValidateLanguage(ts) expected error")
	}
}

func TestPathValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) (string, error)
		input   string
		wantErr bool
	}{
		{"migrate relative", ValidateMigrationFile, "./migrate.ts", false},
		{"migrate nested", ValidateMigrationFile, "scripts/migrate.js", false},
		{"migrate absolute", ValidateMigrationFile, "/tmp/migrate.ts", true},
		{"migrate no extension", ValidateMigrationFile, "./migrate", true},
		{"migrate empty", ValidateMigrationFile, "", true},
		{"dbdir relative", ValidateDatabaseDir, "./lib/db", false},
		{"dbdir absolute", ValidateDatabaseDir, "/lib/db", true},
		{"dbdir empty", ValidateDatabaseDir, "", true},
		{"outdir relative", ValidateOutputDir, "./drizzle", false},
		{"outdir absolute", ValidateOutputDir, "/drizzle", true},
		{"outdir empty", ValidateOutputDir, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validator(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.input {
				t.Errorf("validator(%q) = %q", tt.input, got)
			}
		})
	}
}

func validArgs() InitArgs {
	return InitArgs{
		Driver:      dbconfig.SQLite,
		Provider:    "better-sqlite3",
		Language:    dbconfig.TypeScript,
		MigrateFile: "./migrate.ts",
		DatabaseDir: "./lib/db",
		OutDir:      DefaultOutDir,
	}
}

func TestInitArgsValidate(t *testing.T) {
	if err := validArgs().Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	bad := validArgs()
	bad.OutDir = ""
	if err := bad.Validate(); err == nil {
		t.Error("Validate() expected error for empty out dir")
	}

	// Provider/driver mismatch is not a validation error.
	mismatch := validArgs()
	mismatch.Provider = "mysql2"
	if err := mismatch.Validate(); err != nil {
		t.Errorf("Validate() should leave the driver cross-check to the catalog: %v", err)
	}
}

func TestSanitizeDir(t *testing.T) {
	tests := map[string]string{
		"./lib/db/":  "./lib/db",
		"./lib/db":   "./lib/db",
		"lib/db//":   "lib/db",
		"./":         ".",
		`.\lib\db\`: `.\lib\db`,
	}
	for in, want := range tests {
		if got := SanitizeDir(in); got != want {
			t.Errorf("SanitizeDir(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMigrateCommand(t *testing.T) {
	args := validArgs()
	if got := args.MigrateCommand(); got != "tsx ./migrate.ts" {
		t.Errorf("typescript MigrateCommand() = %q", got)
	}
	args.Language = dbconfig.JavaScript
	args.MigrateFile = "./scripts/migrate.js"
	if got := args.MigrateCommand(); got != "node ./scripts/migrate.js" {
		t.Errorf("javascript MigrateCommand() = %q", got)
	}
}

func TestDestinations(t *testing.T) {
	cwd := t.TempDir()
	args := validArgs()
	args.DatabaseDir = "./lib/db/"

	paths := args.Destinations(cwd)
	want := DestinationPaths{
		ConfigFile:  filepath.Join(cwd, "drizzle.config.ts"),
		MigrateFile: filepath.Join(cwd, "migrate.ts"),
		SchemaFile:  filepath.Join(cwd, "lib", "db", "schema.ts"),
		ClientFile:  filepath.Join(cwd, "lib", "db", "index.ts"),
		Manifest:    filepath.Join(cwd, "package.json"),
	}
	if paths != want {
		t.Errorf("Destinations() = %+v, want %+v", paths, want)
	}

	files := paths.Files()
	if len(files) != 4 || files[0] != want.ConfigFile || files[3] != want.MigrateFile {
		t.Errorf("Files() order = %v", files)
	}

	args.Language = dbconfig.JavaScript
	if got := args.Destinations(cwd).SchemaFile; got != filepath.Join(cwd, "lib", "db", "schema.js") {
		t.Errorf("javascript schema path = %q", got)
	}
}

func TestDefaultDatabaseDir(t *testing.T) {
	tests := []struct {
		name string
		dirs []string
		want string
	}{
		{"bare project", nil, "./lib/db"},
		{"src layout", []string{"src"}, "./src/lib/db"},
		{"app layout", []string{"app"}, "./app/lib/db"},
		{"src wins over app", []string{"app", "src"}, "./src/lib/db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cwd := t.TempDir()
			for _, d := range tt.dirs {
				if err := os.Mkdir(filepath.Join(cwd, d), 0755); err != nil {
					t.Fatal(err)
				}
			}
			if got := DefaultDatabaseDir(cwd); got != tt.want {
				t.Errorf("DefaultDatabaseDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	cwd := t.TempDir()
	if got := DetectLanguage(cwd); got != "" {
		t.Errorf("empty project language = %q", got)
	}

	os.WriteFile(filepath.Join(cwd, "jsconfig.json"), []byte("{}"), 0644)
	if got := DetectLanguage(cwd); got != dbconfig.JavaScript {
		t.Errorf("jsconfig project language = %q", got)
	}

	os.WriteFile(filepath.Join(cwd, "tsconfig.json"), []byte("{}"), 0644)
	if got := DetectLanguage(cwd); got != dbconfig.TypeScript {
		t.Errorf("tsconfig project language = %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("missing implicit file", func(t *testing.T) {
		t.Setenv(FileEnvVar, "")
		f, err := Load("", t.TempDir())
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if f.Driver != "" || f.Install != nil {
			t.Errorf("expected empty defaults, got %+v", f)
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
			t.Error("Load() expected error for missing explicit file")
		}
	})

	t.Run("implicit file in cwd", func(t *testing.T) {
		t.Setenv(FileEnvVar, "")
		cwd := t.TempDir()
		content := `
driver: postgresql
provider: node-postgres
database_dir: ./src/db
install: false
extra_deps: [zod]
log_level: debug
`
		if err := os.WriteFile(filepath.Join(cwd, DefaultFile), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		f, err := Load("", cwd)
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if f.Driver != "postgresql" || f.Provider != "node-postgres" || f.DatabaseDir != "./src/db" {
			t.Errorf("unexpected values: %+v", f)
		}
		if f.Install == nil || *f.Install {
			t.Errorf("install = %v, want false", f.Install)
		}
		if len(f.ExtraDeps) != 1 || f.ExtraDeps[0] != "zod" {
			t.Errorf("extra_deps = %v", f.ExtraDeps)
		}
	})

	t.Run("env var path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "defaults.yaml")
		os.WriteFile(path, []byte("language: javascript\n"), 0644)
		t.Setenv(FileEnvVar, path)
		f, err := Load("", t.TempDir())
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if f.Language != "javascript" {
			t.Errorf("language = %q", f.Language)
		}
	})
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "drivr: mysql\n"},
		{"bad driver", "driver: oracle\n"},
		{"absolute dir", "database_dir: /srv/db\n"},
		{"migrate without extension", "migrate_file: ./migrate\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.content)); err == nil {
				t.Errorf("Parse(%q) expected error", tt.content)
			}
		})
	}

	f, err := Parse(nil)
	if err != nil || f == nil {
		t.Errorf("Parse(empty) = %v, %v", f, err)
	}
}

func TestGenerateTemplateParses(t *testing.T) {
	if _, err := Parse([]byte(GenerateTemplate())); err != nil {
		t.Errorf("template should parse: %v", err)
	}
}
