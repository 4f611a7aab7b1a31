package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/johndauphine/drizzle-project/internal/config"
	"github.com/johndauphine/drizzle-project/internal/dbconfig"
	"github.com/johndauphine/drizzle-project/internal/driver"
	_ "github.com/johndauphine/drizzle-project/internal/driver/mysql"
	_ "github.com/johndauphine/drizzle-project/internal/driver/postgres"
	_ "github.com/johndauphine/drizzle-project/internal/driver/sqlite"
	"github.com/johndauphine/drizzle-project/internal/fsutil"
	"github.com/johndauphine/drizzle-project/internal/logging"
	"github.com/johndauphine/drizzle-project/internal/orchestrator"
	"github.com/johndauphine/drizzle-project/internal/pkgmanager"
	"github.com/johndauphine/drizzle-project/internal/prompt"
	"github.com/johndauphine/drizzle-project/internal/templates"
	"github.com/johndauphine/drizzle-project/internal/util"
	"github.com/johndauphine/drizzle-project/internal/version"
)

// commandError carries the heading printed above a failed command's error.
type commandError struct {
	heading string
	err     error
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

func main() {
	if err := newApp().Run(os.Args); err != nil {
		heading := "Error"
		var ce *commandError
		if errors.As(err, &ce) {
			heading = ce.heading
		}
		fmt.Fprintf(os.Stderr, "%s\n\n%v\n", prompt.Failure(heading), err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	globalFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a defaults file (default: " + config.DefaultFile + ", env " + config.FileEnvVar + ")",
		},
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Project directory (default: current directory)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "Log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Value: "text",
			Usage: "Log format (text, json)",
		},
	}

	// init is also the default action, so its flags work without the
	// command name.
	initFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "driver",
			Aliases: []string{"d"},
			Usage:   "Database driver to use (" + dbconfig.Join(dbconfig.Drivers) + ")",
			Action: func(_ *cli.Context, v string) error {
				_, err := config.ValidateDriver(v)
				return err
			},
		},
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"p"},
			Usage:   "Database provider to use",
			Action: func(_ *cli.Context, v string) error {
				_, err := config.ValidateProvider(v)
				return err
			},
		},
		&cli.StringFlag{
			Name:    "language",
			Aliases: []string{"l"},
			Usage:   "Generated file type (typescript, javascript)",
			Action: func(_ *cli.Context, v string) error {
				_, err := config.ValidateLanguage(v)
				return err
			},
		},
		&cli.StringFlag{
			Name:    "migrate-file",
			Aliases: []string{"m"},
			Usage:   "Migration file path",
			Action: func(_ *cli.Context, v string) error {
				_, err := config.ValidateMigrationFile(v)
				return err
			},
		},
		&cli.StringFlag{
			Name:    "database-dir",
			Aliases: []string{"b"},
			Usage:   "Directory for the database client and schema files",
		},
		&cli.StringFlag{
			Name:    "out-dir",
			Aliases: []string{"o"},
			Usage:   "Directory drizzle-kit writes migrations to (default: " + config.DefaultOutDir + ")",
		},
		&cli.BoolFlag{
			Name:    "install",
			Aliases: []string{"i"},
			Usage:   "Install the dependencies",
		},
		&cli.BoolFlag{
			Name:  "no-install",
			Usage: "Do not install the dependencies",
		},
		&cli.StringFlag{
			Name:  "extra-deps",
			Usage: "Comma-separated extra runtime dependencies to install",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Do not prompt, use defaults for anything not given",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Show what would be created without writing anything",
		},
		&cli.BoolFlag{
			Name:  "output-json",
			Usage: "Print the result as JSON",
		},
		&cli.StringFlag{
			Name:  "output-file",
			Usage: "Write the JSON result to a file",
		},
	}

	return &cli.App{
		Name:    version.Name,
		Usage:   version.Description,
		Version: version.Version,
		Flags:   append(globalFlags, initFlags...),
		Before:  setupLogging,
		Action:  runInit,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create the drizzle config, schema, client and migration files",
				Flags:  initFlags,
				Action: runInit,
			},
			{
				Name:   "list",
				Usage:  "List drivers and providers",
				Action: listProviders,
			},
			{
				Name:  "check",
				Usage: "Check that DATABASE_URL is reachable",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "driver",
						Aliases: []string{"d"},
						Usage:   "Database driver (default: from the defaults file)",
					},
					&cli.StringFlag{
						Name:    "url",
						EnvVars: []string{"DATABASE_URL"},
						Usage:   "Connection URL",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: driver.DefaultTimeout,
						Usage: "Connection timeout",
					},
					&cli.BoolFlag{
						Name:  "output-json",
						Usage: "Print the result as JSON",
					},
					&cli.StringFlag{
						Name:  "output-file",
						Usage: "Write the JSON result to a file",
					},
				},
				Action: checkDatabase,
			},
			{
				Name:   "init-config",
				Usage:  "Write a commented " + config.DefaultFile + " to the project",
				Action: writeConfigTemplate,
			},
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "%s %s\n", version.Name, version.Version)
					return nil
				},
			},
		},
	}
}

// settings are the global options resolved against the defaults file.
type settings struct {
	dir  string
	file *config.File
}

func loadSettings(c *cli.Context) (*settings, error) {
	dir := globalString(c, "dir")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	file, err := config.Load(globalString(c, "config"), dir)
	if err != nil {
		return nil, err
	}
	return &settings{dir: dir, file: file}, nil
}

// globalString finds a flag value set anywhere in the command lineage.
func globalString(c *cli.Context, name string) string {
	for _, ctx := range c.Lineage() {
		if ctx == nil {
			continue
		}
		if ctx.IsSet(name) {
			return ctx.String(name)
		}
	}
	return c.String(name)
}

func setupLogging(c *cli.Context) error {
	logging.SetOutput(c.App.ErrWriter)

	s, err := loadSettings(c)
	if err != nil {
		return err
	}

	levelName := c.String("log-level")
	if !c.IsSet("log-level") && s.file.LogLevel != "" {
		levelName = s.file.LogLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logging.SetLevel(level)

	format := c.String("log-format")
	if !c.IsSet("log-format") && s.file.LogFormat != "" {
		format = s.file.LogFormat
	}
	logging.SetFormat(format)
	logging.SetSimpleMode(format != "json")
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM so child processes stop.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted.")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// answersFrom merges flags over the defaults file.
func answersFrom(c *cli.Context, f *config.File) prompt.Answers {
	pick := func(flag, fallback string) string {
		if c.IsSet(flag) {
			return c.String(flag)
		}
		return fallback
	}

	a := prompt.Answers{
		Driver:      pick("driver", f.Driver),
		Provider:    pick("provider", f.Provider),
		Language:    pick("language", f.Language),
		MigrateFile: pick("migrate-file", f.MigrateFile),
		DatabaseDir: pick("database-dir", f.DatabaseDir),
		OutDir:      pick("out-dir", f.OutDir),
		Install:     f.Install,
		ExtraDeps:   f.ExtraDeps,
	}
	switch {
	case c.Bool("no-install"):
		install := false
		a.Install = &install
	case c.Bool("install"):
		install := true
		a.Install = &install
	}
	if c.IsSet("extra-deps") {
		a.ExtraDeps = util.SplitCSV(c.String("extra-deps"))
	}
	return a
}

func runInit(c *cli.Context) error {
	if err := initCommand(c); err != nil {
		return &commandError{heading: "Failed to initialize drizzle", err: err}
	}
	return nil
}

func initCommand(c *cli.Context) error {
	if c.Bool("install") && c.Bool("no-install") {
		return errors.New("--install and --no-install cannot be used together")
	}

	s, err := loadSettings(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	manager, err := pkgmanager.Detect(s.dir)
	if err != nil {
		return err
	}

	var p prompt.Prompter = prompt.Defaults{}
	if !c.Bool("yes") {
		fd := os.Stdin.Fd()
		p = prompt.Form{Accessible: !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)}
	}
	args, err := prompt.Complete(ctx, p, answersFrom(c, s.file), s.dir, manager)
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Dir:            s.dir,
		Output:         c.App.ErrWriter,
		DryRun:         c.Bool("dry-run"),
		PackageManager: &manager,
	})
	if err != nil {
		return err
	}

	result, err := orch.Run(ctx, args)
	if result != nil && len(result.Created) > 0 && err != nil {
		printCreated(c.App.Writer, result, s.dir)
	}
	if err != nil {
		return err
	}

	printSummary(c.App.Writer, result, s.dir, c.Bool("dry-run"))
	return outputJSON(c, newInitReport(result, s.dir, c.Bool("dry-run")))
}

func rel(dir, path string) string {
	r, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(r)
}

func printCreated(w io.Writer, r *orchestrator.Result, dir string) {
	for _, p := range r.Created {
		fmt.Fprintln(w, prompt.Success("Created "+rel(dir, p)))
	}
}

func printSummary(w io.Writer, r *orchestrator.Result, dir string, dryRun bool) {
	if dryRun {
		fmt.Fprintln(w, prompt.Title("Dry run: nothing was written"))
		for _, f := range r.Plan.Files {
			fmt.Fprintln(w, prompt.Muted("  would create ")+rel(dir, f.Path))
		}
		fmt.Fprintln(w, prompt.Muted("  scripts:"))
		for _, s := range r.Plan.Scripts {
			fmt.Fprintln(w, prompt.Code(fmt.Sprintf("%s: %s", s[0], s[1])))
		}
		if r.Args.Install {
			fmt.Fprintln(w, prompt.Muted("  install:"))
			for _, cmd := range r.Plan.InstallCommands {
				fmt.Fprintln(w, prompt.Code(cmd))
			}
		}
		return
	}

	printCreated(w, r, dir)
	if r.ManifestUpdated {
		fmt.Fprintln(w, prompt.Success("Added db:generate, db:push and db:migrate to "+config.ManifestFile))
	}
	if r.Installed {
		fmt.Fprintln(w, prompt.Success("Installed dependencies with "+r.PackageManager.Resolved().String()))
	}
	for _, warn := range r.Warnings {
		fmt.Fprintln(w, prompt.Warning(warn))
	}

	var next []string
	if !r.Installed {
		next = append(next, r.Plan.InstallCommands...)
	}
	env := "DATABASE_URL"
	if r.Args.Provider == "turso" || r.Args.Provider == "libsql" {
		env += " and DATABASE_AUTH_TOKEN"
	}
	next = append(next, "# set "+env+" in .env", "npm run db:generate", "npm run db:migrate")

	lines := append([]string{prompt.Title("Next steps")}, next...)
	fmt.Fprintln(w, prompt.Box(strings.Join(lines, "\n")))
}

// initReport is the JSON form of an init result.
type initReport struct {
	RunID           string   `json:"run_id"`
	Driver          string   `json:"driver"`
	Provider        string   `json:"provider"`
	Language        string   `json:"language"`
	PackageManager  string   `json:"package_manager"`
	DryRun          bool     `json:"dry_run"`
	Files           []string `json:"files"`
	ManifestUpdated bool     `json:"manifest_updated"`
	Installed       bool     `json:"installed"`
	Dependencies    []string `json:"dependencies"`
	DevDependencies []string `json:"dev_dependencies"`
	Warnings        []string `json:"warnings,omitempty"`
}

func newInitReport(r *orchestrator.Result, dir string, dryRun bool) *initReport {
	report := &initReport{
		RunID:           r.RunID,
		Driver:          string(r.Args.Driver),
		Provider:        string(r.Args.Provider),
		Language:        string(r.Args.Language),
		PackageManager:  r.PackageManager.String(),
		DryRun:          dryRun,
		ManifestUpdated: r.ManifestUpdated,
		Installed:       r.Installed,
		Dependencies:    r.Plan.Dependencies,
		DevDependencies: r.Plan.DevDependencies,
		Warnings:        r.Warnings,
	}
	for _, f := range r.Plan.Files {
		report.Files = append(report.Files, rel(dir, f.Path))
	}
	return report
}

// outputJSON writes result as JSON to stdout (--output-json) and/or a file
// (--output-file).
func outputJSON(c *cli.Context, result any) error {
	toStdout := c.Bool("output-json")
	file := c.String("output-file")
	if !toStdout && file == "" {
		return nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')

	if toStdout {
		if _, err := os.Stdout.Write(data); err != nil {
			return err
		}
	}
	if file != "" {
		if err := os.WriteFile(file, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", file, err)
		}
	}
	return nil
}

func listProviders(c *cli.Context) error {
	keys, err := templates.Default().Catalog()
	if err != nil {
		return err
	}
	implemented := make(map[dbconfig.ProviderKey]bool, len(keys))
	for _, k := range keys {
		implemented[k] = true
	}

	w := c.App.Writer
	for _, d := range dbconfig.Drivers {
		fmt.Fprintln(w, prompt.Title(string(d)))
		for _, p := range d.Providers() {
			if implemented[dbconfig.ProviderKey{Driver: d, Provider: p}] {
				fmt.Fprintf(w, "  %s\n", p)
			} else {
				fmt.Fprintf(w, "  %s %s\n", p, prompt.Muted("(not implemented yet)"))
			}
		}
	}
	return nil
}

func checkDatabase(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return err
	}

	name := c.String("driver")
	if name == "" {
		name = s.file.Driver
	}
	if name == "" {
		return &commandError{heading: "Database check failed", err: errors.New("--driver is required")}
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := driver.Check(ctx, name, c.String("url"), c.Duration("timeout"))
	if err != nil {
		return &commandError{heading: "Database check failed", err: err}
	}
	if err := outputJSON(c, result); err != nil {
		return err
	}

	if !result.Connected {
		return &commandError{
			heading: "Database check failed",
			err:     fmt.Errorf("%s: %s", result.Driver, result.Error),
		}
	}
	fmt.Fprintln(c.App.Writer, prompt.Success(fmt.Sprintf("Connected to %s in %s",
		result.Version, (time.Duration(result.LatencyMs)*time.Millisecond).String())))
	return nil
}

func writeConfigTemplate(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, config.DefaultFile)
	if err := fsutil.Write(path, []byte(config.GenerateTemplate())); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, prompt.Success("Created "+config.DefaultFile))
	return nil
}
