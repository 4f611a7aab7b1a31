// Package prompt fills in init options the user did not pass on the command
// line, either by asking or by falling back to defaults.
package prompt

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/johndauphine/drizzle-project/internal/config"
	"github.com/johndauphine/drizzle-project/internal/dbconfig"
	"github.com/johndauphine/drizzle-project/internal/pkgmanager"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = huh.ErrUserAborted

// Prompter asks the user for a single value.
type Prompter interface {
	Select(ctx context.Context, title string, options []string, def string) (string, error)
	Input(ctx context.Context, title, def string, validate func(string) error) (string, error)
	Confirm(ctx context.Context, title string, def bool) (bool, error)
}

// Form asks through interactive terminal forms.
type Form struct {
	// Accessible switches to plain line based prompts for screen readers
	// and terminals without cursor control.
	Accessible bool
}

// Select implements Prompter.
func (f Form) Select(ctx context.Context, title string, options []string, def string) (string, error) {
	value := def
	field := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&value)
	if err := f.run(ctx, field); err != nil {
		return "", err
	}
	return value, nil
}

// Input implements Prompter. An empty answer takes def.
func (f Form) Input(ctx context.Context, title, def string, validate func(string) error) (string, error) {
	var value string
	field := huh.NewInput().
		Title(title).
		Placeholder(def).
		Value(&value).
		Validate(func(s string) error {
			if s == "" || validate == nil {
				return nil
			}
			return validate(s)
		})
	if err := f.run(ctx, field); err != nil {
		return "", err
	}
	if value == "" {
		value = def
	}
	return value, nil
}

// Confirm implements Prompter.
func (f Form) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	value := def
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&value)
	if err := f.run(ctx, field); err != nil {
		return false, err
	}
	return value, nil
}

func (f Form) run(ctx context.Context, field huh.Field) error {
	return huh.NewForm(huh.NewGroup(field)).
		WithAccessible(f.Accessible).
		RunWithContext(ctx)
}

// Defaults answers every prompt with its default. Used with --yes.
type Defaults struct{}

// Select implements Prompter.
func (Defaults) Select(_ context.Context, _ string, _ []string, def string) (string, error) {
	return def, nil
}

// Input implements Prompter.
func (Defaults) Input(_ context.Context, _ string, def string, _ func(string) error) (string, error) {
	return def, nil
}

// Confirm implements Prompter.
func (Defaults) Confirm(_ context.Context, _ string, def bool) (bool, error) {
	return def, nil
}

// Answers are the init options as given on the command line or in the
// config file. Empty strings and a nil Install mean "not given".
type Answers struct {
	Driver      string
	Provider    string
	Language    string
	MigrateFile string
	DatabaseDir string
	OutDir      string
	Install     *bool
	ExtraDeps   []string
}

// Complete asks p for every missing answer and returns validated init args.
// cwd is used to pick defaults that fit the project; manager is only shown
// in the install question.
func Complete(ctx context.Context, p Prompter, a Answers, cwd string, manager pkgmanager.Manager) (config.InitArgs, error) {
	var args config.InitArgs
	var err error

	if a.Driver == "" {
		a.Driver, err = p.Select(ctx, "What driver do you want to use?",
			toStrings(dbconfig.Drivers), string(dbconfig.Drivers[0]))
		if err != nil {
			return args, err
		}
	}
	if args.Driver, err = config.ValidateDriver(a.Driver); err != nil {
		return args, err
	}

	if a.Provider == "" {
		providers := args.Driver.Providers()
		a.Provider, err = p.Select(ctx,
			fmt.Sprintf("What %s provider do you want to use?", Highlight(string(args.Driver))),
			toStrings(providers), string(providers[0]))
		if err != nil {
			return args, err
		}
	}
	if args.Provider, err = config.ValidateProvider(a.Provider); err != nil {
		return args, err
	}

	if a.Language == "" {
		def := config.DetectLanguage(cwd)
		if def == "" {
			def = dbconfig.TypeScript
		}
		a.Language, err = p.Select(ctx, "Config file type", toStrings(dbconfig.Languages), string(def))
		if err != nil {
			return args, err
		}
	}
	if args.Language, err = config.ValidateLanguage(a.Language); err != nil {
		return args, err
	}

	if a.MigrateFile == "" {
		a.MigrateFile, err = p.Input(ctx, "Migrate file location",
			config.DefaultMigrateFile(args.Language), discard(config.ValidateMigrationFile))
		if err != nil {
			return args, err
		}
	}
	args.MigrateFile = a.MigrateFile

	if a.DatabaseDir == "" {
		a.DatabaseDir, err = p.Input(ctx, "Database and schema directory",
			config.DefaultDatabaseDir(cwd), discard(config.ValidateDatabaseDir))
		if err != nil {
			return args, err
		}
	}
	args.DatabaseDir = a.DatabaseDir

	args.OutDir = a.OutDir
	if args.OutDir == "" {
		args.OutDir = config.DefaultOutDir
	}

	if a.Install == nil {
		install, err := p.Confirm(ctx,
			fmt.Sprintf("Install dependencies? (%s install)", manager.Resolved()), true)
		if err != nil {
			return args, err
		}
		a.Install = &install
	}
	args.Install = *a.Install
	args.ExtraDeps = a.ExtraDeps

	if err := args.Validate(); err != nil {
		return args, err
	}
	return args, nil
}

func toStrings[T ~string](items []T) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = string(v)
	}
	return out
}

func discard[T any](validate func(string) (T, error)) func(string) error {
	return func(s string) error {
		_, err := validate(s)
		return err
	}
}
