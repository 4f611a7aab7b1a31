// Package orchestrator runs the init pipeline: resolve templates, check the
// destinations, write the files, substitute placeholders, merge the
// package.json scripts and optionally install dependencies.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/johndauphine/drizzle-project/internal/config"
	"github.com/johndauphine/drizzle-project/internal/fsutil"
	"github.com/johndauphine/drizzle-project/internal/logging"
	"github.com/johndauphine/drizzle-project/internal/manifest"
	"github.com/johndauphine/drizzle-project/internal/pkgmanager"
	"github.com/johndauphine/drizzle-project/internal/placeholder"
	"github.com/johndauphine/drizzle-project/internal/templates"
)

// Options configures an Orchestrator. Zero values pick the defaults.
type Options struct {
	// Dir is the project root. Defaults to the working directory.
	Dir string

	// Templates is the catalog to read from. Defaults to the embedded one.
	Templates *templates.Repository

	// Runner runs the package manager. Defaults to real child processes.
	Runner pkgmanager.Runner

	// Output receives the install progress display. Nil hides it.
	Output io.Writer

	// DryRun stops after the preflight checks and writes nothing.
	DryRun bool

	// PackageManager is the manager detected by the caller. Nil detects it
	// at the start of each run.
	PackageManager *pkgmanager.Manager
}

// Orchestrator coordinates a single init run.
type Orchestrator struct {
	dir       string
	templates *templates.Repository
	runner    pkgmanager.Runner
	output    io.Writer
	dryRun    bool
	manager   *pkgmanager.Manager
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	repo := opts.Templates
	if repo == nil {
		repo = templates.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = pkgmanager.ExecRunner{}
	}

	return &Orchestrator{
		dir:       abs,
		templates: repo,
		runner:    runner,
		output:    opts.Output,
		dryRun:    opts.DryRun,
		manager:   opts.PackageManager,
	}, nil
}

// Dir returns the project root the orchestrator writes to.
func (o *Orchestrator) Dir() string {
	return o.dir
}

// Result describes what a run did.
type Result struct {
	RunID          string
	Args           config.InitArgs
	PackageManager pkgmanager.Manager
	Plan           *Plan

	// Created lists the files written, in write order.
	Created         []string
	ManifestUpdated bool
	Installed       bool

	// Warnings are problems that did not stop the run.
	Warnings []string
}

// Run executes the init pipeline. Files already written stay on disk when a
// later step fails; the returned Result reports them.
func (o *Orchestrator) Run(ctx context.Context, args config.InitArgs) (*Result, error) {
	args = args.Sanitized()
	if err := args.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID: uuid.New().String()[:8],
		Args:  args,
	}
	logging.Debug("Run %s: %s in %s", result.RunID, args, o.dir)

	// The package manager is fixed before anything is written.
	var manager pkgmanager.Manager
	if o.manager != nil {
		manager = *o.manager
	} else {
		detected, err := pkgmanager.Detect(o.dir)
		if err != nil {
			return nil, err
		}
		manager = detected
	}
	result.PackageManager = manager
	logging.Debug("Package manager: %s", manager)

	plan, err := o.Preflight(ctx, args, manager)
	if err != nil {
		return nil, err
	}
	result.Plan = plan

	if o.dryRun {
		logging.Info("Dry run, nothing written")
		return result, nil
	}

	// An existing manifest is substituted along with the generated files.
	substitute, err := fsutil.Exists(plan.Paths.Manifest)
	if err != nil {
		return result, err
	}

	if err := o.materialize(plan, result); err != nil {
		return result, err
	}

	targets := result.Created
	if substitute {
		targets = append(append([]string(nil), result.Created...), plan.Paths.Manifest)
	}
	if err := placeholder.Apply(ctx, plan.Placeholders, targets); err != nil {
		return result, fmt.Errorf("substituting placeholders: %w", err)
	}
	result.Warnings = append(result.Warnings, VerifyPlaceholders(result.Created)...)

	updated, err := manifest.MergeScripts(plan.Paths.Manifest, args.Driver, plan.Placeholders)
	if err != nil {
		return result, err
	}
	result.ManifestUpdated = updated
	if updated {
		logging.Info("Added db:generate, db:push and db:migrate scripts to %s", config.ManifestFile)
	}

	if !args.Install {
		return result.finish(), nil
	}

	installer := &pkgmanager.Installer{
		Manager: manager,
		Dir:     o.dir,
		Runner:  o.runner,
		Output:  o.output,
	}
	if err := installer.Install(ctx, plan.Dependencies, plan.DevDependencies); err != nil {
		return result, err
	}
	result.Installed = true

	// Without a lockfile npm was used, and it may have just created
	// package.json. Merge again so the scripts end up in it.
	if manager == pkgmanager.Unknown {
		updated, err := manifest.MergeScripts(plan.Paths.Manifest, args.Driver, plan.Placeholders)
		if err != nil {
			return result, err
		}
		if updated && !result.ManifestUpdated {
			result.ManifestUpdated = true
			logging.Info("Added db:generate, db:push and db:migrate scripts to %s", config.ManifestFile)
		}
	}

	return result.finish(), nil
}

func (r *Result) finish() *Result {
	if !r.ManifestUpdated {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("no %s found, package scripts were not added", config.ManifestFile))
	}
	return r
}

func (o *Orchestrator) materialize(plan *Plan, result *Result) error {
	for _, f := range plan.Files {
		if err := fsutil.Write(f.Path, []byte(f.Content)); err != nil {
			return fmt.Errorf("creating %s: %w", o.rel(f.Path), err)
		}
		result.Created = append(result.Created, f.Path)
		logging.Info("Created %s", o.rel(f.Path))
	}
	return nil
}

func (o *Orchestrator) rel(path string) string {
	r, err := filepath.Rel(o.dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(r)
}
