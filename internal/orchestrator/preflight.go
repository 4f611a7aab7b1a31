package orchestrator

import (
	"context"

	"github.com/johndauphine/drizzle-project/internal/config"
	"github.com/johndauphine/drizzle-project/internal/dbconfig"
	"github.com/johndauphine/drizzle-project/internal/fsutil"
	"github.com/johndauphine/drizzle-project/internal/logging"
	"github.com/johndauphine/drizzle-project/internal/manifest"
	"github.com/johndauphine/drizzle-project/internal/pkgmanager"
	"github.com/johndauphine/drizzle-project/internal/placeholder"
	"github.com/johndauphine/drizzle-project/internal/templates"
	"github.com/johndauphine/drizzle-project/internal/util"
)

// PlannedFile is a file the run will create.
type PlannedFile struct {
	Path    string
	Content string
}

// Plan is everything a run will do, computed before anything is written.
type Plan struct {
	Bundle       *templates.Bundle
	Paths        config.DestinationPaths
	Files        []PlannedFile
	Placeholders placeholder.Map
	Scripts      [][2]string

	Dependencies    []string
	DevDependencies []string

	// InstallCommands are the package manager commands an install runs.
	InstallCommands []string
}

// Preflight resolves the templates for args and checks that none of the
// destination files exist yet. Nothing is written.
func (o *Orchestrator) Preflight(ctx context.Context, args config.InitArgs, manager pkgmanager.Manager) (*Plan, error) {
	bundle, err := o.templates.Resolve(ctx, args.Key(), args.Language)
	if err != nil {
		return nil, err
	}

	paths := args.Destinations(o.dir)
	if err := fsutil.EnsureCanWrite(paths.Files()...); err != nil {
		return nil, err
	}

	m := placeholder.NewMap(args.DatabaseDir, args.OutDir, args.MigrateCommand())
	scripts, err := manifest.ScriptsFor(args.Driver, m)
	if err != nil {
		return nil, err
	}

	deps, devDeps := Dependencies(bundle, args.Language, args.ExtraDeps)

	plan := &Plan{
		Bundle: bundle,
		Paths:  paths,
		Files: []PlannedFile{
			{Path: paths.ConfigFile, Content: bundle.Config},
			{Path: paths.SchemaFile, Content: bundle.Schema},
			{Path: paths.ClientFile, Content: bundle.Client},
			{Path: paths.MigrateFile, Content: bundle.Migrate},
		},
		Placeholders:    m,
		Scripts:         scripts,
		Dependencies:    deps,
		DevDependencies: devDeps,
		InstallCommands: pkgmanager.Remediation(manager, deps, devDeps),
	}
	logging.Debug("Preflight ok: %d files, %d dependencies, %d dev dependencies",
		len(plan.Files), len(deps), len(devDeps))
	return plan, nil
}

// Dependencies returns the runtime and dev dependencies to install for a
// bundle. Every project gets dotenv for DATABASE_URL; typescript projects
// also get tsx to run the migration file.
func Dependencies(b *templates.Bundle, lang dbconfig.Language, extra []string) (runtime, dev []string) {
	runtime = util.MergeUnique(b.Fragment.DependencySpecs(), extra)

	tools := []string{"dotenv"}
	if lang == dbconfig.TypeScript {
		tools = append(tools, "tsx")
	}
	dev = util.MergeUnique(b.Fragment.DevDependencySpecs(), tools)
	return runtime, dev
}
