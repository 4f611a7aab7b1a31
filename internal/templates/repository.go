// Package templates resolves provider template bundles from the catalog.
//
// The catalog is a directory tree:
//
//	schemas/<driver>.schema.<ext>
//	providers/<driver>/<provider>/{index.<ext>,migrate.<ext>,package.json}
//	config/<dialect>.config.<ext>
//
// The schema is shared by every provider of a driver. The provider's
// package.json declares its dependencies and, under drizzle.config, which
// config template it pairs with. JavaScript variants (.js) are used when
// present; otherwise the TypeScript file is used.
package templates

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/johndauphine/drizzle-project/internal/dbconfig"
	"github.com/johndauphine/drizzle-project/internal/logging"
)

//go:embed all:catalog
var catalogFS embed.FS

var (
	// ErrNotImplemented is returned for a driver/provider pair without a
	// template directory.
	ErrNotImplemented = errors.New("not implemented")

	// ErrMissingDialect is returned when a provider's package.json does not
	// declare drizzle.config. The catalog itself is broken in that case.
	ErrMissingDialect = errors.New("config dialect not declared")
)

// Bundle is everything needed to generate the files for one provider.
type Bundle struct {
	Key      dbconfig.ProviderKey
	Language dbconfig.Language
	Dialect  string

	Schema  string
	Client  string
	Config  string
	Migrate string

	Fragment Fragment
}

// Repository reads bundles from a catalog file system.
type Repository struct {
	fsys fs.FS
}

// New returns a Repository over fsys laid out as described in the package
// documentation.
func New(fsys fs.FS) *Repository {
	return &Repository{fsys: fsys}
}

// Default returns a Repository over the catalog compiled into the binary.
func Default() *Repository {
	sub, err := fs.Sub(catalogFS, "catalog")
	if err != nil {
		// embed paths are fixed at compile time
		panic(err)
	}
	return New(sub)
}

func notImplemented(key dbconfig.ProviderKey) error {
	return fmt.Errorf("database provider %q is %w for driver %q yet", key.Provider, ErrNotImplemented, key.Driver)
}

// Resolve loads the bundle for key in the requested language.
func (r *Repository) Resolve(ctx context.Context, key dbconfig.ProviderKey, lang dbconfig.Language) (*Bundle, error) {
	if !key.Driver.HasProvider(key.Provider) {
		return nil, notImplemented(key)
	}

	providerDir := path.Join("providers", string(key.Driver), string(key.Provider))
	info, err := fs.Stat(r.fsys, providerDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notImplemented(key)
		}
		return nil, fmt.Errorf("reading %s templates: %w", key, err)
	}
	if !info.IsDir() {
		return nil, notImplemented(key)
	}

	fragment, err := r.readFragment(providerDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s templates: %w", key, err)
	}
	dialect := fragment.Drizzle.Config
	if dialect == "" {
		return nil, fmt.Errorf("%w: package.json drizzle.config section was not defined for %q", ErrMissingDialect, providerDir)
	}

	b := &Bundle{
		Key:      key,
		Language: lang,
		Dialect:  dialect,
		Fragment: *fragment,
	}

	g, ctx := errgroup.WithContext(ctx)
	read := func(dst *string, base string) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := r.readVariant(base, lang)
			if err != nil {
				return err
			}
			*dst = content
			return nil
		})
	}
	read(&b.Schema, path.Join("schemas", string(key.Driver)+".schema"))
	read(&b.Client, path.Join(providerDir, "index"))
	read(&b.Migrate, path.Join(providerDir, "migrate"))
	read(&b.Config, path.Join("config", dialect+".config"))

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reading %s templates: %w", key, err)
	}

	logging.Debug("Resolved %s templates (dialect %s, %s)", key, dialect, lang)
	return b, nil
}

func (r *Repository) readFragment(providerDir string) (*Fragment, error) {
	data, err := fs.ReadFile(r.fsys, path.Join(providerDir, "package.json"))
	if err != nil {
		return nil, err
	}
	var f Fragment
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s/package.json: %w", providerDir, err)
	}
	return &f, nil
}

// readVariant reads base.<ext> for the language, falling back to base.ts.
func (r *Repository) readVariant(base string, lang dbconfig.Language) (string, error) {
	name := base + "." + lang.Ext()
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil && errors.Is(err, fs.ErrNotExist) && lang != dbconfig.TypeScript {
		fallback := base + "." + dbconfig.TypeScript.Ext()
		logging.Debug("No %s template, using %s", name, fallback)
		data, err = fs.ReadFile(r.fsys, fallback)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Catalog lists every driver/provider pair that has a template directory,
// in driver then provider order.
func (r *Repository) Catalog() ([]dbconfig.ProviderKey, error) {
	var keys []dbconfig.ProviderKey
	for _, d := range dbconfig.Drivers {
		entries, err := fs.ReadDir(r.fsys, path.Join("providers", string(d)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("listing %s providers: %w", d, err)
		}
		var found []dbconfig.ProviderKey
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			found = append(found, dbconfig.ProviderKey{Driver: d, Provider: dbconfig.Provider(e.Name())})
		}
		sort.Slice(found, func(i, j int) bool { return found[i].Provider < found[j].Provider })
		keys = append(keys, found...)
	}
	return keys, nil
}
