// Package manifest merges the drizzle-kit scripts into a project's
// package.json without disturbing the rest of the file.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/johndauphine/drizzle-project/internal/dbconfig"
	"github.com/johndauphine/drizzle-project/internal/fsutil"
	"github.com/johndauphine/drizzle-project/internal/logging"
	"github.com/johndauphine/drizzle-project/internal/placeholder"
)

const (
	GenerateScript = "db:generate"
	PushScript     = "db:push"
	MigrateScript  = "db:migrate"

	defaultIndent = "  "
)

// Manifest is a parsed package.json along with the formatting needed to
// write it back the way it was found.
type Manifest struct {
	Root *Object

	indent          string
	trailingNewline bool
}

// Parse reads a package.json document.
func Parse(data []byte) (*Manifest, error) {
	var root Object
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &Manifest{
		Root:            &root,
		indent:          detectIndent(data),
		trailingNewline: bytes.HasSuffix(data, []byte("\n")),
	}, nil
}

// Bytes renders the manifest with its original indentation.
func (m *Manifest) Bytes() ([]byte, error) {
	compact, err := m.Root.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", m.indent); err != nil {
		return nil, err
	}
	if m.trailingNewline {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// SetScripts writes the given scripts into the "scripts" object, creating
// it when missing. Other scripts are left alone.
func (m *Manifest) SetScripts(pairs [][2]string) error {
	scripts, err := m.Root.GetObject("scripts")
	if err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	for _, p := range pairs {
		if err := scripts.SetString(p[0], p[1]); err != nil {
			return err
		}
	}
	return m.Root.SetObject("scripts", scripts)
}

// ScriptsFor returns the db:* scripts for driver with placeholders resolved.
func ScriptsFor(driver dbconfig.Driver, m placeholder.Map) ([][2]string, error) {
	s, ok := driver.Scripts()
	if !ok {
		return nil, fmt.Errorf("no scripts defined for driver %q", driver)
	}
	return [][2]string{
		{GenerateScript, m.Resolve(s.Generate)},
		{PushScript, m.Resolve(s.Push)},
		{MigrateScript, m.Resolve(s.Migrate)},
	}, nil
}

// MergeScripts adds the db:generate, db:push and db:migrate scripts for
// driver to the package.json at path. A missing package.json is not an
// error: nothing is written and false is returned.
func MergeScripts(path string, driver dbconfig.Driver, m placeholder.Map) (bool, error) {
	pairs, err := ScriptsFor(driver, m)
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("No %s, skipping scripts", path)
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := doc.SetScripts(pairs); err != nil {
		return false, fmt.Errorf("updating %s: %w", path, err)
	}
	out, err := doc.Bytes()
	if err != nil {
		return false, fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := fsutil.Rewrite(path, out); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}

	logging.Debug("Added %s, %s and %s scripts to %s", GenerateScript, PushScript, MigrateScript, path)
	return true, nil
}

// detectIndent returns the whitespace used for the first indented line, or
// two spaces when the document has none.
func detectIndent(data []byte) string {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) == 0 || len(trimmed) == len(line) {
			continue
		}
		return string(line[:len(line)-len(trimmed)])
	}
	return defaultIndent
}
