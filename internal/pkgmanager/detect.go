// Package pkgmanager detects the project's JavaScript package manager and
// installs dependencies with it.
package pkgmanager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Manager is a JavaScript package manager.
type Manager string

const (
	Unknown Manager = ""
	NPM     Manager = "npm"
	Yarn    Manager = "yarn"
	PNPM    Manager = "pnpm"
	Bun     Manager = "bun"
)

// lockfiles in detection priority order.
var lockfiles = []struct {
	name    string
	manager Manager
}{
	{"yarn.lock", Yarn},
	{"pnpm-lock.yaml", PNPM},
	{"bun.lockb", Bun},
	{"package-lock.json", NPM},
}

// Detect returns the package manager whose lockfile is in dir. When several
// lockfiles are present the priority is yarn, pnpm, bun, npm. Unknown is
// returned when there is none.
func Detect(dir string) (Manager, error) {
	for _, lf := range lockfiles {
		_, err := os.Stat(filepath.Join(dir, lf.name))
		if err == nil {
			return lf.manager, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return Unknown, fmt.Errorf("detecting package manager: %w", err)
		}
	}
	return Unknown, nil
}

func (m Manager) String() string {
	if m == Unknown {
		return "unknown"
	}
	return string(m)
}

// Resolved returns the manager used to install: npm when none was detected.
func (m Manager) Resolved() Manager {
	if m == Unknown {
		return NPM
	}
	return m
}

// Command returns the argv that adds deps to the project.
func (m Manager) Command(deps []string, dev bool) []string {
	var argv []string
	switch m.Resolved() {
	case Yarn:
		argv = []string{"yarn", "add"}
		if dev {
			argv = append(argv, "-D")
		}
	case PNPM:
		argv = []string{"pnpm", "add"}
		if dev {
			argv = append(argv, "-D")
		}
	case Bun:
		argv = []string{"bun", "add"}
		if dev {
			argv = append(argv, "-d")
		}
	default:
		argv = []string{"npm", "install"}
		if dev {
			argv = append(argv, "-D")
		}
	}
	return append(argv, deps...)
}
