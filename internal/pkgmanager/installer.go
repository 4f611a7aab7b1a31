package pkgmanager

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/johndauphine/drizzle-project/internal/logging"
	"github.com/johndauphine/drizzle-project/internal/progress"
)

// Runner runs a command in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// InstallError is returned when the package manager fails. Commands holds
// what the user can run to finish the install by hand.
type InstallError struct {
	Manager  Manager
	Commands []string
	Output   string
	Err      error
}

func (e *InstallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "installing dependencies with %s: %v", e.Manager.Resolved(), e.Err)
	if len(e.Commands) > 0 {
		b.WriteString("\nTry installing them manually:\n  ")
		b.WriteString(strings.Join(e.Commands, "\n  "))
	}
	return b.String()
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// Remediation returns the shell commands that install runtime and dev
// dependencies. Empty lists are skipped.
func Remediation(m Manager, runtime, dev []string) []string {
	var cmds []string
	if len(runtime) > 0 {
		cmds = append(cmds, strings.Join(m.Command(runtime, false), " "))
	}
	if len(dev) > 0 {
		cmds = append(cmds, strings.Join(m.Command(dev, true), " "))
	}
	return cmds
}

// Installer adds dependencies to the project in Dir.
type Installer struct {
	Manager Manager
	Dir     string

	// Runner executes the commands. Nil uses ExecRunner.
	Runner Runner

	// Output receives the progress display. Nil hides it.
	Output io.Writer
}

// Install adds the runtime dependencies and then the dev dependencies. The
// second command only runs once the first has succeeded. Any failure is
// returned as an *InstallError.
func (i *Installer) Install(ctx context.Context, runtime, dev []string) error {
	type step struct {
		label string
		deps  []string
		dev   bool
	}
	var steps []step
	if len(runtime) > 0 {
		steps = append(steps, step{"Installing dependencies", runtime, false})
	}
	if len(dev) > 0 {
		steps = append(steps, step{"Installing dev dependencies", dev, true})
	}
	if len(steps) == 0 {
		return nil
	}

	runner := i.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	tracker := progress.New(i.Output)
	tracker.SetTotal(int64(len(steps)), steps[0].label)

	for _, s := range steps {
		tracker.Describe(s.label)
		argv := i.Manager.Command(s.deps, s.dev)
		logging.Debug("Running %s", strings.Join(argv, " "))

		out, err := runner.Run(ctx, i.Dir, argv[0], argv[1:]...)
		if len(out) > 0 {
			logging.Debug("%s output:\n%s", argv[0], strings.TrimRight(string(out), "\n"))
		}
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			tracker.Abort()
			return &InstallError{
				Manager:  i.Manager,
				Commands: Remediation(i.Manager, runtime, dev),
				Output:   string(out),
				Err:      err,
			}
		}
		tracker.Step()
	}

	tracker.Finish(fmt.Sprintf("Installed %d packages with %s", len(runtime)+len(dev), i.Manager.Resolved()))
	return nil
}
