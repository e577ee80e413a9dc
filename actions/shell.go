package actions

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/pithecene-io/grana/types"
)

// ShellArgs is the argument schema for the shell action. Exactly one of
// Command or File must be set.
type ShellArgs struct {
	Command     string            `yaml:"command" json:"command"`
	File        string            `yaml:"file" json:"file"`
	Environment map[string]string `yaml:"environment" json:"environment"`
	Cwd         string            `yaml:"cwd" json:"cwd"`
	// InjectPrelude prepends ShellPrelude to Command/File, defining the
	// yield_outcome and skip shell helper functions.
	InjectPrelude bool `yaml:"-" json:"-"`
}

func (a ShellArgs) validate() error {
	if a.Command == "" && a.File == "" {
		return errors.New("neither command nor file specified")
	}
	if a.Command != "" && a.File != "" {
		return errors.New("both command and file specified")
	}
	return nil
}

// Shell runs a command (or sources a file) through /bin/sh, scanning its
// stdout for embedded service messages (see emission.go) and its stderr
// unscanned.
type Shell struct {
	*Base
	args    ShellArgs
	scanner *EmissionScanner
}

// NewShellAction constructs a shell action from already-rendered,
// already-validated arguments.
func NewShellAction(
	name string,
	args ShellArgs,
	ancestors map[string]types.Dependency,
	description string,
	selectable bool,
	severity types.ActionSeverity,
) (*Shell, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}
	s := &Shell{args: args}
	s.Base = NewBase(name, ancestors, description, selectable, severity, s)
	s.scanner = NewEmissionScanner(s.Base)
	return s, nil
}

// NewPendingShellAction constructs a shell action ahead of its first
// render, when Command/File aren't known yet and validating an empty
// placeholder would reject it wrongly. The loader uses this to build
// the action set before any template has been evaluated; SetArgs
// validates for real once rendered arguments arrive.
func NewPendingShellAction(
	name string,
	injectPrelude bool,
	ancestors map[string]types.Dependency,
	description string,
	selectable bool,
	severity types.ActionSeverity,
) *Shell {
	s := &Shell{args: ShellArgs{InjectPrelude: injectPrelude}}
	s.Base = NewBase(name, ancestors, description, selectable, severity, s)
	s.scanner = NewEmissionScanner(s.Base)
	return s
}

func (s *Shell) Run(ctx context.Context) error {
	script := s.args.Command
	if script == "" {
		script = fmt.Sprintf("source '%s'", s.args.File)
	}
	if s.args.InjectPrelude {
		script = ShellPrelude + "\n" + script
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", script)
	if s.args.Cwd != "" {
		cmd.Dir = s.args.Cwd
	}
	if s.args.Environment != nil {
		env := os.Environ()
		for k, v := range s.args.Environment {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting shell: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pump(stdout, s.scanner.Emit)
	}()
	go func() {
		defer wg.Done()
		s.pump(stderr, s.scanner.EmitStderr)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			s.Fail(fmt.Sprintf("exit code: %d", exitErr.ExitCode()))
		}
		return fmt.Errorf("shell: %w", err)
	}
	return nil
}

// SetArgs decodes the orchestrator's freshly rendered argument document
// into ShellArgs, re-validating the command/file exclusivity invariant
// against the rendered values rather than the as-loaded template
// sources.
func (s *Shell) SetArgs(rendered map[string]interface{}) error {
	injectPrelude := s.args.InjectPrelude
	var args ShellArgs
	if err := decodeArgs(rendered, &args); err != nil {
		return err
	}
	if err := args.validate(); err != nil {
		return err
	}
	args.InjectPrelude = injectPrelude
	s.args = args
	return nil
}

func (s *Shell) pump(r io.Reader, emit func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		emit(scanner.Text())
	}
}
