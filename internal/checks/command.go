package checks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/spboyer/siteaudit/internal/utils"
)

// defaultWaitDelay bounds how long a cancelled engine process may keep its
// output pipes open after being killed.
const defaultWaitDelay = 5 * time.Second

// Command is one external program invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// CommandResult holds the captured output of a finished program.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// CommandRunner executes external programs. Run returns an error only when
// the program could not be started or was cancelled; a non-zero exit code is
// reported through CommandResult.ExitCode.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (*CommandResult, error)
}

// ExecRunner runs programs with os/exec. The process is killed when ctx is
// cancelled and is always reaped before Run returns.
type ExecRunner struct {
	WaitDelay time.Duration
	Logger    *slog.Logger
}

var _ CommandRunner = (*ExecRunner)(nil)

func (r *ExecRunner) Run(ctx context.Context, c Command) (*CommandResult, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	res := &CommandResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	utils.CommandToSlog(r.Logger, utils.CommandEvent{
		Name:     c.Name,
		Args:     c.Args,
		Dir:      utils.StringPtr(c.Dir),
		ExitCode: res.ExitCode,
		Duration: res.Duration,
		Stderr:   utils.StringPtr(strings.TrimSpace(stderr.String())),
	})

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return res, err
	}
	return res, nil
}

// runEngine runs cmd and turns launch failures and unexpected exit codes into
// an *Error. Exit code 0 is always accepted, okCodes lists the other codes
// an engine uses to say "finished, and found problems".
func runEngine(ctx context.Context, runner CommandRunner, check Name, cmd Command, okCodes ...int) (*CommandResult, error) {
	res, err := runner.Run(ctx, cmd)
	if err != nil {
		return nil, &Error{Check: check, Engine: cmd.Name, Err: fmt.Errorf("running %s: %w", cmd.Name, err), Stderr: stderrOf(res)}
	}
	if res.ExitCode != 0 && !slices.Contains(okCodes, res.ExitCode) {
		return nil, &Error{Check: check, Engine: cmd.Name, Err: fmt.Errorf("%s exited with code %d", cmd.Name, res.ExitCode), Stderr: stderrOf(res)}
	}
	return res, nil
}

func stderrOf(res *CommandResult) string {
	if res == nil {
		return ""
	}
	return strings.TrimSpace(string(res.Stderr))
}

// Tool names an engine executable and the fixed arguments placed before the
// adapter's own arguments.
type Tool struct {
	Command string
	Args    []string
}

func (t Tool) command(def string, dir string, args ...string) Command {
	name := t.Command
	if name == "" {
		name = def
	}
	return Command{
		Name: name,
		Args: append(slices.Clone(t.Args), args...),
		Dir:  dir,
	}
}

func runnerOrDefault(r CommandRunner, logger *slog.Logger) CommandRunner {
	if r != nil {
		return r
	}
	return &ExecRunner{Logger: logger}
}
