package hg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// Client is the surface the dashboard and the diagnostic CLI modes need
// from a Mercurial installation. CLIClient talks to the real binary; tests
// substitute fakes.
type Client interface {
	Run(ctx context.Context, args ...string) (CommandResult, error)
	Capabilities(ctx context.Context) Capabilities
	Refresh(ctx context.Context, opts SnapshotOptions) (RepoSnapshot, error)
	RunAction(ctx context.Context, action Action) (CommandResult, error)
	RunCustom(ctx context.Context, inv Invocation) (CommandResult, error)
	FileDiff(ctx context.Context, path string) (string, error)
	RevisionPatch(ctx context.Context, rev int64) (string, error)
}

// CLIClient shells out to hg in a fixed working directory. Capabilities are
// probed once and cached for the process lifetime.
type CLIClient struct {
	cwd string

	capsOnce sync.Once
	caps     Capabilities
}

func NewCLIClient(cwd string) *CLIClient {
	return &CLIClient{cwd: cwd}
}

// runCommandFn executes one external process with stdin disconnected and
// both streams captured. A non-zero exit is reported through Success; the
// error is reserved for spawn failures such as a missing binary.
var runCommandFn = func(ctx context.Context, cwd, program string, extraEnv []string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = cwd
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	result := CommandResult{
		CommandPreview: strings.Join(append([]string{program}, args...), " "),
		Success:        err == nil,
		Stdout:         stdout.String(),
		Stderr:         stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, nil
		}
		return result, err
	}
	return result, nil
}

// Run invokes hg with the given arguments. The returned error covers spawn
// failures only; callers inspect CommandResult.Success for the exit status.
func (c *CLIClient) Run(ctx context.Context, args ...string) (CommandResult, error) {
	out, err := runCommandFn(ctx, c.cwd, "hg", nil, args...)
	if err != nil {
		return out, fmt.Errorf("failed to spawn mercurial command: %s: %w", out.CommandPreview, err)
	}
	return out, nil
}

func (c *CLIClient) RunAction(ctx context.Context, action Action) (CommandResult, error) {
	return c.Run(ctx, action.argv()...)
}

func (c *CLIClient) RunCustom(ctx context.Context, inv Invocation) (CommandResult, error) {
	out, err := runCommandFn(ctx, c.cwd, inv.Program, inv.Env, inv.Args...)
	if err != nil {
		return out, fmt.Errorf("failed to spawn custom command: %s: %w", inv.Preview(), err)
	}
	return out, nil
}

func (c *CLIClient) FileDiff(ctx context.Context, path string) (string, error) {
	out, err := c.query(ctx, "diff", path)
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

func (c *CLIClient) RevisionPatch(ctx context.Context, rev int64) (string, error) {
	out, err := c.query(ctx, "log", "-r", strconv.FormatInt(rev, 10), "-p")
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

// query is Run for read-only commands where a non-zero exit fails the
// operation that needed the output.
func (c *CLIClient) query(ctx context.Context, args ...string) (CommandResult, error) {
	out, err := c.Run(ctx, args...)
	if err != nil {
		return out, err
	}
	if !out.Success {
		return out, commandFailedError(out)
	}
	return out, nil
}

// FailedError describes a non-zero exit as an error value, for callers that
// treat the failure as fatal to their own operation.
func (r CommandResult) FailedError() error {
	return commandFailedError(r)
}

func commandFailedError(out CommandResult) error {
	details := make([]string, 0, 2)
	if s := compactOutput(out.Stderr); s != "" {
		details = append(details, "stderr: "+s)
	}
	if s := compactOutput(out.Stdout); s != "" {
		details = append(details, "stdout: "+s)
	}
	if len(details) == 0 {
		return fmt.Errorf("command failed: %s", out.CommandPreview)
	}
	return fmt.Errorf("command failed: %s (%s)", out.CommandPreview, strings.Join(details, " | "))
}

const compactOutputLimit = 240

// compactOutput collapses whitespace runs and truncates to a fixed rune
// budget so multi-line hg output fits on a single log line.
func compactOutput(text string) string {
	compact := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(compact) <= compactOutputLimit {
		return compact
	}
	return string([]rune(compact)[:compactOutputLimit]) + "…"
}
