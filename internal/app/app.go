// Package app bootstraps the dashboard: repo guard, config file report,
// keymap and theme resolution, the repository watcher, and the Bubble Tea
// program itself.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atomicstack/easyhg/internal/backend"
	"github.com/atomicstack/easyhg/internal/config"
	"github.com/atomicstack/easyhg/internal/hg"
	"github.com/atomicstack/easyhg/internal/keymap"
	"github.com/atomicstack/easyhg/internal/logging"
	"github.com/atomicstack/easyhg/internal/theme"
	"github.com/atomicstack/easyhg/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

// NotARepoError reports that the working directory is not inside a
// Mercurial repository. main exits 2 on it, matching the diagnostic modes.
type NotARepoError struct {
	Cwd   string
	Cause error
}

func (e *NotARepoError) Error() string {
	var b strings.Builder
	b.WriteString("easyhg must be run inside a Mercurial repository.\n")
	if e.Cwd != "" {
		b.WriteString("  cwd: " + e.Cwd + "\n")
	}
	if e.Cause != nil {
		b.WriteString("  " + e.Cause.Error() + "\n")
	}
	b.WriteString("Run easyhg from a repository checkout, or create one with `hg init`.")
	return b.String()
}

// Run guards that the working directory is a repository, assembles the
// session model from the config file report, and executes the Bubble Tea
// program with the alternate screen and mouse reporting enabled.
func Run(report config.Report) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	client := hg.NewCLIClient(cwd)

	repoRoot, err := guardRepo(context.Background(), client, cwd)
	if err != nil {
		return err
	}

	// Keymap issues are already collected in the file report; the map
	// itself falls back to the defaults when any exist.
	keys, _ := keymap.NewKeyMap(report.Config.Keys)
	styles := theme.ForName(report.Config.Theme)

	// A failed watcher degrades the dashboard to pure periodic polling.
	var watcher *backend.Watcher
	if w, werr := backend.NewWatcher(repoRoot); werr == nil {
		watcher = w
		defer watcher.Stop()
	} else {
		logging.Error(fmt.Errorf("repository watcher unavailable: %w", werr))
	}

	model := ui.NewModel(ui.Options{
		Client:       client,
		Config:       report.Config,
		Keys:         keys,
		Styles:       styles,
		Watcher:      watcher,
		ConfigIssues: report.Issues,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// guardRepo requires `hg root` to succeed with a non-empty root before the
// terminal is touched, so the failure message stays readable.
func guardRepo(ctx context.Context, client hg.Client, cwd string) (string, error) {
	out, err := client.Run(ctx, "root")
	if err != nil {
		return "", &NotARepoError{Cwd: cwd, Cause: err}
	}
	if !out.Success {
		return "", &NotARepoError{Cwd: cwd, Cause: out.FailedError()}
	}
	root := strings.TrimSpace(out.Stdout)
	if root == "" {
		return "", &NotARepoError{Cwd: cwd, Cause: errors.New("hg root reported an empty repository root")}
	}
	return root, nil
}
