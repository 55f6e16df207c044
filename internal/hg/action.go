package hg

import (
	"fmt"
	"strconv"
	"strings"
)

// Action is a mutating repository operation with a fixed argv mapping.
// Arguments are passed straight to the hg binary, never through a shell.
type Action interface {
	Preview() string
	argv() []string
}

type Commit struct {
	Message string
	Files   []string
}

func (a Commit) argv() []string {
	args := []string{"commit", "-m", a.Message}
	return append(args, a.Files...)
}

// Preview elides the commit message so multi-line input never corrupts the
// single-line activity log.
func (a Commit) Preview() string {
	if len(a.Files) == 0 {
		return "hg commit -m <message>"
	}
	return fmt.Sprintf("hg commit -m <message> <%d files>", len(a.Files))
}

type Pull struct{}

func (Pull) argv() []string { return []string{"pull", "-u"} }
func (a Pull) Preview() string { return previewFor(a) }

type Push struct{}

func (Push) argv() []string { return []string{"push"} }
func (a Push) Preview() string { return previewFor(a) }

type Incoming struct{}

func (Incoming) argv() []string { return []string{"incoming"} }
func (a Incoming) Preview() string { return previewFor(a) }

type Outgoing struct{}

func (Outgoing) argv() []string { return []string{"outgoing"} }
func (a Outgoing) Preview() string { return previewFor(a) }

type BookmarkCreate struct {
	Name string
}

func (a BookmarkCreate) argv() []string { return []string{"bookmark", a.Name} }
func (a BookmarkCreate) Preview() string { return previewFor(a) }

type UpdateToRevision struct {
	Rev int64
}

func (a UpdateToRevision) argv() []string {
	return []string{"update", "-r", strconv.FormatInt(a.Rev, 10)}
}
func (a UpdateToRevision) Preview() string { return previewFor(a) }

type UpdateToBookmark struct {
	Name string
}

func (a UpdateToBookmark) argv() []string { return []string{"update", a.Name} }
func (a UpdateToBookmark) Preview() string { return previewFor(a) }

type ShelveCreate struct {
	Name string
}

func (a ShelveCreate) argv() []string { return []string{"shelve", "--name", a.Name} }
func (a ShelveCreate) Preview() string { return previewFor(a) }

type Unshelve struct {
	Name string
}

func (a Unshelve) argv() []string { return []string{"unshelve", "--name", a.Name} }
func (a Unshelve) Preview() string { return previewFor(a) }

type ResolveMark struct {
	Path string
}

func (a ResolveMark) argv() []string { return []string{"resolve", "-m", a.Path} }
func (a ResolveMark) Preview() string { return previewFor(a) }

type ResolveUnmark struct {
	Path string
}

func (a ResolveUnmark) argv() []string { return []string{"resolve", "-u", a.Path} }
func (a ResolveUnmark) Preview() string { return previewFor(a) }

type Rebase struct {
	Source int64
	Dest   int64
}

func (a Rebase) argv() []string {
	return []string{"rebase", "-s", strconv.FormatInt(a.Source, 10), "-d", strconv.FormatInt(a.Dest, 10)}
}
func (a Rebase) Preview() string { return previewFor(a) }

type RebaseContinue struct{}

func (RebaseContinue) argv() []string { return []string{"rebase", "--continue"} }
func (a RebaseContinue) Preview() string { return previewFor(a) }

type RebaseAbort struct{}

func (RebaseAbort) argv() []string { return []string{"rebase", "--abort"} }
func (a RebaseAbort) Preview() string { return previewFor(a) }

type Histedit struct {
	Base int64
}

func (a Histedit) argv() []string { return []string{"histedit", strconv.FormatInt(a.Base, 10)} }
func (a Histedit) Preview() string { return previewFor(a) }

func previewFor(a Action) string {
	return "hg " + strings.Join(a.argv(), " ")
}

// InteractiveCommitArgs builds the argv for a foreground `hg commit -i`
// run. Interactive commits bypass RunAction: they need the real terminal.
func InteractiveCommitArgs(message string, files []string) []string {
	args := []string{"commit", "-i", "-m", message}
	return append(args, files...)
}

func InteractiveCommitPreview(fileCount int) string {
	if fileCount == 0 {
		return "hg commit -i -m <message>"
	}
	return fmt.Sprintf("hg commit -i -m <message> <%d files>", fileCount)
}

// Invocation is a fully resolved custom command: a program, its arguments,
// and extra environment entries, all template-substituted already.
type Invocation struct {
	Program string
	Args    []string
	Env     []string
}

func (inv Invocation) Preview() string {
	parts := append([]string{inv.Program}, inv.Args...)
	return strings.Join(parts, " ")
}
