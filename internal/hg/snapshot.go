package hg

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// armResult is the raw outcome of one snapshot query before parsing.
type armResult struct {
	out      CommandResult
	err      error
	usedJSON bool
}

// Refresh assembles a fresh snapshot. `hg root` runs first and any failure
// there aborts the refresh; the remaining queries run concurrently, one
// goroutine per concern, and are joined before parsing. Status, bookmarks
// and revisions prefer structured output and transparently fall back to the
// legacy plain format when the structured call exits non-zero or does not
// decode. Conflict and shelf queries degrade to empty lists instead of
// failing the refresh.
func (c *CLIClient) Refresh(ctx context.Context, opts SnapshotOptions) (RepoSnapshot, error) {
	caps := c.Capabilities(ctx)

	root, err := c.Run(ctx, "root")
	if err != nil {
		return RepoSnapshot{}, err
	}
	if !root.Success {
		return RepoSnapshot{}, commandFailedError(root)
	}
	repoRoot := strings.TrimSpace(root.Stdout)

	var (
		wg               sync.WaitGroup
		branchRes        armResult
		statusRes        armResult
		bookmarkRes      armResult
		resolveRes       armResult
		shelveRes        armResult
		logRes           armResult
		graphRes         armResult
		rebaseInProgress bool
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		branchRes.out, branchRes.err = c.Run(ctx, "branch")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if caps.SupportsJSONStatus {
			statusRes.usedJSON = true
			statusRes.out, statusRes.err = c.Run(ctx, "status", "-Tjson")
		} else {
			statusRes.out, statusRes.err = c.Run(ctx, "status")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if caps.SupportsJSONBookmarks {
			bookmarkRes.usedJSON = true
			bookmarkRes.out, bookmarkRes.err = c.Run(ctx, "bookmarks", "-Tjson")
		} else {
			bookmarkRes.out, bookmarkRes.err = c.Run(ctx, "bookmarks")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		resolveRes.out, resolveRes.err = c.Run(ctx, "resolve", "-l")
	}()

	if caps.HasShelve {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shelveRes.out, shelveRes.err = c.Run(ctx, "shelve", "--list")
		}()
	}

	limit := strconv.Itoa(opts.RevisionLimit)
	if opts.IncludeRevisions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if caps.SupportsJSONLog {
				logRes.usedJSON = true
				logRes.out, logRes.err = c.Run(ctx, "log", "-l", limit, "-Tjson")
			} else {
				logRes.out, logRes.err = c.runLogTemplate(ctx, limit)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			graphRes.out, graphRes.err = c.Run(ctx, "log", "-G", "-l", limit, "-T", "{rev}\n")
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, statErr := os.Stat(filepath.Join(repoRoot, ".hg", "rebasestate"))
		rebaseInProgress = statErr == nil
	}()

	wg.Wait()

	branch := ""
	if branchRes.err == nil {
		branch = strings.TrimSpace(branchRes.out.Stdout)
	}

	files, err := c.collectStatus(ctx, statusRes)
	if err != nil {
		return RepoSnapshot{}, err
	}

	revisions := make([]Revision, 0)
	if opts.IncludeRevisions {
		revisions, err = c.collectRevisions(ctx, limit, logRes, graphRes)
		if err != nil {
			return RepoSnapshot{}, err
		}
	}

	bookmarks, err := c.collectBookmarks(ctx, bookmarkRes)
	if err != nil {
		return RepoSnapshot{}, err
	}

	shelves := make([]Shelf, 0)
	if caps.HasShelve && shelveRes.err == nil && shelveRes.out.Success {
		shelves = parseShelveList(shelveRes.out.Stdout)
	}

	conflicts := make([]ConflictEntry, 0)
	if resolveRes.err == nil && resolveRes.out.Success {
		conflicts = parseResolveList(resolveRes.out.Stdout)
	}

	return RepoSnapshot{
		RepoRoot:     repoRoot,
		Branch:       branch,
		Files:        files,
		Revisions:    revisions,
		Bookmarks:    bookmarks,
		Shelves:      shelves,
		Conflicts:    conflicts,
		Rebase:       deriveRebaseState(rebaseInProgress, conflicts),
		Capabilities: caps,
	}, nil
}

func (c *CLIClient) collectStatus(ctx context.Context, res armResult) ([]FileChange, error) {
	if res.err != nil {
		return nil, res.err
	}
	if res.usedJSON {
		if res.out.Success {
			if parsed, err := parseStatusJSON(res.out.Stdout); err == nil {
				return parsed, nil
			}
		}
		fallback, err := c.query(ctx, "status")
		if err != nil {
			return nil, err
		}
		return parseStatusPlain(fallback.Stdout), nil
	}
	if !res.out.Success {
		return nil, commandFailedError(res.out)
	}
	return parseStatusPlain(res.out.Stdout), nil
}

func (c *CLIClient) collectBookmarks(ctx context.Context, res armResult) ([]Bookmark, error) {
	if res.err != nil {
		return nil, res.err
	}
	if res.usedJSON {
		if res.out.Success {
			if parsed, err := parseBookmarksJSON(res.out.Stdout); err == nil {
				return parsed, nil
			}
		}
		fallback, err := c.query(ctx, "bookmarks")
		if err != nil {
			return nil, err
		}
		return parseBookmarksPlain(fallback.Stdout), nil
	}
	if !res.out.Success {
		return nil, commandFailedError(res.out)
	}
	return parseBookmarksPlain(res.out.Stdout), nil
}

func (c *CLIClient) collectRevisions(ctx context.Context, limit string, logRes, graphRes armResult) ([]Revision, error) {
	if logRes.err != nil {
		return nil, logRes.err
	}

	var revisions []Revision
	switch {
	case logRes.usedJSON:
		decoded := false
		if logRes.out.Success {
			if parsed, err := parseLogJSON(logRes.out.Stdout); err == nil {
				revisions = parsed
				decoded = true
			}
		}
		if !decoded {
			fallback, err := c.runLogTemplate(ctx, limit)
			if err != nil {
				return nil, err
			}
			if !fallback.Success {
				return nil, commandFailedError(fallback)
			}
			parsed, err := parseLogTemplate(fallback.Stdout)
			if err != nil {
				return nil, err
			}
			revisions = parsed
		}
	case !logRes.out.Success:
		return nil, commandFailedError(logRes.out)
	default:
		parsed, err := parseLogTemplate(logRes.out.Stdout)
		if err != nil {
			return nil, err
		}
		revisions = parsed
	}

	if graphRes.err == nil && graphRes.out.Success {
		if rows := parseLogGraph(graphRes.out.Stdout); len(rows) > 0 {
			revisions = mergeLogGraph(revisions, rows)
		}
	}
	return revisions, nil
}

func (c *CLIClient) runLogTemplate(ctx context.Context, limit string) (CommandResult, error) {
	return c.Run(ctx, "log", "-l", limit, "-T", logPlainTemplate)
}
