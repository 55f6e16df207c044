package hg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const logTemplateFieldSep = "\x1f"

// logPlainTemplate reproduces the -Tjson fields for installations whose hg
// predates structured output. Nine fields per row, \x1f-separated.
const logPlainTemplate = "{rev}\x1f{node}\x1f{desc|firstline}\x1f{author}\x1f{branch}\x1f{phase}\x1f{tags}\x1f{bookmarks}\x1f{date|hgdate}\n"

type statusJSONItem struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

func parseStatusJSON(raw string) ([]FileChange, error) {
	var items []statusJSONItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed parsing hg status json: %w", err)
	}
	files := make([]FileChange, 0, len(items))
	for _, item := range items {
		files = append(files, FileChange{Path: item.Path, Status: FileStatusFromCode(item.Status)})
	}
	return files, nil
}

func parseStatusPlain(raw string) []FileChange {
	lines := strings.Split(raw, "\n")
	files := make([]FileChange, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}
		token := fields[0]
		path := strings.TrimSpace(strings.TrimPrefix(trimmed, token))
		if path == "" {
			continue
		}
		files = append(files, FileChange{Path: path, Status: FileStatusFromCode(token)})
	}
	return files
}

type logJSONItem struct {
	Rev       int64      `json:"rev"`
	Node      string     `json:"node"`
	Desc      string     `json:"desc"`
	User      string     `json:"user"`
	Branch    string     `json:"branch"`
	Phase     string     `json:"phase"`
	Tags      []string   `json:"tags"`
	Bookmarks []string   `json:"bookmarks"`
	Date      [2]float64 `json:"date"`
}

func parseLogJSON(raw string) ([]Revision, error) {
	var items []logJSONItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed parsing hg log json: %w", err)
	}
	revisions := make([]Revision, 0, len(items))
	for _, item := range items {
		revisions = append(revisions, Revision{
			Rev:          item.Rev,
			Node:         item.Node,
			Desc:         item.Desc,
			User:         item.User,
			Branch:       item.Branch,
			Phase:        item.Phase,
			Tags:         emptyIfNil(item.Tags),
			Bookmarks:    emptyIfNil(item.Bookmarks),
			DateUnixSecs: int64(item.Date[0]),
		})
	}
	return revisions, nil
}

func parseLogTemplate(raw string) ([]Revision, error) {
	revisions := make([]Revision, 0, 32)
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, logTemplateFieldSep)
		if len(fields) != 9 {
			return nil, fmt.Errorf("failed parsing hg log template row: %s", line)
		}
		rev, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid revision number in log row: %s", line)
		}
		revisions = append(revisions, Revision{
			Rev:          rev,
			Node:         fields[1],
			Desc:         fields[2],
			User:         fields[3],
			Branch:       fields[4],
			Phase:        fields[5],
			Tags:         splitWhitespaceList(fields[6]),
			Bookmarks:    splitWhitespaceList(fields[7]),
			DateUnixSecs: parseHgDateEpoch(fields[8]),
		})
	}
	return revisions, nil
}

// parseHgDateEpoch extracts the epoch seconds from an "epoch tzoffset" pair.
func parseHgDateEpoch(raw string) int64 {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0
	}
	epoch, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	return epoch
}

type graphRow struct {
	rev    int64
	prefix string
}

// parseLogGraph extracts (revision, drawing prefix) pairs from
// `hg log -G -T {rev}\n` output. Rows whose trailing characters are not a
// revision number are pure graph scaffolding and are skipped.
func parseLogGraph(raw string) []graphRow {
	lines := strings.Split(raw, "\n")
	rows := make([]graphRow, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			continue
		}
		runes := []rune(trimmed)
		end := len(runes)
		start := end
		for start > 0 && runes[start-1] >= '0' && runes[start-1] <= '9' {
			start--
		}
		if start == end {
			continue
		}
		rev, err := strconv.ParseInt(string(runes[start:end]), 10, 64)
		if err != nil {
			continue
		}
		prefix := strings.TrimRight(string(runes[:start]), " \t")
		rows = append(rows, graphRow{rev: rev, prefix: prefix})
	}
	return rows
}

// mergeLogGraph reorders revisions to match the topological graph order and
// attaches drawing prefixes. Revisions missing from the graph keep their
// original relative order and follow the merged rows.
func mergeLogGraph(revisions []Revision, rows []graphRow) []Revision {
	if len(rows) == 0 {
		return revisions
	}

	originalOrder := make([]int64, 0, len(revisions))
	byRev := make(map[int64]Revision, len(revisions))
	for _, rev := range revisions {
		originalOrder = append(originalOrder, rev.Rev)
		byRev[rev.Rev] = rev
	}

	merged := make([]Revision, 0, len(revisions))
	seen := make(map[int64]bool, len(rows))
	for _, row := range rows {
		if seen[row.rev] {
			continue
		}
		seen[row.rev] = true
		if rev, ok := byRev[row.rev]; ok {
			rev.GraphPrefix = row.prefix
			merged = append(merged, rev)
			delete(byRev, row.rev)
		}
	}
	for _, revNum := range originalOrder {
		if rev, ok := byRev[revNum]; ok {
			merged = append(merged, rev)
			delete(byRev, revNum)
		}
	}
	return merged
}

type bookmarkJSONItem struct {
	Bookmark string `json:"bookmark"`
	Rev      int64  `json:"rev"`
	Node     string `json:"node"`
	Active   bool   `json:"active"`
}

func parseBookmarksJSON(raw string) ([]Bookmark, error) {
	var items []bookmarkJSONItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed parsing hg bookmarks json: %w", err)
	}
	bookmarks := make([]Bookmark, 0, len(items))
	for _, item := range items {
		bookmarks = append(bookmarks, Bookmark{
			Name:   item.Bookmark,
			Rev:    item.Rev,
			Node:   item.Node,
			Active: item.Active,
		})
	}
	return bookmarks, nil
}

func parseBookmarksPlain(raw string) []Bookmark {
	lines := strings.Split(raw, "\n")
	bookmarks := make([]Bookmark, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		active := false
		name := fields[0]
		rest := fields[1:]
		if name == "*" {
			if len(rest) == 0 {
				continue
			}
			active = true
			name = rest[0]
			rest = rest[1:]
		}
		revNode := ""
		for _, token := range rest {
			if strings.Contains(token, ":") {
				revNode = token
				break
			}
		}
		if revNode == "" {
			continue
		}
		parts := strings.SplitN(revNode, ":", 2)
		rev, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			continue
		}
		bookmarks = append(bookmarks, Bookmark{Name: name, Rev: rev, Node: parts[1], Active: active})
	}
	return bookmarks
}

func parseShelveList(raw string) []Shelf {
	lines := strings.Split(raw, "\n")
	shelves := make([]Shelf, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		fields := strings.Fields(trimmed)
		name := fields[0]
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, name))
		shelves = append(shelves, Shelf{Name: name, Description: rest})
	}
	return shelves
}

func parseResolveList(raw string) []ConflictEntry {
	lines := strings.Split(raw, "\n")
	conflicts := make([]ConflictEntry, 0, len(lines))
	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		path := strings.TrimSpace(line[2:])
		if path == "" {
			continue
		}
		conflicts = append(conflicts, ConflictEntry{Resolved: line[0] == 'R', Path: path})
	}
	return conflicts
}

func splitWhitespaceList(raw string) []string {
	return strings.Fields(raw)
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func deriveRebaseState(inProgress bool, conflicts []ConflictEntry) RebaseState {
	state := RebaseState{InProgress: inProgress, Total: len(conflicts)}
	for _, entry := range conflicts {
		if entry.Resolved {
			state.Resolved++
		} else {
			state.Unresolved++
		}
	}
	return state
}
