package hg

import (
	"reflect"
	"testing"
)

func TestParseStatusJSON(t *testing.T) {
	raw := `[{"path":"src/main.go","status":"M"},{"path":"README.md","status":"A"}]`
	parsed, err := parseStatusJSON(raw)
	if err != nil {
		t.Fatalf("parseStatusJSON returned error: %v", err)
	}
	want := []FileChange{
		{Path: "src/main.go", Status: StatusModified},
		{Path: "README.md", Status: StatusAdded},
	}
	if !reflect.DeepEqual(parsed, want) {
		t.Fatalf("parseStatusJSON = %v, want %v", parsed, want)
	}
}

func TestParseStatusJSONRejectsMalformedInput(t *testing.T) {
	if _, err := parseStatusJSON(`[{"path":`); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestParseStatusPlainTrimsAndHandlesMultiCharStatusTokens(t *testing.T) {
	raw := "M src/main.go\nA  docs/guide.md\n?? README.md\n"
	parsed := parseStatusPlain(raw)
	want := []FileChange{
		{Path: "src/main.go", Status: StatusModified},
		{Path: "docs/guide.md", Status: StatusAdded},
		{Path: "README.md", Status: StatusUnknown},
	}
	if !reflect.DeepEqual(parsed, want) {
		t.Fatalf("parseStatusPlain = %v, want %v", parsed, want)
	}
}

func TestFileStatusFromCodePassesUnknownCodesThrough(t *testing.T) {
	if got := FileStatusFromCode("X"); got != FileStatus("X") {
		t.Fatalf("FileStatusFromCode(X) = %q, want X", got)
	}
	if got := FileStatusFromCode(""); got != StatusUnknown {
		t.Fatalf("FileStatusFromCode(empty) = %q, want %q", got, StatusUnknown)
	}
}

func TestParseLogJSON(t *testing.T) {
	raw := `[{"rev":4,"node":"abcd","desc":"msg","user":"u","branch":"default","phase":"draft","tags":["tip"],"bookmarks":["main"],"date":[10,0]}]`
	parsed, err := parseLogJSON(raw)
	if err != nil {
		t.Fatalf("parseLogJSON returned error: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 revision, got %d", len(parsed))
	}
	rev := parsed[0]
	if rev.Rev != 4 || rev.Node != "abcd" || rev.DateUnixSecs != 10 {
		t.Fatalf("unexpected revision fields: %+v", rev)
	}
	if !reflect.DeepEqual(rev.Bookmarks, []string{"main"}) {
		t.Fatalf("bookmarks = %v, want [main]", rev.Bookmarks)
	}
	if rev.GraphPrefix != "" {
		t.Fatalf("graph prefix should be empty before merge, got %q", rev.GraphPrefix)
	}
}

func TestParseLogJSONDefaultsMissingCollections(t *testing.T) {
	raw := `[{"rev":1,"node":"n","desc":"d","user":"u","branch":"default","phase":"draft","date":[5,0]}]`
	parsed, err := parseLogJSON(raw)
	if err != nil {
		t.Fatalf("parseLogJSON returned error: %v", err)
	}
	if parsed[0].Tags == nil || parsed[0].Bookmarks == nil {
		t.Fatalf("tags/bookmarks should be empty slices, got %v / %v", parsed[0].Tags, parsed[0].Bookmarks)
	}
}

func TestParseLogTemplateMapsAllFields(t *testing.T) {
	raw := "9\x1fabcdef\x1fmsg\x1fu\x1fdefault\x1fdraft\x1ftip\x1fmain\x1f1700000000 0\n"
	parsed, err := parseLogTemplate(raw)
	if err != nil {
		t.Fatalf("parseLogTemplate returned error: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 revision, got %d", len(parsed))
	}
	rev := parsed[0]
	if rev.Rev != 9 || rev.Node != "abcdef" || rev.Desc != "msg" {
		t.Fatalf("unexpected revision fields: %+v", rev)
	}
	if !reflect.DeepEqual(rev.Tags, []string{"tip"}) || !reflect.DeepEqual(rev.Bookmarks, []string{"main"}) {
		t.Fatalf("tags/bookmarks = %v / %v", rev.Tags, rev.Bookmarks)
	}
	if rev.DateUnixSecs != 1700000000 {
		t.Fatalf("date = %d, want 1700000000", rev.DateUnixSecs)
	}
}

func TestParseLogTemplateRejectsBadRows(t *testing.T) {
	if _, err := parseLogTemplate("9\x1fonly-two\n"); err == nil {
		t.Fatal("expected error for wrong field count")
	}
	if _, err := parseLogTemplate("x\x1fn\x1fd\x1fu\x1fb\x1fp\x1f\x1f\x1f0 0\n"); err == nil {
		t.Fatal("expected error for non-numeric revision")
	}
}

func TestParseLogGraphExtractsPrefixAndRevision(t *testing.T) {
	raw := "@  9\n|\no  8\n|\\\n| o  7\n"
	parsed := parseLogGraph(raw)
	want := []graphRow{
		{rev: 9, prefix: "@"},
		{rev: 8, prefix: "o"},
		{rev: 7, prefix: "| o"},
	}
	if !reflect.DeepEqual(parsed, want) {
		t.Fatalf("parseLogGraph = %v, want %v", parsed, want)
	}
}

func TestMergeLogGraphAppliesOrderAndPrefixes(t *testing.T) {
	revisions := []Revision{
		{Rev: 7, Node: "n7", Desc: "seven"},
		{Rev: 8, Node: "n8", Desc: "eight"},
		{Rev: 9, Node: "n9", Desc: "nine"},
	}
	rows := []graphRow{{rev: 9, prefix: "@"}, {rev: 8, prefix: "o"}}

	merged := mergeLogGraph(revisions, rows)

	order := make([]int64, 0, len(merged))
	for _, rev := range merged {
		order = append(order, rev.Rev)
	}
	if !reflect.DeepEqual(order, []int64{9, 8, 7}) {
		t.Fatalf("merged order = %v, want [9 8 7]", order)
	}
	if merged[0].GraphPrefix != "@" || merged[1].GraphPrefix != "o" || merged[2].GraphPrefix != "" {
		t.Fatalf("unexpected prefixes: %q %q %q", merged[0].GraphPrefix, merged[1].GraphPrefix, merged[2].GraphPrefix)
	}
}

func TestMergeLogGraphWithoutRowsKeepsInputOrder(t *testing.T) {
	revisions := []Revision{{Rev: 3}, {Rev: 2}, {Rev: 1}}
	merged := mergeLogGraph(revisions, nil)
	if !reflect.DeepEqual(merged, revisions) {
		t.Fatalf("mergeLogGraph without rows = %v, want input unchanged", merged)
	}
}

func TestParseBookmarksJSONMapsActiveAndNode(t *testing.T) {
	raw := `[{"bookmark":"main","rev":7,"node":"abc","active":true},{"bookmark":"dev","rev":5,"node":"def"}]`
	parsed, err := parseBookmarksJSON(raw)
	if err != nil {
		t.Fatalf("parseBookmarksJSON returned error: %v", err)
	}
	want := []Bookmark{
		{Name: "main", Rev: 7, Node: "abc", Active: true},
		{Name: "dev", Rev: 5, Node: "def"},
	}
	if !reflect.DeepEqual(parsed, want) {
		t.Fatalf("parseBookmarksJSON = %v, want %v", parsed, want)
	}
}

func TestParseBookmarksPlainMapsActiveAndRevision(t *testing.T) {
	raw := " * main                     7:abc123\n   dev                      5:def456\n"
	parsed := parseBookmarksPlain(raw)
	want := []Bookmark{
		{Name: "main", Rev: 7, Node: "abc123", Active: true},
		{Name: "dev", Rev: 5, Node: "def456"},
	}
	if !reflect.DeepEqual(parsed, want) {
		t.Fatalf("parseBookmarksPlain = %v, want %v", parsed, want)
	}
}

func TestParseBookmarksPlainSkipsPlaceholderOutput(t *testing.T) {
	if parsed := parseBookmarksPlain("no bookmarks set\n"); len(parsed) != 0 {
		t.Fatalf("expected no bookmarks, got %v", parsed)
	}
}

func TestParseShelveListSplitsNameAndDescription(t *testing.T) {
	raw := "feature-wip 2 hours ago\nhotfix\n"
	parsed := parseShelveList(raw)
	if len(parsed) != 2 {
		t.Fatalf("expected 2 shelves, got %d", len(parsed))
	}
	if parsed[0].Name != "feature-wip" || parsed[0].Description != "2 hours ago" {
		t.Fatalf("unexpected first shelf: %+v", parsed[0])
	}
	if parsed[1].Name != "hotfix" || parsed[1].Description != "" {
		t.Fatalf("unexpected second shelf: %+v", parsed[1])
	}
}

func TestParseResolveList(t *testing.T) {
	raw := "U src/main.go\nR README.md\n"
	parsed := parseResolveList(raw)
	want := []ConflictEntry{
		{Resolved: false, Path: "src/main.go"},
		{Resolved: true, Path: "README.md"},
	}
	if !reflect.DeepEqual(parsed, want) {
		t.Fatalf("parseResolveList = %v, want %v", parsed, want)
	}
}

func TestDeriveRebaseStateCountsConflicts(t *testing.T) {
	conflicts := []ConflictEntry{
		{Resolved: false, Path: "a"},
		{Resolved: true, Path: "b"},
		{Resolved: false, Path: "c"},
	}
	state := deriveRebaseState(true, conflicts)
	if !state.InProgress {
		t.Fatal("expected in-progress rebase")
	}
	if state.Total != 3 || state.Unresolved != 2 || state.Resolved != 1 {
		t.Fatalf("unexpected counts: %+v", state)
	}
}
