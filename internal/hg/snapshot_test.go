package hg

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// jsonCapableResponses cans every capability probe as successful plus the
// always-queried snapshot arms for a repository rooted at root.
func jsonCapableResponses(root string) map[string]CommandResult {
	responses := map[string]CommandResult{}
	responses["hg --version"] = okResult("Mercurial Distributed SCM (version 6.5)\n")
	responses["hg rebase -h"] = okResult("")
	responses["hg histedit -h"] = okResult("")
	responses["hg shelve -h"] = okResult("")
	responses["hg log -l 1 -Tjson"] = okResult("[]")
	responses["hg bookmarks -Tjson"] = okResult(`[{"bookmark":"main","rev":9,"node":"abc","active":true}]`)
	responses["hg status -Tjson"] = okResult(`[{"path":"src/main.go","status":"M"}]`)
	responses["hg root"] = okResult(root + "\n")
	responses["hg branch"] = okResult("default\n")
	responses["hg resolve -l"] = okResult("U src/main.go\n")
	responses["hg shelve --list"] = okResult("wip 1 hour ago\n")
	return responses
}

const logJSONThree = `[
  {"rev":9,"node":"n9","desc":"nine","user":"u","branch":"default","phase":"draft","tags":[],"bookmarks":[],"date":[9,0]},
  {"rev":8,"node":"n8","desc":"eight","user":"u","branch":"default","phase":"draft","tags":[],"bookmarks":[],"date":[8,0]},
  {"rev":7,"node":"n7","desc":"seven","user":"u","branch":"default","phase":"draft","tags":[],"bookmarks":[],"date":[7,0]}
]`

func TestRefreshAssemblesStructuredSnapshot(t *testing.T) {
	root := t.TempDir()
	responses := jsonCapableResponses(root)
	responses["hg log -l 3 -Tjson"] = okResult(logJSONThree)
	responses["hg log -G -l 3 -T {rev}\n"] = okResult("@  9\n|\no  8\n")
	fake := &fakeRunner{responses: responses}
	installFakeRunner(t, fake)

	client := NewCLIClient(root)
	snap, err := client.Refresh(context.Background(), SnapshotOptions{RevisionLimit: 3, IncludeRevisions: true})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	if snap.RepoRoot != root {
		t.Fatalf("repo root = %q, want %q", snap.RepoRoot, root)
	}
	if snap.Branch != "default" {
		t.Fatalf("branch = %q", snap.Branch)
	}
	if len(snap.Files) != 1 || snap.Files[0].Path != "src/main.go" || snap.Files[0].Status != StatusModified {
		t.Fatalf("unexpected files: %+v", snap.Files)
	}

	order := make([]int64, 0, len(snap.Revisions))
	for _, rev := range snap.Revisions {
		order = append(order, rev.Rev)
	}
	if !reflect.DeepEqual(order, []int64{9, 8, 7}) {
		t.Fatalf("revision order = %v, want [9 8 7]", order)
	}
	if snap.Revisions[0].GraphPrefix != "@" || snap.Revisions[1].GraphPrefix != "o" || snap.Revisions[2].GraphPrefix != "" {
		t.Fatalf("unexpected graph prefixes: %+v", snap.Revisions)
	}

	if len(snap.Bookmarks) != 1 || snap.Bookmarks[0].Name != "main" || !snap.Bookmarks[0].Active {
		t.Fatalf("unexpected bookmarks: %+v", snap.Bookmarks)
	}
	if len(snap.Shelves) != 1 || snap.Shelves[0].Name != "wip" {
		t.Fatalf("unexpected shelves: %+v", snap.Shelves)
	}
	if len(snap.Conflicts) != 1 || snap.Conflicts[0].Resolved {
		t.Fatalf("unexpected conflicts: %+v", snap.Conflicts)
	}
	if snap.Rebase.InProgress {
		t.Fatal("no rebase marker was written, state should be idle")
	}
	if snap.Rebase.Unresolved != 1 || snap.Rebase.Total != 1 {
		t.Fatalf("unexpected rebase counts: %+v", snap.Rebase)
	}
	if !snap.Capabilities.SupportsJSONStatus || !snap.Capabilities.HasShelve {
		t.Fatalf("unexpected capabilities: %+v", snap.Capabilities)
	}
}

func TestRefreshFallsBackWhenStructuredStatusDoesNotDecode(t *testing.T) {
	root := t.TempDir()
	responses := jsonCapableResponses(root)
	responses["hg status -Tjson"] = okResult("not-json")
	responses["hg status"] = okResult("M a.go\n")
	fake := &fakeRunner{responses: responses}
	installFakeRunner(t, fake)

	client := NewCLIClient(root)
	snap, err := client.Refresh(context.Background(), SnapshotOptions{RevisionLimit: 3})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	want := []FileChange{{Path: "a.go", Status: StatusModified}}
	if !reflect.DeepEqual(snap.Files, want) {
		t.Fatalf("files = %v, want %v", snap.Files, want)
	}
	if got := fake.callCount("hg status"); got != 1 {
		t.Fatalf("plain status queried %d times, want 1", got)
	}
}

func TestRefreshUsesLegacyQueriesWithoutStructuredSupport(t *testing.T) {
	root := t.TempDir()
	responses := map[string]CommandResult{}
	responses["hg root"] = okResult(root + "\n")
	responses["hg branch"] = okResult("default\n")
	responses["hg status"] = okResult("M a.go\n")
	responses["hg bookmarks"] = okResult(" * main                     7:abc123\n")
	responses["hg resolve -l"] = okResult("")
	responses["hg log -l 2 -T "+logPlainTemplate] = okResult(
		"9\x1fn9\x1fnine\x1fu\x1fdefault\x1fdraft\x1f\x1f\x1f9 0\n" +
			"8\x1fn8\x1feight\x1fu\x1fdefault\x1fdraft\x1f\x1f\x1f8 0\n")
	responses["hg log -G -l 2 -T {rev}\n"] = okResult("@  9\n|\no  8\n")
	fake := &fakeRunner{responses: responses}
	installFakeRunner(t, fake)

	client := NewCLIClient(root)
	snap, err := client.Refresh(context.Background(), SnapshotOptions{RevisionLimit: 2, IncludeRevisions: true})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if len(snap.Files) != 1 || snap.Files[0].Path != "a.go" {
		t.Fatalf("unexpected files: %+v", snap.Files)
	}
	if len(snap.Bookmarks) != 1 || snap.Bookmarks[0].Rev != 7 || !snap.Bookmarks[0].Active {
		t.Fatalf("unexpected bookmarks: %+v", snap.Bookmarks)
	}
	if len(snap.Revisions) != 2 || snap.Revisions[0].Rev != 9 || snap.Revisions[0].GraphPrefix != "@" {
		t.Fatalf("unexpected revisions: %+v", snap.Revisions)
	}
	if len(snap.Shelves) != 0 {
		t.Fatalf("shelve support is absent, got shelves %+v", snap.Shelves)
	}
	if got := fake.callCount("hg shelve --list"); got != 0 {
		t.Fatalf("shelve list queried %d times without support", got)
	}
}

func TestRefreshAbortsWhenRootFails(t *testing.T) {
	fake := &fakeRunner{responses: map[string]CommandResult{
		"hg root": {Success: false, Stderr: "abort: no repository found (.hg not found)"},
	}}
	installFakeRunner(t, fake)

	client := NewCLIClient("/tmp/nowhere")
	_, err := client.Refresh(context.Background(), SnapshotOptions{RevisionLimit: 3})
	if err == nil {
		t.Fatal("expected error when hg root fails")
	}
	want := "command failed: hg root (stderr: abort: no repository found (.hg not found))"
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

func TestRefreshToleratesConflictAndShelfQueryFailures(t *testing.T) {
	root := t.TempDir()
	responses := jsonCapableResponses(root)
	responses["hg resolve -l"] = CommandResult{Success: false, Stderr: "abort: resolve broken"}
	responses["hg shelve --list"] = CommandResult{Success: false, Stderr: "abort: shelve broken"}
	fake := &fakeRunner{responses: responses}
	installFakeRunner(t, fake)

	client := NewCLIClient(root)
	snap, err := client.Refresh(context.Background(), SnapshotOptions{RevisionLimit: 3})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if len(snap.Conflicts) != 0 || len(snap.Shelves) != 0 {
		t.Fatalf("expected empty conflict/shelf lists, got %+v / %+v", snap.Conflicts, snap.Shelves)
	}
}

func TestRefreshSkipsRevisionQueriesWhenNotRequested(t *testing.T) {
	root := t.TempDir()
	responses := jsonCapableResponses(root)
	fake := &fakeRunner{responses: responses}
	installFakeRunner(t, fake)

	client := NewCLIClient(root)
	snap, err := client.Refresh(context.Background(), SnapshotOptions{RevisionLimit: 3})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if snap.Revisions == nil || len(snap.Revisions) != 0 {
		t.Fatalf("revisions = %#v, want empty non-nil slice", snap.Revisions)
	}
	for _, call := range fake.calls {
		if strings.HasPrefix(call, "hg log -l 3") || strings.HasPrefix(call, "hg log -G") {
			t.Fatalf("revision query %q issued despite IncludeRevisions=false", call)
		}
	}
}

func TestRefreshDetectsRebaseMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".hg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".hg", "rebasestate"), []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	responses := jsonCapableResponses(root)
	responses["hg resolve -l"] = okResult("U a.go\nR b.go\n")
	fake := &fakeRunner{responses: responses}
	installFakeRunner(t, fake)

	client := NewCLIClient(root)
	snap, err := client.Refresh(context.Background(), SnapshotOptions{RevisionLimit: 3})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if !snap.Rebase.InProgress {
		t.Fatal("rebase marker present, expected in-progress state")
	}
	if snap.Rebase.Unresolved != 1 || snap.Rebase.Resolved != 1 || snap.Rebase.Total != 2 {
		t.Fatalf("unexpected rebase counts: %+v", snap.Rebase)
	}
}
