package commands

import (
	"reflect"
	"testing"
)

func TestSplitCommandHandlesQuotingAndEscapes(t *testing.T) {
	program, args, err := SplitCommand(`cmd --message "hello world" --path 'a/b.go' plain\ arg`)
	if err != nil {
		t.Fatalf("SplitCommand returned error: %v", err)
	}
	if program != "cmd" {
		t.Fatalf("program = %q, want cmd", program)
	}
	want := []string{"--message", "hello world", "--path", "a/b.go", "plain arg"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
}

func TestSplitCommandConcatenatesAdjacentQuotedRuns(t *testing.T) {
	program, args, err := SplitCommand(`echo pre'fix 'post`)
	if err != nil {
		t.Fatalf("SplitCommand returned error: %v", err)
	}
	if program != "echo" || len(args) != 1 || args[0] != "prefix post" {
		t.Fatalf("got %q %v", program, args)
	}
}

func TestSplitCommandKeepsSingleQuotedBackslashes(t *testing.T) {
	_, args, err := SplitCommand(`grep 'a\b'`)
	if err != nil {
		t.Fatalf("SplitCommand returned error: %v", err)
	}
	if len(args) != 1 || args[0] != `a\b` {
		t.Fatalf("args = %v, want [a\\b]", args)
	}
}

func TestSplitCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"unmatched single quote", "echo 'oops", "custom command has unmatched quote"},
		{"unmatched double quote", `echo "oops`, "custom command has unmatched quote"},
		{"trailing escape", `echo oops\`, "custom command has trailing escape"},
		{"trailing escape in double quotes", `echo "oops\`, "custom command has trailing escape"},
		{"empty input", "   ", "custom command has empty executable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SplitCommand(tt.raw)
			if err == nil || err.Error() != tt.want {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestTemplateVarsDeduplicatesInFirstOccurrenceOrder(t *testing.T) {
	names := TemplateVars("echo {repo_root} {branch} {repo_root} {rev}")
	want := []string{"repo_root", "branch", "rev"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("TemplateVars = %v, want %v", names, want)
	}
}

func TestTemplateVarsIgnoresNonIdentifierBraces(t *testing.T) {
	names := TemplateVars("echo {9bad} {a b} {} {good_1}")
	want := []string{"good_1"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("TemplateVars = %v, want %v", names, want)
	}
}

func TestUnknownVarsReportsUnsupportedNames(t *testing.T) {
	names := UnknownVars("echo {repo_root} {bogus} {also_bad}")
	want := []string{"bogus", "also_bad"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("UnknownVars = %v, want %v", names, want)
	}
}

func TestUnresolvedVarsFiltersAgainstBindings(t *testing.T) {
	vars := map[string]string{"repo_root": "/repo", "branch": "default"}
	names := UnresolvedVars("hg log {repo_root} {file} {rev}", vars)
	want := []string{"file", "rev"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("UnresolvedVars = %v, want %v", names, want)
	}
}

func TestRenderTemplateReplacesAllOccurrences(t *testing.T) {
	vars := map[string]string{"file": "a.go", "rev": "7"}
	got := RenderTemplate("view {file}:{rev} ({file})", vars)
	if got != "view a.go:7 (a.go)" {
		t.Fatalf("RenderTemplate = %q", got)
	}
}
