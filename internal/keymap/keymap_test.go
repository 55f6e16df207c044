package keymap

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestCanonicalizeParsesNamedAndCharKeys(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"tab", "tab"},
		{"shift+tab", "shift+tab"},
		{"backtab", "tab"},
		{"P", "P"},
		{"ctrl+l", "ctrl+l"},
		{" Ctrl + L ", "ctrl+L"},
		{"Escape", "esc"},
		{"alt+shift+enter", "alt+shift+enter"},
		{"space", "space"},
		{"ctrl+space", "ctrl+space"},
	}
	for _, tt := range tests {
		got, err := Canonicalize(tt.raw)
		if err != nil {
			t.Fatalf("Canonicalize(%q) returned error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("Canonicalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	samples := []string{"q", "?", "tab", "shift+tab", "ctrl+l", "alt+x", "space", "Escape", "backtab"}
	for _, b := range defaultBindings {
		samples = append(samples, b.key)
	}
	for _, raw := range samples {
		once, err := Canonicalize(raw)
		if err != nil {
			t.Fatalf("Canonicalize(%q) returned error: %v", raw, err)
		}
		twice, err := Canonicalize(once)
		if err != nil {
			t.Fatalf("Canonicalize(%q) returned error: %v", once, err)
		}
		if once != twice {
			t.Fatalf("canonical form not stable: %q -> %q -> %q", raw, once, twice)
		}
	}
}

func TestCanonicalizeRejectsInvalidBindings(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "empty keybinding"},
		{"   ", "empty keybinding"},
		{"ctrl+", "invalid keybinding 'ctrl+'"},
		{"meta+x", "unknown modifier 'meta'"},
		{"ctrl+pageup", "unknown key 'pageup'"},
	}
	for _, tt := range tests {
		_, err := Canonicalize(tt.raw)
		if err == nil || err.Error() != tt.want {
			t.Fatalf("Canonicalize(%q) error = %v, want %q", tt.raw, err, tt.want)
		}
	}
}

func TestNewKeyMapDefaultsResolveEvents(t *testing.T) {
	km, issues := NewKeyMap(nil)
	if len(issues) != 0 {
		t.Fatalf("defaults produced issues: %v", issues)
	}
	tests := []struct {
		msg  tea.KeyMsg
		want ActionID
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, ActionQuit},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("P")}, ActionPull},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")}, ActionPush},
		{tea.KeyMsg{Type: tea.KeyTab}, ActionFocusNext},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, ActionFocusPrev},
		{tea.KeyMsg{Type: tea.KeyDown}, ActionMoveDown},
		{tea.KeyMsg{Type: tea.KeyCtrlL}, ActionHardRefresh},
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, ActionToggleFileForCommit},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("X")}, ActionClearFileSelection},
	}
	for _, tt := range tests {
		action, ok := km.Lookup(tt.msg)
		if !ok || action != tt.want {
			t.Fatalf("Lookup(%q) = %v/%v, want %v", tt.msg.String(), action, ok, tt.want)
		}
	}
	if _, ok := km.Lookup(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Z")}); ok {
		t.Fatal("unbound key should not resolve")
	}
}

func TestNewKeyMapOverridesReplaceDefaults(t *testing.T) {
	km, issues := NewKeyMap(map[string]string{"quit": "ctrl+q"})
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if action, ok := km.Lookup(tea.KeyMsg{Type: tea.KeyCtrlQ}); !ok || action != ActionQuit {
		t.Fatalf("ctrl+q should quit, got %v/%v", action, ok)
	}
	if _, ok := km.Lookup(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); ok {
		t.Fatal("override should replace the default binding")
	}
	if got := km.PrimaryKey(ActionQuit); got != "ctrl+q" {
		t.Fatalf("PrimaryKey(quit) = %q, want ctrl+q", got)
	}
}

func TestNewKeyMapCollectsIssuesAndFallsBackToDefaults(t *testing.T) {
	km, issues := NewKeyMap(map[string]string{
		"bogus": "x",
		"help":  "q",
		"push":  "meta+p",
	})
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %v", issues)
	}
	var unknownAction, duplicate, invalid bool
	for _, issue := range issues {
		switch {
		case strings.Contains(issue, "unknown keybinding action 'bogus'"):
			unknownAction = true
		case strings.Contains(issue, "duplicate keybinding 'q'"):
			duplicate = true
		case strings.Contains(issue, "invalid keybinding for 'push'") && strings.Contains(issue, "unknown modifier 'meta'"):
			invalid = true
		}
	}
	if !unknownAction || !duplicate || !invalid {
		t.Fatalf("missing expected issue kinds in %v", issues)
	}

	if action, ok := km.Lookup(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); !ok || action != ActionQuit {
		t.Fatalf("fallback map should keep default quit binding, got %v/%v", action, ok)
	}
	if got := km.PrimaryKey(ActionPush); got != "p" {
		t.Fatalf("fallback PrimaryKey(push) = %q, want p", got)
	}
}

func TestValidateOverridesMirrorsNewKeyMapIssues(t *testing.T) {
	issues := ValidateOverrides(map[string]string{"quit": ""})
	if len(issues) != 1 || !strings.Contains(issues[0], "invalid keybinding for 'quit'") || !strings.Contains(issues[0], "empty keybinding") {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if issues := ValidateOverrides(nil); len(issues) != 0 {
		t.Fatalf("no overrides should validate cleanly, got %v", issues)
	}
}
