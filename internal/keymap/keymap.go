// Package keymap resolves terminal key events to dashboard actions. Bindings
// are canonicalized to `[ctrl+][alt+][shift+]key` strings; user overrides
// replace an action's default keys, and any invalid override set falls the
// whole map back to the defaults.
package keymap

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

type ActionID string

const (
	ActionQuit                ActionID = "quit"
	ActionHelp                ActionID = "help"
	ActionFocusNext           ActionID = "focus_next"
	ActionFocusPrev           ActionID = "focus_prev"
	ActionMoveDown            ActionID = "move_down"
	ActionMoveUp              ActionID = "move_up"
	ActionRefreshSnapshot     ActionID = "refresh_snapshot"
	ActionRefreshDetails      ActionID = "refresh_details"
	ActionCommit              ActionID = "commit"
	ActionCommitInteractive   ActionID = "commit_interactive"
	ActionBookmark            ActionID = "bookmark"
	ActionShelve              ActionID = "shelve"
	ActionPush                ActionID = "push"
	ActionPull                ActionID = "pull"
	ActionIncoming            ActionID = "incoming"
	ActionOutgoing            ActionID = "outgoing"
	ActionUpdateSelected      ActionID = "update_selected"
	ActionUnshelveSelected    ActionID = "unshelve_selected"
	ActionResolveMark         ActionID = "resolve_mark"
	ActionResolveUnmark       ActionID = "resolve_unmark"
	ActionRebaseSelected      ActionID = "rebase_selected"
	ActionRebaseContinue      ActionID = "rebase_continue"
	ActionRebaseAbort         ActionID = "rebase_abort"
	ActionHisteditSelected    ActionID = "histedit_selected"
	ActionHardRefresh         ActionID = "hard_refresh"
	ActionOpenCustomCommands  ActionID = "open_custom_commands"
	ActionToggleFileForCommit ActionID = "toggle_file_for_commit"
	ActionClearFileSelection  ActionID = "clear_file_selection"
)

// AllActions lists every action in display order; override validation and
// help rendering both follow it.
func AllActions() []ActionID {
	return []ActionID{
		ActionQuit,
		ActionHelp,
		ActionFocusNext,
		ActionFocusPrev,
		ActionMoveDown,
		ActionMoveUp,
		ActionRefreshSnapshot,
		ActionRefreshDetails,
		ActionCommit,
		ActionCommitInteractive,
		ActionBookmark,
		ActionShelve,
		ActionPush,
		ActionPull,
		ActionIncoming,
		ActionOutgoing,
		ActionUpdateSelected,
		ActionUnshelveSelected,
		ActionResolveMark,
		ActionResolveUnmark,
		ActionRebaseSelected,
		ActionRebaseContinue,
		ActionRebaseAbort,
		ActionHisteditSelected,
		ActionHardRefresh,
		ActionOpenCustomCommands,
		ActionToggleFileForCommit,
		ActionClearFileSelection,
	}
}

func ParseActionID(raw string) (ActionID, bool) {
	id := ActionID(strings.TrimSpace(raw))
	for _, known := range AllActions() {
		if id == known {
			return id, true
		}
	}
	return "", false
}

type binding struct {
	action ActionID
	key    string
}

// defaultBindings pairs stay in canonical form already; move_down/move_up
// carry two keys each.
var defaultBindings = []binding{
	{ActionQuit, "q"},
	{ActionHelp, "?"},
	{ActionFocusNext, "tab"},
	{ActionFocusPrev, "shift+tab"},
	{ActionMoveDown, "down"},
	{ActionMoveDown, "j"},
	{ActionMoveUp, "up"},
	{ActionMoveUp, "k"},
	{ActionRefreshSnapshot, "r"},
	{ActionRefreshDetails, "d"},
	{ActionCommit, "c"},
	{ActionCommitInteractive, "C"},
	{ActionBookmark, "b"},
	{ActionShelve, "s"},
	{ActionPush, "p"},
	{ActionPull, "P"},
	{ActionIncoming, "i"},
	{ActionOutgoing, "o"},
	{ActionUpdateSelected, "u"},
	{ActionUnshelveSelected, "U"},
	{ActionResolveMark, "m"},
	{ActionResolveUnmark, "M"},
	{ActionRebaseSelected, "R"},
	{ActionRebaseContinue, "n"},
	{ActionRebaseAbort, "A"},
	{ActionHisteditSelected, "H"},
	{ActionHardRefresh, "ctrl+l"},
	{ActionOpenCustomCommands, "x"},
	{ActionToggleFileForCommit, "space"},
	{ActionClearFileSelection, "X"},
}

// KeyMap maps canonical key strings to actions and remembers each action's
// primary key for help and status text.
type KeyMap struct {
	eventToAction    map[string]ActionID
	primaryForAction map[ActionID]string
}

// NewKeyMap builds the map from defaults plus overrides (action name ->
// binding). Every problem is collected into issues; when issues is
// non-empty the returned map is the untouched default map.
func NewKeyMap(overrides map[string]string) (*KeyMap, []string) {
	issues := make([]string, 0)

	actionKeys := make(map[ActionID][]string, len(defaultBindings))
	for _, b := range defaultBindings {
		canonical, err := Canonicalize(b.key)
		if err != nil {
			panic(fmt.Sprintf("default key %q is invalid: %v", b.key, err))
		}
		actionKeys[b.action] = append(actionKeys[b.action], canonical)
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		action, ok := ParseActionID(name)
		if !ok {
			issues = append(issues, fmt.Sprintf(
				"unknown keybinding action '%s' (expected one of: %s)", name, joinActionNames()))
			continue
		}
		canonical, err := Canonicalize(overrides[name])
		if err != nil {
			issues = append(issues, fmt.Sprintf("invalid keybinding for '%s': %v", name, err))
			continue
		}
		actionKeys[action] = []string{canonical}
	}

	eventToAction := make(map[string]ActionID, len(defaultBindings))
	primaryForAction := make(map[ActionID]string, len(actionKeys))
	seen := make(map[string]bool, len(defaultBindings))
	for _, action := range AllActions() {
		keys := actionKeys[action]
		if len(keys) == 0 {
			issues = append(issues, fmt.Sprintf("no keybinding for action '%s'", action))
			continue
		}
		primaryForAction[action] = keys[0]
		for _, key := range keys {
			if seen[key] {
				issues = append(issues, fmt.Sprintf("duplicate keybinding '%s'", key))
				continue
			}
			seen[key] = true
			eventToAction[key] = action
		}
	}

	if len(issues) > 0 {
		fallback, _ := NewKeyMap(nil)
		return fallback, issues
	}
	return &KeyMap{eventToAction: eventToAction, primaryForAction: primaryForAction}, nil
}

// ValidateOverrides reports the issues an override set would cause without
// keeping the resulting map.
func ValidateOverrides(overrides map[string]string) []string {
	_, issues := NewKeyMap(overrides)
	return issues
}

// Lookup resolves a key event to an action. Bubble Tea's canonical event
// names line up with the binding vocabulary except for space, which it
// renders as a literal blank.
func (m *KeyMap) Lookup(msg tea.KeyMsg) (ActionID, bool) {
	name := msg.String()
	switch name {
	case " ":
		name = "space"
	case "alt+ ":
		name = "alt+space"
	}
	action, ok := m.eventToAction[name]
	return action, ok
}

// PrimaryKey returns the action's first binding, or "" when the action is
// unbound.
func (m *KeyMap) PrimaryKey(action ActionID) string {
	return m.primaryForAction[action]
}

// Canonicalize parses a user-written binding into canonical
// `[ctrl+][alt+][shift+]key` form.
func Canonicalize(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("empty keybinding")
	}
	tokens := strings.Split(text, "+")
	for i, token := range tokens {
		tokens[i] = strings.TrimSpace(token)
		if tokens[i] == "" {
			return "", fmt.Errorf("invalid keybinding '%s'", text)
		}
	}

	keyToken := tokens[len(tokens)-1]
	tokens = tokens[:len(tokens)-1]
	ctrl, alt, shift := false, false, false
	for _, modifier := range tokens {
		switch strings.ToLower(modifier) {
		case "ctrl", "control":
			ctrl = true
		case "alt":
			alt = true
		case "shift":
			shift = true
		default:
			return "", fmt.Errorf("unknown modifier '%s'", modifier)
		}
	}

	key, err := normalizeKeyToken(keyToken)
	if err != nil {
		return "", err
	}
	return canonicalKeyString(key, ctrl, alt, shift), nil
}

// normalizeKeyToken keeps single runes case-sensitive and folds named keys
// to their canonical spelling. backtab is plain tab; the shift modifier
// carries the distinction.
func normalizeKeyToken(token string) (string, error) {
	key := strings.TrimSpace(token)
	if utf8.RuneCountInString(key) == 1 {
		return key, nil
	}
	switch strings.ToLower(key) {
	case "tab", "backtab":
		return "tab", nil
	case "up":
		return "up", nil
	case "down":
		return "down", nil
	case "enter":
		return "enter", nil
	case "esc", "escape":
		return "esc", nil
	case "backspace":
		return "backspace", nil
	case "space":
		return "space", nil
	default:
		return "", fmt.Errorf("unknown key '%s'", key)
	}
}

func canonicalKeyString(key string, ctrl, alt, shift bool) string {
	parts := make([]string, 0, 4)
	if ctrl {
		parts = append(parts, "ctrl")
	}
	if alt {
		parts = append(parts, "alt")
	}
	if shift {
		parts = append(parts, "shift")
	}
	parts = append(parts, key)
	return strings.Join(parts, "+")
}

func joinActionNames() string {
	all := AllActions()
	names := make([]string, 0, len(all))
	for _, action := range all {
		names = append(names, string(action))
	}
	return strings.Join(names, ", ")
}
