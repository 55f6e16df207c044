// Package commands implements the command-line tokenizer and placeholder
// substitution used by user-defined custom commands. Command lines are split
// shell-style but never run through a shell.
package commands

import (
	"errors"
	"strings"
	"unicode"
)

// SupportedTemplateVars is the fixed placeholder vocabulary. Anything else
// inside braces is reported as unknown at config load time.
var SupportedTemplateVars = []string{"repo_root", "branch", "file", "rev", "node"}

var (
	errUnmatchedQuote  = errors.New("custom command has unmatched quote")
	errTrailingEscape  = errors.New("custom command has trailing escape")
	errEmptyExecutable = errors.New("custom command has empty executable")
)

// SplitCommand tokenizes a command line into program and arguments. Single
// quotes preserve their content verbatim, double quotes honor backslash
// escapes, and a backslash outside quotes escapes the next rune.
func SplitCommand(raw string) (string, []string, error) {
	type quoteMode int
	const (
		unquoted quoteMode = iota
		singleQuoted
		doubleQuoted
	)

	parts := make([]string, 0, 4)
	var current strings.Builder
	mode := unquoted
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch mode {
		case singleQuoted:
			if ch == '\'' {
				mode = unquoted
			} else {
				current.WriteRune(ch)
			}
		case doubleQuoted:
			switch ch {
			case '"':
				mode = unquoted
			case '\\':
				i++
				if i >= len(runes) {
					return "", nil, errTrailingEscape
				}
				current.WriteRune(runes[i])
			default:
				current.WriteRune(ch)
			}
		default:
			switch {
			case ch == '\'':
				mode = singleQuoted
			case ch == '"':
				mode = doubleQuoted
			case ch == '\\':
				i++
				if i >= len(runes) {
					return "", nil, errTrailingEscape
				}
				current.WriteRune(runes[i])
			case unicode.IsSpace(ch):
				if current.Len() > 0 {
					parts = append(parts, current.String())
					current.Reset()
				}
			default:
				current.WriteRune(ch)
			}
		}
	}
	if mode != unquoted {
		return "", nil, errUnmatchedQuote
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	if len(parts) == 0 {
		return "", nil, errEmptyExecutable
	}
	return parts[0], parts[1:], nil
}

// TemplateVars returns the identifier-shaped `{name}` placeholders in raw,
// de-duplicated, in order of first occurrence.
func TemplateVars(raw string) []string {
	out := make([]string, 0, 4)
	seen := make(map[string]bool)
	idx := 0
	for idx < len(raw) {
		start := strings.IndexByte(raw[idx:], '{')
		if start < 0 {
			break
		}
		start += idx
		after := start + 1
		if after >= len(raw) {
			break
		}
		end := strings.IndexByte(raw[after:], '}')
		if end < 0 {
			break
		}
		end += after
		candidate := raw[after:end]
		if isTemplateVarName(candidate) && !seen[candidate] {
			seen[candidate] = true
			out = append(out, candidate)
		}
		idx = end + 1
	}
	return out
}

// UnknownVars filters TemplateVars down to names outside the supported
// vocabulary.
func UnknownVars(raw string) []string {
	supported := make(map[string]bool, len(SupportedTemplateVars))
	for _, name := range SupportedTemplateVars {
		supported[name] = true
	}
	names := TemplateVars(raw)
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !supported[name] {
			out = append(out, name)
		}
	}
	return out
}

// UnresolvedVars filters TemplateVars down to names absent from the
// supplied bindings.
func UnresolvedVars(raw string, vars map[string]string) []string {
	names := TemplateVars(raw)
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := vars[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// RenderTemplate substitutes every `{name}` occurrence for each binding.
// Unbound placeholders pass through untouched; callers gate on
// UnresolvedVars first.
func RenderTemplate(raw string, vars map[string]string) string {
	rendered := raw
	for name, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{"+name+"}", value)
	}
	return rendered
}

func isTemplateVarName(raw string) bool {
	if raw == "" {
		return false
	}
	for i, r := range raw {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
