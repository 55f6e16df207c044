// Package config owns the two configuration layers: process flags plus
// environment (mode selection, log file, tracing) and the optional
// config.toml (theme, keybinding overrides, custom commands). File
// problems are collected as issues and never abort startup.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/atomicstack/easyhg/internal/commands"
	"github.com/atomicstack/easyhg/internal/keymap"
	flag "github.com/spf13/pflag"
)

// Mode is the process mode selected by the CLI flags. Exactly one mode
// runs per invocation.
type Mode int

const (
	ModeRunTUI Mode = iota
	ModeHelp
	ModeVersion
	ModeDoctor
	ModeSnapshotJSON
	ModeCheckConfig
)

func (m Mode) String() string {
	switch m {
	case ModeHelp:
		return "help"
	case ModeVersion:
		return "version"
	case ModeDoctor:
		return "doctor"
	case ModeSnapshotJSON:
		return "snapshot-json"
	case ModeCheckConfig:
		return "check-config"
	default:
		return "tui"
	}
}

// Options captures the flag/environment layer.
type Options struct {
	Mode    Mode
	LogFile string
	Trace   bool
	Flags   map[string]string
	Args    []string
}

const (
	envLogFile = "EASYHG_LOG_FILE"
	envTrace   = "EASYHG_TRACE"
)

type flagValues struct {
	help         bool
	version      bool
	doctor       bool
	snapshotJSON bool
	checkConfig  bool
	logFile      string
	trace        bool
}

func newFlagSet(env map[string]string) (*flag.FlagSet, *flagValues) {
	fs := flag.NewFlagSet("easyhg", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	values := &flagValues{}
	fs.BoolVarP(&values.help, "help", "h", false, "print help and exit")
	fs.BoolVarP(&values.version, "version", "V", false, "print version and exit")
	fs.BoolVar(&values.doctor, "doctor", false, "print environment/repo diagnostics as JSON and exit")
	fs.BoolVar(&values.snapshotJSON, "snapshot-json", false, "print the current repository snapshot as JSON and exit")
	fs.BoolVar(&values.checkConfig, "check-config", false, "validate the config file and print a JSON report")
	fs.StringVar(&values.logFile, "log-file", envOrDefault(env, envLogFile, ""), "append logs to this file")
	fs.BoolVar(&values.trace, "trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	return fs, values
}

// Usage renders the help text shown by -h and after usage errors.
func Usage() string {
	fs, _ := newFlagSet(nil)
	var b strings.Builder
	b.WriteString("easyhg - lazygit-style terminal UI for Mercurial\n\n")
	b.WriteString("Usage:\n  easyhg [options]\n\n")
	b.WriteString("Options:\n")
	b.WriteString(fs.FlagUsages())
	return b.String()
}

// Load parses flags and environment from the process.
func Load() (Options, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment. Mode flags
// are mutually exclusive; unknown flags and positional arguments are
// usage errors.
func LoadArgs(args []string, environ []string) (Options, error) {
	env := parseEnv(environ)
	fs, values := newFlagSet(env)
	if err := fs.Parse(args); err != nil {
		return Options{}, normalizeParseError(err)
	}
	if rest := fs.Args(); len(rest) > 0 {
		return Options{}, fmt.Errorf("unknown option: %s", rest[0])
	}

	mode := ModeRunTUI
	selected := 0
	for _, candidate := range []struct {
		set  bool
		mode Mode
	}{
		{values.help, ModeHelp},
		{values.version, ModeVersion},
		{values.doctor, ModeDoctor},
		{values.snapshotJSON, ModeSnapshotJSON},
		{values.checkConfig, ModeCheckConfig},
	} {
		if candidate.set {
			mode = candidate.mode
			selected++
		}
	}
	if selected > 1 {
		return Options{}, errors.New("options are mutually exclusive")
	}

	opts := Options{
		Mode:    mode,
		LogFile: values.logFile,
		Trace:   values.trace,
		Args:    append([]string(nil), args...),
	}
	opts.Flags = map[string]string{
		"mode":     mode.String(),
		"log_file": values.logFile,
		"trace":    strconv.FormatBool(values.trace),
	}
	return opts, nil
}

// normalizeParseError rewrites pflag's unknown-flag wording to the
// vocabulary the rest of the CLI uses.
func normalizeParseError(err error) error {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, "unknown flag: "); ok {
		return fmt.Errorf("unknown option: %s", rest)
	}
	if rest, ok := strings.CutPrefix(msg, "unknown shorthand flag: "); ok {
		return fmt.Errorf("unknown option: %s", rest)
	}
	return err
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

const (
	// Custom command contexts decide which panel selection feeds the
	// template bindings.
	ContextRepo     = "repo"
	ContextFile     = "file"
	ContextRevision = "revision"

	defaultTheme = "dark"
)

// CustomCommand is one [[commands]] entry from config.toml.
type CustomCommand struct {
	ID                string            `toml:"id"`
	Title             string            `toml:"title"`
	Context           string            `toml:"context"`
	Command           string            `toml:"command"`
	Args              []string          `toml:"args"`
	Env               map[string]string `toml:"env"`
	ShowOutput        bool              `toml:"show_output"`
	NeedsConfirmation bool              `toml:"needs_confirmation"`
}

// Config is the decoded config.toml content with defaults applied.
type Config struct {
	Theme    string            `toml:"theme"`
	Keys     map[string]string `toml:"keys"`
	Commands []CustomCommand   `toml:"commands"`
}

// Report is the result of loading the config file. Path is empty when no
// file was found; Issues collects every problem without failing.
type Report struct {
	Config Config
	Path   string
	Issues []string
}

func defaultConfig() Config {
	return Config{Theme: defaultTheme}
}

// LoadFileReport reads $XDG_CONFIG_HOME/easyhg/config.toml (via
// os.UserConfigDir). A missing file yields the defaults with no issues.
func LoadFileReport() Report {
	base, err := os.UserConfigDir()
	if err != nil {
		return Report{Config: defaultConfig()}
	}
	return loadFileReport(filepath.Join(base, "easyhg", "config.toml"))
}

func loadFileReport(path string) Report {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Report{Config: defaultConfig()}
	}
	if err != nil {
		return Report{
			Config: defaultConfig(),
			Path:   path,
			Issues: []string{fmt.Sprintf("cannot read config file %s: %v", path, err)},
		}
	}
	return parseReport(path, string(data))
}

func parseReport(path, data string) Report {
	report := Report{Config: defaultConfig(), Path: path, Issues: make([]string, 0)}

	var decoded Config
	md, err := toml.Decode(data, &decoded)
	if err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("cannot parse config file %s: %v", path, err))
		return report
	}
	for _, key := range md.Undecoded() {
		report.Issues = append(report.Issues, fmt.Sprintf("unknown config key '%s'", key.String()))
	}

	if decoded.Theme == "" {
		decoded.Theme = defaultTheme
	}
	if decoded.Theme != "dark" && decoded.Theme != "light" {
		report.Issues = append(report.Issues,
			fmt.Sprintf("unknown theme '%s' (expected dark or light)", decoded.Theme))
		decoded.Theme = defaultTheme
	}

	report.Issues = append(report.Issues, keymap.ValidateOverrides(decoded.Keys)...)

	for i, cmd := range decoded.Commands {
		report.Issues = append(report.Issues, customCommandIssues(i, cmd)...)
	}

	report.Config = decoded
	return report
}

func customCommandIssues(index int, cmd CustomCommand) []string {
	issues := make([]string, 0)
	label := cmd.ID
	if label == "" {
		label = fmt.Sprintf("#%d", index+1)
		issues = append(issues, fmt.Sprintf("custom command %s: missing id", label))
	}
	if cmd.Title == "" {
		issues = append(issues, fmt.Sprintf("custom command %s: missing title", label))
	}
	switch cmd.Context {
	case ContextRepo, ContextFile, ContextRevision:
	case "":
		issues = append(issues, fmt.Sprintf("custom command %s: missing context", label))
	default:
		issues = append(issues, fmt.Sprintf(
			"custom command %s: unknown context '%s' (expected repo, file, or revision)", label, cmd.Context))
	}
	if _, _, err := commands.SplitCommand(cmd.Command); err != nil {
		issues = append(issues, fmt.Sprintf("custom command %s: %v", label, err))
	}
	for _, name := range unknownTemplateVars(cmd) {
		issues = append(issues, fmt.Sprintf("custom command %s: unknown template variable '{%s}'", label, name))
	}
	return issues
}

// unknownTemplateVars scans the command line, declared args, and env
// values for placeholders outside the supported vocabulary. Names are
// de-duplicated and sorted.
func unknownTemplateVars(cmd CustomCommand) []string {
	sources := make([]string, 0, 1+len(cmd.Args)+len(cmd.Env))
	sources = append(sources, cmd.Command)
	sources = append(sources, cmd.Args...)
	envKeys := make([]string, 0, len(cmd.Env))
	for key := range cmd.Env {
		envKeys = append(envKeys, key)
	}
	sort.Strings(envKeys)
	for _, key := range envKeys {
		sources = append(sources, cmd.Env[key])
	}

	seen := make(map[string]bool)
	unknown := make([]string, 0)
	for _, source := range sources {
		for _, name := range commands.UnknownVars(source) {
			if seen[name] {
				continue
			}
			seen[name] = true
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}
