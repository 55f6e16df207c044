package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/atomicstack/easyhg/internal/app"
	"github.com/atomicstack/easyhg/internal/cli"
	"github.com/atomicstack/easyhg/internal/config"
	"github.com/atomicstack/easyhg/internal/hg"
	"github.com/atomicstack/easyhg/internal/logging"
	"github.com/atomicstack/easyhg/internal/logging/events"
	"golang.org/x/term"
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "easyhg: %v\n\n%s", err, config.Usage())
		return 2
	}
	logging.Configure(opts.LogFile)
	logging.SetTraceEnabled(opts.Trace)
	traceStartup(opts)

	switch opts.Mode {
	case config.ModeHelp:
		fmt.Print(config.Usage())
		return 0
	case config.ModeVersion:
		fmt.Printf("easyhg %s\n", version)
		return 0
	}

	report := config.LoadFileReport()
	ctx := context.Background()
	switch opts.Mode {
	case config.ModeCheckConfig:
		return cli.CheckConfig(report, os.Stdout)
	case config.ModeDoctor:
		return cli.Doctor(ctx, newClient(), report, os.Stdout)
	case config.ModeSnapshotJSON:
		return cli.SnapshotJSON(ctx, newClient(), os.Stdout)
	}

	if err := app.Run(report); err != nil {
		logging.Error(err)
		var guard *app.NotARepoError
		if errors.As(err, &guard) {
			fmt.Fprintln(os.Stderr, guard.Error())
			return 2
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newClient() *hg.CLIClient {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return hg.NewCLIClient(cwd)
}

func traceStartup(opts config.Options) {
	events.App.Start(startupTracePayload(opts))
}

// startupTracePayload bundles runtime context for trace logging.
func startupTracePayload(opts config.Options) map[string]interface{} {
	flags := make(map[string]interface{}, len(opts.Flags))
	for k, v := range opts.Flags {
		flags[k] = v
	}
	payload := map[string]interface{}{
		"argv":    opts.Args,
		"flags":   flags,
		"mode":    opts.Mode.String(),
		"version": version,
	}
	if exe, err := os.Executable(); err == nil {
		payload["executable"] = exe
	} else {
		payload["executableError"] = err.Error()
	}
	if cwd, err := os.Getwd(); err == nil {
		payload["cwd"] = cwd
	} else {
		payload["cwdError"] = err.Error()
	}
	payload["tty"] = collectTTYDetails()
	return payload
}

type ttyDetails struct {
	Detected *ttyDetected     `json:"detected,omitempty"`
	Probes   []ttyProbeResult `json:"probes"`
}

type ttyDetected struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ttyProbeResult struct {
	Name       string `json:"name"`
	IsTerminal bool   `json:"is_terminal"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Error      string `json:"error,omitempty"`
}

// collectTTYDetails inspects standard descriptors for terminal support and dimensions.
func collectTTYDetails() ttyDetails {
	probes := []struct {
		name string
		fd   uintptr
	}{
		{"stdin", os.Stdin.Fd()},
		{"stdout", os.Stdout.Fd()},
		{"stderr", os.Stderr.Fd()},
	}
	results := make([]ttyProbeResult, 0, len(probes))
	var detected *ttyDetected
	for _, probe := range probes {
		entry := ttyProbeResult{Name: probe.name}
		fd := int(probe.fd)
		if fd >= 0 && term.IsTerminal(fd) {
			entry.IsTerminal = true
			if width, height, err := term.GetSize(fd); err == nil {
				entry.Width = width
				entry.Height = height
				if detected == nil {
					detected = &ttyDetected{Source: probe.name, Width: width, Height: height}
				}
			} else {
				entry.Error = err.Error()
			}
		} else {
			entry.IsTerminal = false
		}
		results = append(results, entry)
	}
	return ttyDetails{Detected: detected, Probes: results}
}
