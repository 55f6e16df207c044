// Package cli implements the non-interactive diagnostic modes: --doctor,
// --snapshot-json and --check-config. Each mode prints exactly one pretty
// JSON document and returns the process exit code (0 on success, 2 when
// anything is wrong), so the output stays scriptable.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atomicstack/easyhg/internal/config"
	"github.com/atomicstack/easyhg/internal/hg"
)

// snapshotRevisionLimit matches the dashboard's full-refresh revision cap.
const snapshotRevisionLimit = 200

var nowFn = time.Now

// ConfigStatus summarizes the config file load for JSON output.
type ConfigStatus struct {
	OK     bool     `json:"ok"`
	Path   string   `json:"path,omitempty"`
	Issues []string `json:"issues"`
}

func configStatus(report config.Report) ConfigStatus {
	issues := report.Issues
	if issues == nil {
		issues = []string{}
	}
	return ConfigStatus{OK: len(report.Issues) == 0, Path: report.Path, Issues: issues}
}

// CheckConfig prints the config file report.
func CheckConfig(report config.Report, w io.Writer) int {
	status := configStatus(report)
	writeJSON(w, status)
	if status.OK {
		return 0
	}
	return 2
}

// ProbeResult is one doctor probe: the command that ran and how it went.
type ProbeResult struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// DoctorReport is the --doctor output document.
type DoctorReport struct {
	OK                bool            `json:"ok"`
	TimestampUnixSecs int64           `json:"timestamp_unix_secs"`
	Cwd               string          `json:"cwd"`
	Config            ConfigStatus    `json:"config"`
	Capabilities      hg.Capabilities `json:"capabilities"`
	RepoRoot          string          `json:"repo_root"`
	Branch            string          `json:"branch"`
	Probes            []ProbeResult   `json:"probes"`
	Error             string          `json:"error,omitempty"`
}

// doctorProbes are run individually so the report shows which specific
// command an ailing installation trips over.
var doctorProbes = [][]string{
	{"--version"},
	{"root"},
	{"status", "-Tjson"},
	{"log", "-l", "5", "-Tjson"},
}

// Doctor gathers installation and repository diagnostics: one entry per
// probe command, the detected capabilities, and a lightweight snapshot for
// the repo root and branch. Overall ok requires every probe, the snapshot,
// and the config file to be clean.
func Doctor(ctx context.Context, client hg.Client, report config.Report, w io.Writer) int {
	doc := DoctorReport{
		TimestampUnixSecs: nowFn().Unix(),
		Config:            configStatus(report),
		Probes:            make([]ProbeResult, 0, len(doctorProbes)),
	}
	if cwd, err := os.Getwd(); err == nil {
		doc.Cwd = cwd
	}

	probesOK := true
	for _, args := range doctorProbes {
		entry := ProbeResult{Command: "hg " + strings.Join(args, " ")}
		out, err := client.Run(ctx, args...)
		switch {
		case err != nil:
			entry.Error = err.Error()
		case !out.Success:
			entry.Error = out.FailedError().Error()
		default:
			entry.OK = true
		}
		if !entry.OK {
			probesOK = false
		}
		doc.Probes = append(doc.Probes, entry)
	}

	doc.Capabilities = client.Capabilities(ctx)

	snap, err := client.Refresh(ctx, hg.SnapshotOptions{RevisionLimit: snapshotRevisionLimit})
	if err != nil {
		doc.Error = err.Error()
	} else {
		doc.RepoRoot = snap.RepoRoot
		doc.Branch = snap.Branch
	}

	doc.OK = probesOK && err == nil && doc.Config.OK
	writeJSON(w, doc)
	if doc.OK {
		return 0
	}
	return 2
}

// SnapshotReport is the --snapshot-json output document.
type SnapshotReport struct {
	OK                bool             `json:"ok"`
	TimestampUnixSecs int64            `json:"timestamp_unix_secs"`
	Snapshot          *hg.RepoSnapshot `json:"snapshot,omitempty"`
	Error             string           `json:"error,omitempty"`
}

// SnapshotJSON prints one full repository snapshot, revisions included.
func SnapshotJSON(ctx context.Context, client hg.Client, w io.Writer) int {
	out := SnapshotReport{TimestampUnixSecs: nowFn().Unix()}
	snap, err := client.Refresh(ctx, hg.SnapshotOptions{
		RevisionLimit:    snapshotRevisionLimit,
		IncludeRevisions: true,
	})
	if err != nil {
		out.Error = err.Error()
	} else {
		out.OK = true
		out.Snapshot = &snap
	}
	writeJSON(w, out)
	if out.OK {
		return 0
	}
	return 2
}

func writeJSON(w io.Writer, doc interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
	}
}
