package hg

import (
	"context"
	"strings"
)

// Capabilities probes the installation on first use and serves the cached
// result afterwards. A feature enabled mid-run is not picked up until the
// next start.
func (c *CLIClient) Capabilities(ctx context.Context) Capabilities {
	c.capsOnce.Do(func() {
		c.caps = c.detectCapabilities(ctx)
	})
	return c.caps
}

// detectCapabilities runs the version query plus one lightweight probe per
// optional feature. A failing probe only clears its own flag.
func (c *CLIClient) detectCapabilities(ctx context.Context) Capabilities {
	caps := Capabilities{Version: "unknown"}
	if out, err := c.Run(ctx, "--version"); err == nil {
		for _, line := range strings.Split(out.Stdout, "\n") {
			if strings.Contains(line, "version") {
				caps.Version = strings.TrimSpace(line)
				break
			}
		}
	}
	caps.HasRebase = c.probe(ctx, "rebase", "-h")
	caps.HasHistedit = c.probe(ctx, "histedit", "-h")
	caps.HasShelve = c.probe(ctx, "shelve", "-h")
	caps.SupportsJSONStatus = c.probe(ctx, "status", "-Tjson")
	caps.SupportsJSONLog = c.probe(ctx, "log", "-l", "1", "-Tjson")
	caps.SupportsJSONBookmarks = c.probe(ctx, "bookmarks", "-Tjson")
	return caps
}

func (c *CLIClient) probe(ctx context.Context, args ...string) bool {
	out, err := c.Run(ctx, args...)
	return err == nil && out.Success
}
