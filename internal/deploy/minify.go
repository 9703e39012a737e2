package deploy

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pawanpaudel93/ao-deploy/internal/ctxlog"
)

// minify compresses the source with the external luamin tool. The minifier
// is optional: when the binary is missing or fails, the source passes
// through unchanged with a warning.
func minify(ctx context.Context, source string) string {
	logger := ctxlog.FromContext(ctx)

	bin, err := exec.LookPath("luamin")
	if err != nil {
		logger.Warn("Minifier not available, skipping minification.", "error", err)
		return source
	}

	tmp, err := os.CreateTemp("", "ao-deploy-*.lua")
	if err != nil {
		logger.Warn("Minification skipped.", "error", err)
		return source
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(source); err != nil {
		tmp.Close()
		logger.Warn("Minification skipped.", "error", err)
		return source
	}
	tmp.Close()

	out, err := exec.CommandContext(ctx, bin, "-f", tmp.Name()).Output()
	if err != nil {
		logger.Warn("Minifier failed, using unminified source.", "error", err)
		return source
	}
	minified := strings.TrimSpace(string(out))
	if minified == "" {
		logger.Warn("Minifier produced no output, using unminified source.")
		return source
	}
	return minified
}
