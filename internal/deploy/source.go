package deploy

import (
	"context"
	"strings"

	"github.com/pawanpaudel93/ao-deploy/internal/bundler"
	"github.com/pawanpaudel93/ao-deploy/internal/ctxlog"
)

// BuildSource composes the final deployable source for a request: literal
// source or the bundled contract file, prefixed by any requested blueprint
// snippets, then passed through the optional transformer and minifier.
func (d *Deployer) BuildSource(ctx context.Context, req *Request) (string, error) {
	var contract string
	switch {
	case req.ContractSrc != "":
		contract = req.ContractSrc
	case req.ContractPath != "":
		bundled, err := bundler.CreateExecutable(ctx, req.ContractPath, req.LuaPath)
		if err != nil {
			return "", err
		}
		contract = bundled
	}

	blueprints := d.fetchBlueprints(ctx, req.Blueprints)

	source := strings.TrimSpace(blueprints)
	if contract != "" {
		if source != "" {
			source += "\n\n"
		}
		source += contract
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return "", &ConfigurationError{Reason: "deployment produced no source: no contract and no blueprint content"}
	}

	if req.Transformer != nil {
		transformed, err := req.Transformer(ctx, source)
		if err != nil {
			return "", err
		}
		source = transformed
	}

	if req.Minify {
		source = minify(ctx, source)
	}
	return source, nil
}

// blueprintNames is the set of reusable snippets published by the blueprint
// repository. Unknown names are filtered out before any fetch is attempted.
var blueprintNames = map[string]struct{}{
	"apm":       {},
	"arena":     {},
	"arns":      {},
	"chat":      {},
	"chatroom":  {},
	"credUtils": {},
	"staking":   {},
	"token":     {},
	"voting":    {},
}

// fetchBlueprints retrieves each known snippet and concatenates them in the
// order requested. A failed fetch degrades to an empty string rather than
// failing the deployment.
func (d *Deployer) fetchBlueprints(ctx context.Context, names []string) string {
	logger := ctxlog.FromContext(ctx)
	var parts []string
	for _, name := range names {
		if _, known := blueprintNames[name]; !known {
			logger.Warn("Skipping unknown blueprint.", "blueprint", name)
			continue
		}
		res, err := d.http.R().
			SetContext(ctx).
			Get(d.BlueprintBaseURL + "/" + name + ".lua")
		if err != nil || res.IsError() {
			logger.Warn("Blueprint fetch failed, continuing without it.", "blueprint", name, "error", err)
			continue
		}
		parts = append(parts, strings.TrimSpace(res.String()))
	}
	return strings.Join(parts, "\n\n")
}
