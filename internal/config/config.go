package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/pawanpaudel93/ao-deploy/internal/deploy"
	"github.com/pawanpaudel93/ao-deploy/internal/network"
)

// Batch is the validated contents of a deployment config file, preserving
// the file order of its entries.
type Batch struct {
	Names    []string
	Requests map[string]*deploy.Request
}

// Load parses and validates the config file at path.
func Load(path string) (*Batch, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing config file: %w", diags)
	}

	var parsed file
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("decoding config file: %w", diags)
	}

	batch := &Batch{
		Requests: make(map[string]*deploy.Request, len(parsed.Deployments)),
	}
	for _, e := range parsed.Deployments {
		if _, dup := batch.Requests[e.ConfigName]; dup {
			return nil, &deploy.ConfigurationError{Reason: fmt.Sprintf("duplicate deployment entry %q", e.ConfigName)}
		}
		req, err := e.toRequest()
		if err != nil {
			return nil, err
		}
		batch.Names = append(batch.Names, e.ConfigName)
		batch.Requests[e.ConfigName] = req
	}
	if len(batch.Names) == 0 {
		return nil, &deploy.ConfigurationError{Reason: "config file defines no deployment entries"}
	}
	return batch, nil
}

// Select returns the requests for the given entry names in config-file
// order, or every entry when names is empty. Unknown names are an error.
func (b *Batch) Select(names []string) ([]*deploy.Request, error) {
	if len(names) == 0 {
		names = b.Names
	}
	selected := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := b.Requests[name]; !ok {
			return nil, &deploy.ConfigurationError{Reason: fmt.Sprintf("unknown deployment entry %q", name)}
		}
		selected[name] = struct{}{}
	}

	var reqs []*deploy.Request
	for _, name := range b.Names {
		if _, ok := selected[name]; ok {
			reqs = append(reqs, b.Requests[name])
		}
	}
	return reqs, nil
}

// toRequest validates one entry and converts it into a deployment request.
func (e *entry) toRequest() (*deploy.Request, error) {
	if e.ContractPath == "" && len(e.Blueprints) == 0 {
		return nil, &deploy.ConfigurationError{
			Reason: fmt.Sprintf("entry %q must set contract_path or a non-empty blueprints list", e.ConfigName),
		}
	}

	tags, err := e.tagList()
	if err != nil {
		return nil, err
	}

	req := &deploy.Request{
		Name:         e.Name,
		ConfigName:   e.ConfigName,
		ProcessID:    e.ProcessID,
		ContractPath: e.ContractPath,
		Blueprints:   e.Blueprints,
		Module:       e.Module,
		Scheduler:    e.Scheduler,
		Wallet:       e.Wallet,
		LuaPath:      e.LuaPath,
		Cron:         e.Cron,
		OnBoot:       e.OnBoot,
		Minify:       e.Minify,
		SQLite:       e.SQLite,
		ForceSpawn:   e.ForceSpawn,
		Silent:       e.Silent,
		OutDir:       e.OutDir,
		Tags:         tags,
	}
	if req.Name == "" {
		req.Name = e.ConfigName
	}
	if e.Retry != nil {
		req.Retry = deploy.RetryPolicy{
			Count: e.Retry.Count,
			Delay: time.Duration(e.Retry.Delay) * time.Millisecond,
		}
	}
	if e.Services != nil {
		req.Services = network.Services{
			GatewayURL: e.Services.GatewayURL,
			CuURL:      e.Services.CuURL,
			MuURL:      e.Services.MuURL,
		}
	}
	return req, nil
}

// tagList evaluates the optional tags attribute into spawn tags. The value
// must be a map (or object) of strings.
func (e *entry) tagList() ([]network.Tag, error) {
	if e.Tags == nil {
		return nil, nil
	}
	value, diags := e.Tags.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating tags of entry %q: %w", e.ConfigName, diags)
	}
	if value.IsNull() {
		return nil, nil
	}
	if !value.Type().IsObjectType() && !value.Type().IsMapType() {
		return nil, &deploy.ConfigurationError{
			Reason: fmt.Sprintf("tags of entry %q must be a map of strings", e.ConfigName),
		}
	}

	var tags []network.Tag
	for it := value.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if v.Type() != cty.String || v.IsNull() {
			return nil, &deploy.ConfigurationError{
				Reason: fmt.Sprintf("tag %q of entry %q must be a string", k.AsString(), e.ConfigName),
			}
		}
		tags = append(tags, network.Tag{Name: k.AsString(), Value: v.AsString()})
	}
	return tags, nil
}
