package config

import "github.com/hashicorp/hcl/v2"

// file is the top-level structure of a deployment config file.
type file struct {
	Deployments []*entry `hcl:"deployment,block"`
}

// entry is one `deployment "name" {}` block.
type entry struct {
	ConfigName string `hcl:"config_name,label"`

	Name         string   `hcl:"name,optional"`
	ContractPath string   `hcl:"contract_path,optional"`
	Blueprints   []string `hcl:"blueprints,optional"`
	ProcessID    string   `hcl:"process_id,optional"`
	Module       string   `hcl:"module,optional"`
	Scheduler    string   `hcl:"scheduler,optional"`
	Wallet       string   `hcl:"wallet,optional"`
	LuaPath      string   `hcl:"lua_path,optional"`
	Cron         string   `hcl:"cron,optional"`
	OnBoot       bool     `hcl:"on_boot,optional"`
	Minify       bool     `hcl:"minify,optional"`
	SQLite       bool     `hcl:"sqlite,optional"`
	ForceSpawn   bool     `hcl:"force_spawn,optional"`
	Silent       bool     `hcl:"silent,optional"`
	OutDir       string   `hcl:"out_dir,optional"`

	// Tags is an optional map of extra spawn tags.
	Tags hcl.Expression `hcl:"tags,optional"`

	Retry    *retryBlock    `hcl:"retry,block"`
	Services *servicesBlock `hcl:"services,block"`
}

// retryBlock bounds the retries of every network call of the entry.
type retryBlock struct {
	Count int `hcl:"count,optional"`
	// Delay is in milliseconds.
	Delay int `hcl:"delay,optional"`
}

// servicesBlock overrides the network service endpoints for the entry.
type servicesBlock struct {
	GatewayURL string `hcl:"gateway_url,optional"`
	CuURL      string `hcl:"cu_url,optional"`
	MuURL      string `hcl:"mu_url,optional"`
}
