package app

import (
	"errors"
	"strings"
	"time"

	"github.com/pawanpaudel93/ao-deploy/internal/deploy"
	"github.com/pawanpaudel93/ao-deploy/internal/network"
)

// Config holds everything an App instance needs to run. The CLI fills it
// from flags; library callers can construct it directly.
type Config struct {
	// Path points at a Lua contract file, or at an HCL config file for
	// batch mode (selected by the .hcl extension).
	Path string

	Name      string
	ProcessID string
	Wallet    string
	Module    string
	Scheduler string
	Services  network.Services

	Blueprints []string
	Tags       []network.Tag
	LuaPath    string

	Cron       string
	OnBoot     bool
	Minify     bool
	SQLite     bool
	ForceSpawn bool
	Silent     bool

	RetryCount int
	RetryDelay time.Duration

	// Deploy filters batch mode to the named config entries.
	Deploy []string
	// Concurrency bounds how many batch entries run at once.
	Concurrency int

	BuildOnly bool
	OutDir    string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Path == "" && len(cfg.Blueprints) == 0 {
		return nil, errors.New("a contract path, config file, or blueprint list is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	return &cfg, nil
}

// batchMode reports whether Path names a deployment config file.
func (c *Config) batchMode() bool {
	return strings.HasSuffix(c.Path, ".hcl")
}

// request converts the flag-level configuration into a single deployment
// request.
func (c *Config) request() *deploy.Request {
	return &deploy.Request{
		Name:         c.Name,
		ProcessID:    c.ProcessID,
		ContractPath: c.Path,
		Blueprints:   c.Blueprints,
		Module:       c.Module,
		Scheduler:    c.Scheduler,
		Services:     c.Services,
		Wallet:       c.Wallet,
		Tags:         c.Tags,
		Cron:         c.Cron,
		OnBoot:       c.OnBoot,
		Minify:       c.Minify,
		SQLite:       c.SQLite,
		ForceSpawn:   c.ForceSpawn,
		Silent:       c.Silent,
		LuaPath:      c.LuaPath,
		Retry: deploy.RetryPolicy{
			Count: c.RetryCount,
			Delay: c.RetryDelay,
		},
		OutDir: c.OutDir,
	}
}
