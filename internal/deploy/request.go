package deploy

import (
	"context"
	"time"

	"github.com/pawanpaudel93/ao-deploy/internal/network"
	"github.com/pawanpaudel93/ao-deploy/internal/wallet"
)

// Version is stamped onto every spawned process as a tag.
const Version = "1.0.0"

// Default retry policy applied when a request supplies no or invalid values.
const (
	DefaultRetryCount = 10
	DefaultRetryDelay = 3 * time.Second
)

// Transformer is an optional hook applied to the composed contract source
// before minification. It may do blocking work; the deployment's context is
// passed through.
type Transformer func(ctx context.Context, source string) (string, error)

// RetryPolicy bounds the retries applied to each network call of a
// deployment.
type RetryPolicy struct {
	// Count is the total number of attempts per call.
	Count int
	// Delay is the constant wait between attempts.
	Delay time.Duration
}

// normalized replaces non-positive values with the defaults rather than
// erroring. A count of zero would mean never attempting the call at all, so
// it is treated as unset, not as a request for zero attempts.
func (p RetryPolicy) normalized() RetryPolicy {
	if p.Count <= 0 {
		p.Count = DefaultRetryCount
	}
	if p.Delay < 0 {
		p.Delay = DefaultRetryDelay
	}
	return p
}

// Request is one unit of deployment work.
type Request struct {
	// Name is the logical process name; defaults to "default".
	Name string
	// ConfigName identifies the batch config entry this request came from.
	ConfigName string
	// ProcessID targets an existing process directly, skipping lookup, when
	// it is a well-formed address.
	ProcessID string

	// Source ingredients; at least one of ContractPath, ContractSrc, or
	// Blueprints must yield non-empty content.
	ContractPath string
	ContractSrc  string
	Blueprints   []string

	// Module and Scheduler override the network defaults when they are
	// well-formed addresses.
	Module    string
	Scheduler string
	Services  network.Services

	// Wallet is a path to a JWK file or literal JWK JSON; empty selects the
	// persisted default wallet. Signer, when set, is a pre-resolved identity
	// shared across a batch; the batch owner is responsible for closing it.
	Wallet string
	Signer wallet.Signer

	Tags        []network.Tag
	Cron        string
	OnBoot      bool
	Minify      bool
	SQLite      bool
	ForceSpawn  bool
	Silent      bool
	LuaPath     string
	Transformer Transformer
	Retry       RetryPolicy

	// OutDir receives the composed bundle in build-only mode.
	OutDir string
}

// applyDefaults fills identity defaults and normalizes the retry policy.
func (r *Request) applyDefaults() {
	if r.Name == "" {
		r.Name = "default"
	}
	r.Retry = r.Retry.normalized()
}

// validate rejects requests that cannot possibly produce source or carry a
// malformed cron interval, before any network call is attempted.
func (r *Request) validate() error {
	if r.ContractPath == "" && r.ContractSrc == "" && len(r.Blueprints) == 0 {
		return &ConfigurationError{Reason: "one of contract path, contract source, or blueprints is required"}
	}
	if r.Cron != "" && !IsCronPattern(r.Cron) {
		return &ConfigurationError{Reason: "invalid cron interval " + r.Cron + `, expected the form "5-minutes"`}
	}
	return nil
}

// Result is the settled outcome of one successful deployment.
type Result struct {
	Name       string
	ConfigName string
	ProcessID  string
	// MessageID is empty when on-boot delivery embedded the source in the
	// spawn payload and no evaluation message was sent.
	MessageID    string
	IsNewProcess bool
	Services     network.Services
}
