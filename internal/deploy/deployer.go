package deploy

import (
	"context"
	"errors"
	"sync"
	"time"

	"resty.dev/v3"

	"github.com/pawanpaudel93/ao-deploy/internal/ctxlog"
	"github.com/pawanpaudel93/ao-deploy/internal/limiter"
	"github.com/pawanpaudel93/ao-deploy/internal/network"
	"github.com/pawanpaudel93/ao-deploy/internal/retry"
	"github.com/pawanpaudel93/ao-deploy/internal/wallet"
)

// DefaultBlueprintBaseURL is where published blueprint snippets live.
const DefaultBlueprintBaseURL = "https://raw.githubusercontent.com/permaweb/aos/main/blueprints"

// Spawn-confirmation polling bounds: exponential backoff starting at the
// base delay, doubling each attempt.
const (
	defaultConfirmAttempts  = 8
	defaultConfirmBaseDelay = 250 * time.Millisecond
)

// spawnPlaceholderData is the fixed spawn payload used when the source is
// delivered by a follow-up evaluation message instead of on boot.
const spawnPlaceholderData = "1984"

// errNotIndexed drives the spawn-confirmation polling loop.
var errNotIndexed = errors.New("process not indexed yet")

// Deployer runs deployment requests. The fetched network defaults are cached
// per instance and reused by every request routed through it.
type Deployer struct {
	http *resty.Client

	// BlueprintBaseURL and ConfigURL are overridable for tests.
	BlueprintBaseURL string
	ConfigURL        string

	confirmAttempts  int
	confirmBaseDelay time.Duration

	resolveSigner func(ctx context.Context, ref string) (wallet.Signer, error)

	mu       sync.Mutex
	defaults *network.Defaults
}

// NewDeployer creates a Deployer with the public endpoints.
func NewDeployer() *Deployer {
	return &Deployer{
		http:             resty.New().SetTimeout(60 * time.Second),
		BlueprintBaseURL: DefaultBlueprintBaseURL,
		confirmAttempts:  defaultConfirmAttempts,
		confirmBaseDelay: defaultConfirmBaseDelay,
		resolveSigner:    wallet.Resolve,
	}
}

// Deploy runs the full deployment state machine for one request and returns
// its settled result. Any stage exhausting its retries aborts this request
// only, surfacing the underlying error unchanged.
func (d *Deployer) Deploy(ctx context.Context, req *Request) (*Result, error) {
	req.applyDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}
	ctx = ctxlog.With(ctx, "name", req.Name)

	// IDENTIFY: resolve the signing identity. A signer supplied by the
	// caller is shared and stays open; one resolved here is released when
	// this deployment concludes.
	signer := req.Signer
	ownsSigner := signer == nil
	if ownsSigner {
		resolved, err := d.resolveSigner(ctx, req.Wallet)
		if err != nil {
			return nil, err
		}
		signer = resolved
	}

	client := network.NewClient(req.Services)
	if d.ConfigURL != "" {
		client.ConfigURL = d.ConfigURL
	}
	ctxlog.FromContext(ctx).Debug("Network client ready.", "mode", client.Mode())

	result, err := d.run(ctx, req, client, signer)
	if ownsSigner {
		status := "success"
		if err != nil {
			status = "error"
		}
		signer.Close(status)
	}
	return result, err
}

// run executes the state machine against a resolved identity.
func (d *Deployer) run(ctx context.Context, req *Request, client *network.Client, signer wallet.Signer) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	backoff := retry.Constant(req.Retry.Delay)

	module, scheduler, err := d.resolveAddresses(ctx, req, client)
	if err != nil {
		return nil, err
	}

	// LOCATE_OR_SKIP: reuse an existing process unless told otherwise.
	processID := ""
	switch {
	case network.IsAddress(req.ProcessID):
		processID = req.ProcessID
	case !req.ForceSpawn:
		processID, err = retry.Do(ctx, req.Retry.Count, backoff, func(ctx context.Context) (string, error) {
			return client.FindProcess(ctx, req.Name, signer.Address())
		})
		if err != nil {
			return nil, err
		}
	}
	isNewProcess := processID == ""

	var source string
	sourceBuilt := false
	buildSource := func() error {
		if sourceBuilt {
			return nil
		}
		built, err := d.BuildSource(ctx, req)
		if err != nil {
			return err
		}
		source = built
		sourceBuilt = true
		return nil
	}

	if isNewProcess {
		d.status(ctx, req, "Spawning new process.", "module", module)
		if err := buildSource(); err != nil {
			return nil, err
		}

		spawnReq, err := d.spawnRequest(ctx, req, client, module, scheduler, source, signer)
		if err != nil {
			return nil, err
		}
		processID, err = retry.Do(ctx, req.Retry.Count, backoff, func(ctx context.Context) (string, error) {
			return client.Spawn(ctx, *spawnReq)
		})
		if err != nil {
			return nil, err
		}
		if processID == "" {
			return nil, &SpawnError{Name: req.Name}
		}
		logger.Debug("Process spawned.", "processId", processID)

		// AWAIT_SPAWN_CONFIRMED: the gateway may not index the process
		// immediately; messaging it too early risks delivery failure.
		if err := d.awaitIndexed(ctx, client, processID); err != nil {
			return nil, err
		}
	} else {
		d.status(ctx, req, "Updating existing process.", "processId", processID)
	}

	messageID := ""
	if !(req.OnBoot && isNewProcess) {
		// EVAL: submit the source for evaluation on the target process.
		if err := buildSource(); err != nil {
			return nil, err
		}
		messageID, err = retry.Do(ctx, req.Retry.Count, backoff, func(ctx context.Context) (string, error) {
			return client.Message(ctx, network.MessageRequest{
				Process: processID,
				Tags:    []network.Tag{{Name: "Action", Value: "Eval"}},
				Data:    source,
				Signer:  signer,
			})
		})
		if err != nil {
			return nil, err
		}

		// AWAIT_RESULT: a network-level success can still carry an
		// application-level failure payload.
		evalResult, err := retry.Do(ctx, req.Retry.Count, backoff, func(ctx context.Context) (*network.EvalResult, error) {
			return client.Result(ctx, messageID, processID)
		})
		if err != nil {
			return nil, err
		}
		if payload := evalResult.FailurePayload(); payload != "" {
			return nil, &EvaluationError{Payload: payload}
		}
	}

	return &Result{
		Name:         req.Name,
		ConfigName:   req.ConfigName,
		ProcessID:    processID,
		MessageID:    messageID,
		IsNewProcess: isNewProcess,
		Services:     req.Services,
	}, nil
}

// resolveAddresses picks the effective module and scheduler: caller-supplied
// well-formed addresses win, anything else falls back to the network
// defaults (with the sqlite template variant when requested).
func (d *Deployer) resolveAddresses(ctx context.Context, req *Request, client *network.Client) (string, string, error) {
	module, scheduler := req.Module, req.Scheduler
	if network.IsAddress(module) && network.IsAddress(scheduler) {
		return module, scheduler, nil
	}

	defaults, err := d.networkDefaults(ctx, client)
	if err != nil {
		return "", "", err
	}
	if !network.IsAddress(module) {
		module = defaults.ModuleFor(req.SQLite)
	}
	if !network.IsAddress(scheduler) {
		scheduler = defaults.Scheduler
	}
	return module, scheduler, nil
}

// spawnRequest assembles the spawn tags and payload for a fresh process.
func (d *Deployer) spawnRequest(ctx context.Context, req *Request, client *network.Client, module, scheduler, source string, signer wallet.Signer) (*network.SpawnRequest, error) {
	defaults, err := d.networkDefaults(ctx, client)
	if err != nil {
		return nil, err
	}

	tags := []network.Tag{
		{Name: "App-Name", Value: "ao-deploy"},
		{Name: "Name", Value: req.Name},
		{Name: "Version", Value: Version},
		{Name: "Authority", Value: defaults.Authority},
	}
	tags = append(tags, req.Tags...)
	if req.Cron != "" {
		tags = append(tags, cronTags(req.Cron)...)
	}

	data := spawnPlaceholderData
	if req.OnBoot {
		tags = append(tags, network.Tag{Name: "On-Boot", Value: "Data"})
		data = source
	}

	return &network.SpawnRequest{
		Module:    module,
		Scheduler: scheduler,
		Tags:      tags,
		Data:      data,
		Signer:    signer,
	}, nil
}

// awaitIndexed polls the lookup service until the process identifier is
// visible, with bounded exponential backoff.
func (d *Deployer) awaitIndexed(ctx context.Context, client *network.Client, processID string) error {
	_, err := retry.Do(ctx, d.confirmAttempts, retry.Exponential(d.confirmBaseDelay), func(ctx context.Context) (struct{}, error) {
		indexed, err := client.ProcessIndexed(ctx, processID)
		if err != nil {
			return struct{}{}, err
		}
		if !indexed {
			return struct{}{}, errNotIndexed
		}
		return struct{}{}, nil
	})
	if errors.Is(err, errNotIndexed) {
		return &IndexingTimeoutError{ProcessID: processID, Attempts: d.confirmAttempts}
	}
	return err
}

// networkDefaults returns the cached network defaults, fetching them once
// per Deployer instance. Concurrent first calls may each trigger a fetch;
// the document is deterministic, so last-write-wins is safe.
func (d *Deployer) networkDefaults(ctx context.Context, client *network.Client) (*network.Defaults, error) {
	d.mu.Lock()
	cached := d.defaults
	d.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	defaults, err := client.FetchDefaults(ctx)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.defaults = defaults
	d.mu.Unlock()
	return defaults, nil
}

// status logs an operator-visible progress line unless the request asked for
// silence.
func (d *Deployer) status(ctx context.Context, req *Request, msg string, args ...any) {
	logger := ctxlog.FromContext(ctx)
	if req.Silent {
		logger.Debug(msg, args...)
		return
	}
	logger.Info(msg, args...)
}

// DeployAll runs every request under a bounded-concurrency scheduler and
// returns the per-request settled outcomes in input order. Requests sharing
// a wallet reference share one resolved signer, which is released once,
// after all of them settle.
func (d *Deployer) DeployAll(ctx context.Context, reqs []*Request, concurrency int) []limiter.Outcome[*Result] {
	shared := make(map[string]wallet.Signer)
	walletErrs := make(map[string]error)
	for _, req := range reqs {
		if req.Signer != nil {
			continue
		}
		if _, done := shared[req.Wallet]; done {
			continue
		}
		if _, failed := walletErrs[req.Wallet]; failed {
			continue
		}
		signer, err := d.resolveSigner(ctx, req.Wallet)
		if err != nil {
			walletErrs[req.Wallet] = err
			continue
		}
		shared[req.Wallet] = signer
	}
	for _, req := range reqs {
		if req.Signer == nil {
			req.Signer = shared[req.Wallet]
		}
	}

	outcomes := limiter.RunBatch(ctx, len(reqs), concurrency, func(ctx context.Context, i int) (*Result, error) {
		req := reqs[i]
		if req.Signer == nil {
			if err := walletErrs[req.Wallet]; err != nil {
				return nil, err
			}
		}
		return d.Deploy(ctx, req)
	})

	allFulfilled := true
	for _, outcome := range outcomes {
		if !outcome.Fulfilled() {
			allFulfilled = false
			break
		}
	}
	status := "success"
	if !allFulfilled {
		status = "error"
	}
	for _, signer := range shared {
		signer.Close(status)
	}
	return outcomes
}
