package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pawanpaudel93/ao-deploy/internal/config"
	"github.com/pawanpaudel93/ao-deploy/internal/ctxlog"
	"github.com/pawanpaudel93/ao-deploy/internal/deploy"
	"github.com/pawanpaudel93/ao-deploy/internal/fsutil"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	errW     io.Writer
	logger   *slog.Logger
	config   *Config
	deployer *deploy.Deployer
}

// NewApp is the constructor for the main application. Results go to outW,
// logs to errW.
func NewApp(outW, errW io.Writer, cfg *Config) *App {
	return &App{
		outW:     outW,
		errW:     errW,
		logger:   newLogger(cfg.LogLevel, cfg.LogFormat, errW),
		config:   cfg,
		deployer: deploy.NewDeployer(),
	}
}

// Run executes the selected mode: batch deployment when the positional
// argument is a config file, otherwise build-only or a single deployment.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	switch {
	case a.config.batchMode():
		return a.runBatch(ctx)
	case a.config.BuildOnly:
		return a.runBuildOnly(ctx)
	default:
		return a.runSingle(ctx)
	}
}

// runSingle deploys one contract and prints its result.
func (a *App) runSingle(ctx context.Context) error {
	result, err := a.deployer.Deploy(ctx, a.config.request())
	if err != nil {
		return err
	}
	a.printResult(result)
	return nil
}

// runBuildOnly composes the deployable source without touching the network
// and writes it into the output directory.
func (a *App) runBuildOnly(ctx context.Context) error {
	return a.writeBundle(ctx, a.config.request())
}

// writeBundle runs the source pipeline for one request and writes the result
// to <outDir>/<name>.lua.
func (a *App) writeBundle(ctx context.Context, req *deploy.Request) error {
	source, err := a.deployer.BuildSource(ctx, req)
	if err != nil {
		return err
	}

	name := req.Name
	if name == "" {
		name = "default"
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = "dist"
	}
	path, err := fsutil.WriteFileInDir(outDir, name+".lua", []byte(source))
	if err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	fmt.Fprintf(a.outW, "Bundle written to %s\n", path)
	return nil
}

// runBatch deploys the selected config entries concurrently and prints the
// per-entry outcomes plus a summary fraction. It fails unless every entry
// succeeded.
func (a *App) runBatch(ctx context.Context) error {
	batch, err := config.Load(a.config.Path)
	if err != nil {
		return err
	}
	reqs, err := batch.Select(a.config.Deploy)
	if err != nil {
		return err
	}
	// Flag-level wallet is the fallback for entries without their own.
	for _, req := range reqs {
		if req.Wallet == "" {
			req.Wallet = a.config.Wallet
		}
	}

	if a.config.BuildOnly {
		for _, req := range reqs {
			if req.OutDir == "" {
				req.OutDir = a.config.OutDir
			}
			if err := a.writeBundle(ctx, req); err != nil {
				return err
			}
		}
		return nil
	}
	a.logger.Info("Deploying config entries.", "count", len(reqs), "concurrency", a.config.Concurrency)

	outcomes := a.deployer.DeployAll(ctx, reqs, a.config.Concurrency)

	successful := 0
	for i, outcome := range outcomes {
		if outcome.Fulfilled() {
			successful++
			a.printResult(outcome.Value)
			continue
		}
		fmt.Fprintf(a.outW, "Deployment %q failed: %v\n", reqs[i].ConfigName, outcome.Err)
	}
	fmt.Fprintf(a.outW, "Deployed: %d/%d\n", successful, len(outcomes))

	if successful != len(outcomes) {
		return fmt.Errorf("%d of %d deployments failed", len(outcomes)-successful, len(outcomes))
	}
	return nil
}

// printResult writes one deployment's outcome to the result stream.
func (a *App) printResult(result *deploy.Result) {
	var b strings.Builder
	action := "Updated"
	if result.IsNewProcess {
		action = "Spawned"
	}
	fmt.Fprintf(&b, "%s process %q\n", action, result.Name)
	fmt.Fprintf(&b, "  Process Id: %s\n", result.ProcessID)
	if result.MessageID != "" {
		fmt.Fprintf(&b, "  Message Id: %s\n", result.MessageID)
	}
	fmt.Fprint(a.outW, b.String())
}
