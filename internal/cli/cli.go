// Package cli turns command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pawanpaudel93/ao-deploy/internal/app"
	"github.com/pawanpaudel93/ao-deploy/internal/network"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// tagFlags collects repeatable --tag name:value flags.
type tagFlags []network.Tag

func (t *tagFlags) String() string {
	parts := make([]string, len(*t))
	for i, tag := range *t {
		parts[i] = tag.Name + ":" + tag.Value
	}
	return strings.Join(parts, ",")
}

func (t *tagFlags) Set(value string) error {
	name, tagValue, ok := strings.Cut(value, ":")
	if !ok || name == "" {
		return fmt.Errorf("tag must have the form name:value, got %q", value)
	}
	*t = append(*t, network.Tag{Name: name, Value: tagValue})
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("ao-deploy", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
ao-deploy - Deploy Lua contracts onto the AO compute network.

Usage:
  ao-deploy [options] SOURCE

Arguments:
  SOURCE
    Path to a Lua contract file, or to an .hcl deployment config file
    for batch mode.

Options:
`)
		flagSet.PrintDefaults()
	}

	// A .env file, when present, seeds the endpoint defaults below.
	_ = godotenv.Load()

	nameFlag := flagSet.String("name", "", "Logical process name. Defaults to 'default'.")
	processIDFlag := flagSet.String("process-id", "", "Deploy to this existing process, skipping lookup.")
	walletFlag := flagSet.String("wallet", "", "Path to a wallet JWK file. A wallet is generated when omitted.")
	moduleFlag := flagSet.String("module", "", "Code template address. Defaults to the network's published module.")
	schedulerFlag := flagSet.String("scheduler", "", "Ordering-service address. Defaults to the network's published scheduler.")
	blueprintsFlag := flagSet.String("blueprints", "", "Comma-separated blueprint names to prepend.")
	luaPathFlag := flagSet.String("lua-path", "", "Extra semicolon-delimited Lua search path for dependency resolution.")
	cronFlag := flagSet.String("cron", "", "Cron interval for the spawned process, e.g. '5-minutes'.")
	onBootFlag := flagSet.Bool("on-boot", false, "Deliver the source as the spawn payload instead of an Eval message.")
	minifyFlag := flagSet.Bool("minify", false, "Minify the bundled source before deploying.")
	sqliteFlag := flagSet.Bool("sqlite", false, "Use the sqlite code template variant.")
	forceSpawnFlag := flagSet.Bool("force-spawn", false, "Always spawn a new process, skipping the reuse lookup.")
	silentFlag := flagSet.Bool("silent", false, "Suppress per-deployment status logs.")
	gatewayFlag := flagSet.String("gateway-url", os.Getenv("AO_GATEWAY_URL"), "Gateway endpoint override.")
	cuFlag := flagSet.String("cu-url", os.Getenv("AO_CU_URL"), "Compute-unit endpoint override.")
	muFlag := flagSet.String("mu-url", os.Getenv("AO_MU_URL"), "Messenger-unit endpoint override.")
	retryCountFlag := flagSet.Int("retry-count", 10, "Attempts per network call.")
	retryDelayFlag := flagSet.Int("retry-delay", 3000, "Delay between attempts, in milliseconds.")
	deployFlag := flagSet.String("deploy", "", "Comma-separated config entry names to deploy in batch mode.")
	concurrencyFlag := flagSet.Int("concurrency", 5, "Concurrent deployments in batch mode.")
	buildOnlyFlag := flagSet.Bool("build-only", false, "Only build the bundle and write it to the output directory.")
	outDirFlag := flagSet.String("out-dir", "dist", "Output directory for --build-only.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	var tags tagFlags
	flagSet.Var(&tags, "tag", "Extra spawn tag as name:value. Repeatable.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" && *blueprintsFlag == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	cfg, err := app.NewConfig(app.Config{
		Path:      path,
		Name:      *nameFlag,
		ProcessID: *processIDFlag,
		Wallet:    *walletFlag,
		Module:    *moduleFlag,
		Scheduler: *schedulerFlag,
		Services: network.Services{
			GatewayURL: *gatewayFlag,
			CuURL:      *cuFlag,
			MuURL:      *muFlag,
		},
		Blueprints:  splitList(*blueprintsFlag),
		Tags:        tags,
		LuaPath:     *luaPathFlag,
		Cron:        *cronFlag,
		OnBoot:      *onBootFlag,
		Minify:      *minifyFlag,
		SQLite:      *sqliteFlag,
		ForceSpawn:  *forceSpawnFlag,
		Silent:      *silentFlag,
		RetryCount:  *retryCountFlag,
		RetryDelay:  time.Duration(*retryDelayFlag) * time.Millisecond,
		Deploy:      splitList(*deployFlag),
		Concurrency: *concurrencyFlag,
		BuildOnly:   *buildOnlyFlag,
		OutDir:      *outDirFlag,
		LogFormat:   strings.ToLower(*logFormatFlag),
		LogLevel:    strings.ToLower(*logLevelFlag),
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}

// splitList splits a comma-separated flag value, dropping empty elements.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
