package network

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"resty.dev/v3"

	"github.com/pawanpaudel93/ao-deploy/internal/ctxlog"
	"github.com/pawanpaudel93/ao-deploy/internal/wallet"
)

// Default service endpoints for the public AO testnet.
const (
	DefaultGatewayURL = "https://arweave.net"
	DefaultCuURL      = "https://cu.ao-testnet.xyz"
	DefaultMuURL      = "https://mu.ao-testnet.xyz"
)

// addressPattern matches a 43-character base64url network address.
var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{43}$`)

// IsAddress reports whether s is a well-formed on-network address.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// Services holds the endpoint URLs of the three network services the client
// talks to. Zero-value fields fall back to the public defaults.
type Services struct {
	GatewayURL string
	CuURL      string
	MuURL      string
}

// withDefaults fills empty fields with the public testnet endpoints.
func (s Services) withDefaults() Services {
	if s.GatewayURL == "" {
		s.GatewayURL = DefaultGatewayURL
	}
	if s.CuURL == "" {
		s.CuURL = DefaultCuURL
	}
	if s.MuURL == "" {
		s.MuURL = DefaultMuURL
	}
	return s
}

// custom reports whether any endpoint deviates from the public defaults.
func (s Services) custom() bool {
	return s.GatewayURL != DefaultGatewayURL || s.CuURL != DefaultCuURL || s.MuURL != DefaultMuURL
}

// Tag is one name/value pair attached to a spawn or message.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Client talks to the AO network services. It caches the fetched network
// defaults for its lifetime, so one instance should be shared by all
// deployments of a batch.
type Client struct {
	http     *resty.Client
	services Services

	// ConfigURL is where the network's default module/scheduler addresses
	// are published. Overridable for tests.
	ConfigURL string

	mu       sync.Mutex
	defaults *Defaults
}

// NewClient builds a client for the given service endpoints; zero-value
// fields select the public testnet.
func NewClient(services Services) *Client {
	services = services.withDefaults()
	http := resty.New().
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Client{
		http:      http,
		services:  services,
		ConfigURL: DefaultConfigURL,
	}
}

// Mode describes how the client was configured, for operator logs.
func (c *Client) Mode() string {
	if c.services.custom() {
		return "custom"
	}
	return "default"
}

// envelope is the signed unit submitted to the messenger service.
type envelope struct {
	Target    string `json:"target,omitempty"`
	Anchor    string `json:"anchor"`
	Tags      []Tag  `json:"tags"`
	Data      string `json:"data"`
	Owner     string `json:"owner"`
	Signature string `json:"signature"`
}

// SpawnRequest describes a new process to create.
type SpawnRequest struct {
	Module    string
	Scheduler string
	Tags      []Tag
	Data      string
	Signer    wallet.Signer
}

// Spawn creates a new process from a code template and returns its
// identifier.
func (c *Client) Spawn(ctx context.Context, req SpawnRequest) (string, error) {
	tags := append([]Tag{
		{Name: "Data-Protocol", Value: "ao"},
		{Name: "Variant", Value: "ao.TN.1"},
		{Name: "Type", Value: "Process"},
		{Name: "Module", Value: req.Module},
		{Name: "Scheduler", Value: req.Scheduler},
	}, req.Tags...)

	return c.submit(ctx, "", tags, req.Data, req.Signer)
}

// MessageRequest describes a message sent to an existing process.
type MessageRequest struct {
	Process string
	Tags    []Tag
	Data    string
	Signer  wallet.Signer
}

// Message sends a message to a process and returns the message identifier.
func (c *Client) Message(ctx context.Context, req MessageRequest) (string, error) {
	tags := append([]Tag{
		{Name: "Data-Protocol", Value: "ao"},
		{Name: "Variant", Value: "ao.TN.1"},
		{Name: "Type", Value: "Message"},
	}, req.Tags...)

	return c.submit(ctx, req.Process, tags, req.Data, req.Signer)
}

// submit signs and posts one envelope to the messenger service, returning
// the identifier the service assigned.
func (c *Client) submit(ctx context.Context, target string, tags []Tag, data string, signer wallet.Signer) (string, error) {
	env := envelope{
		Target: target,
		Tags:   tags,
		Data:   data,
		Owner:  signer.Address(),
	}

	payload, err := json.Marshal(struct {
		Target string `json:"target"`
		Anchor string `json:"anchor"`
		Tags   []Tag  `json:"tags"`
		Data   string `json:"data"`
	}{env.Target, env.Anchor, env.Tags, env.Data})
	if err != nil {
		return "", err
	}
	signature, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("signing request: %w", err)
	}
	env.Signature = base64.RawURLEncoding.EncodeToString(signature)

	var out struct {
		ID string `json:"id"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(env).
		SetResult(&out).
		Post(c.services.MuURL)
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("messenger service returned %s: %s", res.Status(), res.String())
	}
	ctxlog.FromContext(ctx).Debug("Envelope accepted by messenger.", "id", out.ID, "target", target)
	return out.ID, nil
}

// EvalResult is the outcome of one evaluation message as reported by the
// compute service.
type EvalResult struct {
	Output struct {
		Data json.RawMessage `json:"data"`
	} `json:"Output"`
	Error json.RawMessage `json:"Error"`
}

// FailurePayload extracts the application-level error carried by the result,
// or "" when the evaluation succeeded. Rich structured errors win over the
// plain output string; an empty-but-present output string is success.
func (r *EvalResult) FailurePayload() string {
	if s := rawToString(r.Error); s != "" {
		return s
	}
	// For evaluations, a failure can also surface as Output.data.output.
	var nested struct {
		Output json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(r.Output.Data, &nested); err == nil {
		return rawToString(nested.Output)
	}
	return ""
}

// rawToString renders a raw JSON value as a non-empty string, or "" for
// null, absent, or empty values.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Result fetches the evaluation outcome of a message from the compute
// service.
func (c *Client) Result(ctx context.Context, messageID, processID string) (*EvalResult, error) {
	var out EvalResult
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetQueryParam("process-id", processID).
		Get(c.services.CuURL + "/result/" + messageID)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("compute service returned %s: %s", res.Status(), res.String())
	}
	return &out, nil
}
