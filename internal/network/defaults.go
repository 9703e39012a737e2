package network

import (
	"context"
	"fmt"

	"github.com/pawanpaudel93/ao-deploy/internal/ctxlog"
)

// DefaultConfigURL publishes the network's current default code-template and
// ordering-service addresses.
const DefaultConfigURL = "https://raw.githubusercontent.com/permaweb/aos/main/package.json"

// Defaults holds the network-published default addresses a deployment falls
// back to when the caller does not supply its own.
type Defaults struct {
	Module       string
	SQLiteModule string
	Scheduler    string
	Authority    string
}

// ModuleFor selects the default code template, honoring the sqlite variant.
func (d *Defaults) ModuleFor(sqlite bool) string {
	if sqlite && d.SQLiteModule != "" {
		return d.SQLiteModule
	}
	return d.Module
}

// aosManifest is the shape of the published configuration document.
type aosManifest struct {
	AOS struct {
		Module    string `json:"module"`
		Scheduler string `json:"scheduler"`
		Authority string `json:"authority"`
		SQLite    struct {
			Module string `json:"module"`
		} `json:"sqlite"`
	} `json:"aos"`
}

// FetchDefaults returns the network defaults, fetching them at most once per
// client. Concurrent first calls may race to fetch; the document is
// deterministic, so whichever result lands is kept.
func (c *Client) FetchDefaults(ctx context.Context) (*Defaults, error) {
	c.mu.Lock()
	cached := c.defaults
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var manifest aosManifest
	// The raw file host serves text/plain, so force JSON decoding.
	res, err := c.http.R().
		SetContext(ctx).
		SetForceResponseContentType("application/json").
		SetResult(&manifest).
		Get(c.ConfigURL)
	if err != nil {
		return nil, fmt.Errorf("fetching network defaults: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("network defaults endpoint returned %s", res.Status())
	}
	if manifest.AOS.Module == "" || manifest.AOS.Scheduler == "" {
		return nil, fmt.Errorf("network defaults document is missing module or scheduler")
	}

	defaults := &Defaults{
		Module:       manifest.AOS.Module,
		SQLiteModule: manifest.AOS.SQLite.Module,
		Scheduler:    manifest.AOS.Scheduler,
		Authority:    manifest.AOS.Authority,
	}
	c.mu.Lock()
	c.defaults = defaults
	c.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Fetched network defaults.", "module", defaults.Module, "scheduler", defaults.Scheduler)
	return defaults, nil
}
