package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawanpaudel93/ao-deploy/internal/deploy"
)

// writeConfig persists an HCL snippet and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deploy.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullEntry(t *testing.T) {
	path := writeConfig(t, `
deployment "app" {
  name          = "my-app"
  contract_path = "src/main.lua"
  blueprints    = ["token"]
  cron          = "5-minutes"
  on_boot       = true
  minify        = true
  sqlite        = true
  force_spawn   = true
  lua_path      = "./libs/?.lua"
  wallet        = "./wallet.json"

  tags = {
    "X-App-Env" = "staging"
  }

  retry {
    count = 4
    delay = 500
  }

  services {
    gateway_url = "http://localhost:1984"
    cu_url      = "http://localhost:6363"
    mu_url      = "http://localhost:3004"
  }
}
`)

	batch, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"app"}, batch.Names)

	req := batch.Requests["app"]
	assert.Equal(t, "my-app", req.Name)
	assert.Equal(t, "app", req.ConfigName)
	assert.Equal(t, "src/main.lua", req.ContractPath)
	assert.Equal(t, []string{"token"}, req.Blueprints)
	assert.Equal(t, "5-minutes", req.Cron)
	assert.True(t, req.OnBoot)
	assert.True(t, req.Minify)
	assert.True(t, req.SQLite)
	assert.True(t, req.ForceSpawn)
	assert.Equal(t, "./libs/?.lua", req.LuaPath)
	assert.Equal(t, "./wallet.json", req.Wallet)
	assert.Equal(t, deploy.RetryPolicy{Count: 4, Delay: 500 * time.Millisecond}, req.Retry)
	assert.Equal(t, "http://localhost:1984", req.Services.GatewayURL)
	assert.Equal(t, "http://localhost:6363", req.Services.CuURL)
	assert.Equal(t, "http://localhost:3004", req.Services.MuURL)
	require.Len(t, req.Tags, 1)
	assert.Equal(t, "X-App-Env", req.Tags[0].Name)
	assert.Equal(t, "staging", req.Tags[0].Value)
}

func TestLoadNameDefaultsToConfigName(t *testing.T) {
	path := writeConfig(t, `
deployment "tictactoe" {
  contract_path = "game.lua"
}
`)
	batch, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tictactoe", batch.Requests["tictactoe"].Name)
}

func TestLoadRejectsEntryWithoutSource(t *testing.T) {
	path := writeConfig(t, `
deployment "empty" {
  name = "nope"
}
`)
	_, err := Load(path)
	var confErr *deploy.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoadBlueprintsOnlyEntryIsValid(t *testing.T) {
	path := writeConfig(t, `
deployment "bp" {
  blueprints = ["token", "chatroom"]
}
`)
	batch, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"token", "chatroom"}, batch.Requests["bp"].Blueprints)
}

func TestLoadRejectsDuplicateEntries(t *testing.T) {
	path := writeConfig(t, `
deployment "app" {
  contract_path = "a.lua"
}

deployment "app" {
  contract_path = "b.lua"
}
`)
	_, err := Load(path)
	var confErr *deploy.ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestLoadRejectsEmptyFile(t *testing.T) {
	path := writeConfig(t, "\n")
	_, err := Load(path)
	var confErr *deploy.ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestLoadRejectsNonStringTags(t *testing.T) {
	path := writeConfig(t, `
deployment "app" {
  contract_path = "a.lua"
  tags = {
    "Port" = 8080
  }
}
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestSelect(t *testing.T) {
	path := writeConfig(t, `
deployment "a" {
  contract_path = "a.lua"
}

deployment "b" {
  contract_path = "b.lua"
}

deployment "c" {
  contract_path = "c.lua"
}
`)
	batch, err := Load(path)
	require.NoError(t, err)

	t.Run("all entries in file order", func(t *testing.T) {
		reqs, err := batch.Select(nil)
		require.NoError(t, err)
		require.Len(t, reqs, 3)
		assert.Equal(t, "a", reqs[0].ConfigName)
		assert.Equal(t, "c", reqs[2].ConfigName)
	})

	t.Run("subset keeps file order", func(t *testing.T) {
		reqs, err := batch.Select([]string{"c", "a"})
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, "a", reqs[0].ConfigName)
		assert.Equal(t, "c", reqs[1].ConfigName)
	})

	t.Run("unknown name fails", func(t *testing.T) {
		_, err := batch.Select([]string{"nope"})
		var confErr *deploy.ConfigurationError
		require.ErrorAs(t, err, &confErr)
	})
}
