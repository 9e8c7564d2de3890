package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockConfig = `
exchanges:
  enabled: [mock]
logging:
  level: error
  format: json
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMidPriceCommand(t *testing.T) {
	path := writeConfig(t, mockConfig)

	out, err := execute(t, "midprice", "mock", "--base", "btc", "--quote", "usd", "--config", path)
	require.NoError(t, err)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "65000", resp["price_str"])
}

func TestMidPriceCommand_Errors(t *testing.T) {
	path := writeConfig(t, mockConfig)

	_, err := execute(t, "midprice", "--config", path)
	assert.Error(t, err, "exchange argument is required")

	_, err = execute(t, "midprice", "mock", "--base", "BTC", "--quote", "BTC", "--config", path)
	assert.ErrorContains(t, err, "base and quote must differ")

	_, err = execute(t, "midprice", "mock", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestMidPriceCommand_InvalidConfig(t *testing.T) {
	path := writeConfig(t, mockConfig+"\ncache:\n  ttl: 0s\n")

	_, err := execute(t, "midprice", "mock", "--config", path)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "exapi-service dev")
}
