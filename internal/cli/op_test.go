// Package cli — op_test.go covers the --param flag value and the bare
// value binding rules of the op command.
package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohanChane/cmdbridge/internal/bridge"
	"github.com/JohanChane/cmdbridge/internal/cache"
	"github.com/JohanChane/cmdbridge/internal/config"
	"github.com/JohanChane/cmdbridge/internal/model"
)

// multiParamBridge builds a bridge over a domain whose operation takes
// two parameters, which the starter configuration never needs.
func multiParamBridge(t *testing.T) *bridge.Bridge {
	t.Helper()

	snap := &config.Snapshot{
		Global: config.Global{DefaultDomain: "net", DefaultGroup: "curl"},
		Domains: map[string]*config.Domain{
			"net": {
				Name: "net",
				Interface: map[string]model.Operation{
					"fetch": {Name: "fetch", Params: []string{"url", "out"}},
				},
				Groups: map[string]*config.Group{},
			},
		},
	}

	logger := slog.New(slog.DiscardHandler)
	c, err := cache.Build(context.Background(), snap, logger)
	require.NoError(t, err)
	return bridge.New(snap, c, logger)
}

// --- paramValues ---

// TestParamValues covers parsing, accumulation, and rendering of
// repeated --param flags.
func TestParamValues(t *testing.T) {
	var p paramValues

	require.NoError(t, p.Set("pkgs=vim"))
	require.NoError(t, p.Set("pkgs=git"))
	require.NoError(t, p.Set("query=editor"))

	assert.Equal(t, map[string][]string{
		"pkgs":  {"vim", "git"},
		"query": {"editor"},
	}, p.values)
	assert.Equal(t, "pkgs=vim,pkgs=git,query=editor", p.String())
	assert.Equal(t, "name=value", p.Type())
}

func TestParamValuesRejectsMalformed(t *testing.T) {
	var p paramValues

	assert.ErrorContains(t, p.Set("no-separator"), "expected name=value")
	assert.ErrorContains(t, p.Set("=orphan"), "expected name=value")
	assert.Empty(t, p.values)
}

func TestParamValuesEmptyString(t *testing.T) {
	var p paramValues
	assert.Empty(t, p.String())
}

// --- bindValues ---

// TestBindValues walks the binding rules against the starter domain:
// bare values attach to the operation's only parameter, explicit
// bindings pass through, and parameterless operations reject values.
func TestBindValues(t *testing.T) {
	seedConfig(t)
	b, err := openBridge(context.Background())
	require.NoError(t, err)

	t.Run("bare values bind the only parameter", func(t *testing.T) {
		flags := &opFlags{}
		params, err := bindValues(b, flags, "install_remote", []string{"vim", "git"})
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{"pkgs": {"vim", "git"}}, params)
	})

	t.Run("no values passes explicit bindings through", func(t *testing.T) {
		flags := &opFlags{params: paramValues{values: map[string][]string{"query": {"editor"}}}}
		params, err := bindValues(b, flags, "search_remote", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{"query": {"editor"}}, params)
	})

	t.Run("parameterless operation rejects values", func(t *testing.T) {
		flags := &opFlags{}
		_, err := bindValues(b, flags, "update_index", []string{"now"})
		assert.ErrorContains(t, err, "takes no parameters")
	})

	t.Run("unknown operation", func(t *testing.T) {
		flags := &opFlags{}
		_, err := bindValues(b, flags, "install_remot", []string{"vim"})
		require.Error(t, err)
		assert.ErrorContains(t, err, `did you mean "install_remote"?`)
	})
}

// TestBindValuesMultiParam covers the two-parameter cases: bare values
// are ambiguous unless exactly one parameter is left unbound.
func TestBindValuesMultiParam(t *testing.T) {
	b := multiParamBridge(t)

	t.Run("ambiguous without explicit bindings", func(t *testing.T) {
		flags := &opFlags{}
		_, err := bindValues(b, flags, "fetch", []string{"https://example.com"})
		require.Error(t, err)
		assert.ErrorContains(t, err, "ambiguous")
		assert.ErrorContains(t, err, "--param name=value")
	})

	t.Run("bare values fill the single unbound parameter", func(t *testing.T) {
		flags := &opFlags{params: paramValues{values: map[string][]string{"url": {"https://example.com"}}}}
		params, err := bindValues(b, flags, "fetch", []string{"page.html"})
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{
			"url": {"https://example.com"},
			"out": {"page.html"},
		}, params)
	})
}
