package eximcheck

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFakeExim builds the fake-exim binary into a temp directory. It skips
// the test (rather than failing) on build error so a broken toolchain setup
// is distinguishable from broken harness logic.
func buildFakeExim(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "fake-exim")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/fake-exim")
	cmd.Dir = "."
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("build fake-exim: %v\n%s", err, out)
	}
	return binPath
}

func newFakeEximHarness(t *testing.T) *Harness {
	t.Helper()
	h, err := New(Config{Exim: EximConfig{
		Binary:  buildFakeExim(t),
		Sender:  "env@test.ex",
		Timeout: "30s",
	}})
	require.NoError(t, err)
	return h
}

func TestFakeEximRoutesPlainAddress(t *testing.T) {
	h := newFakeEximHarness(t)

	out, err := h.TestRoute(context.Background(), "userx@test.ex")
	require.NoError(t, err)
	assert.True(t, out.AllOK)
	assert.True(t, out.RoutesOK())

	res := out.Addresses["userx@test.ex"]
	require.NotNil(t, res)
	assert.Equal(t, "localuser", res.Router)
	assert.Equal(t, "local_delivery", res.Transport)
}

func TestFakeEximUndeliverable(t *testing.T) {
	h := newFakeEximHarness(t)

	out, err := h.TestRoute(context.Background(), "fail@test.ex")
	require.NoError(t, err)
	assert.False(t, out.AllOK)
	assert.True(t, out.IsUndeliverable())

	res := out.Addresses["fail@test.ex"]
	require.NotNil(t, res)
	assert.False(t, res.OK)
	assert.Equal(t, ": Unrouteable address", res.Reason)
}

func TestFakeEximDiscarded(t *testing.T) {
	h := newFakeEximHarness(t)

	out, err := h.TestRoute(context.Background(), "discard@test.ex")
	require.NoError(t, err)
	assert.True(t, out.IsDiscarded())
	assert.Equal(t, 1, out.Total)
}

func TestFakeEximFanOut(t *testing.T) {
	h := newFakeEximHarness(t)

	out, err := h.TestRoute(context.Background(), "multiple3@x")
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 3, out.Deliverable)

	for _, addr := range []string{"target1@x", "target2@x", "target3@x"} {
		res := out.Addresses[addr]
		require.NotNil(t, res, addr)
		assert.Equal(t, "local_delivery", res.Transport, addr)
		assert.Equal(t, []string{"multiple3@x"}, res.Original, addr)
	}

	ok := out.MatchesTargets([]TargetSpec{
		{Address: "target1@x", Router: "fanout"},
		{Address: "target2@x", Router: "fanout"},
		{Address: "target3@x", Router: "fanout"},
	})
	assert.True(t, ok)
}

func TestFakeEximPipeRedirect(t *testing.T) {
	h := newFakeEximHarness(t)

	out, err := h.TestRoute(context.Background(), "pipe@test.ex")
	require.NoError(t, err)
	res := out.Addresses["pipe@test.ex"]
	require.NotNil(t, res)
	assert.Equal(t, "|/usr/bin/vacation", res.Target)
	assert.Equal(t, "address_pipe", res.Transport)
}

func TestFakeEximCapabilities(t *testing.T) {
	h := newFakeEximHarness(t)
	ctx := context.Background()

	caps, err := h.Capabilities(ctx)
	require.NoError(t, err)
	assert.Contains(t, caps.Version, "Exim version")
	assert.True(t, caps.HasRouter("dnslookup"))
	assert.True(t, caps.HasTransport("maildir"))
	assert.True(t, caps.HasSupport("tls"))

	ok, err := h.HasRouter(ctx, "queryprogram")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFakeEximScriptEndToEnd(t *testing.T) {
	path := writeTempFile(t, "checks.toml", `
[[check]]
address = "userx@test.ex"
description = "plain local user"

[[check]]
address = "fail@test.ex"
expect = "undeliverable"

[[check]]
address = "discard@test.ex"
expect = "discarded"

[[check]]
address = "multiple2@x"
description = "fan-out to two targets"

[[check.target]]
address = "target1@x"
transport = "local_delivery"

[[check.target]]
address = "target2@x"
transport = "local_delivery"

[[check]]
address = "gated@test.ex"
require_router = "nonexistent_router"
`)

	script, err := LoadScript(path)
	require.NoError(t, err)

	h := newFakeEximHarness(t)
	var buf bytes.Buffer
	h.SetTAPWriter(&buf)

	failed, err := h.RunScript(context.Background(), &script)
	require.NoError(t, err)
	assert.Equal(t, 0, failed)

	output := buf.String()
	assert.Contains(t, output, "1..5")
	assert.Contains(t, output, "plain local user")
	assert.Contains(t, output, "# SKIP")
	assert.NotContains(t, output, "\nnot ok")
}
