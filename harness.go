package eximcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tap "github.com/mndrix/tap-go"
	"github.com/sirupsen/logrus"
)

// Harness drives a single exim binary in its dry-run modes and reports
// routing expectations as TAP. One Harness owns one capability table; there
// is no process-wide state, so independent sessions never observe each
// other.
type Harness struct {
	cfg     Config
	log     *logrus.Logger
	tap     *tap.T
	invoker Invoker

	capState capState
	caps     *Capabilities

	// lastInv feeds the diagnostics attached to failed TAP points.
	lastInv *Invocation
}

// New creates a harness session for the configured exim binary. TAP output
// goes to stdout unless redirected with SetTAPWriter.
func New(cfg Config) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}
	h := &Harness{
		cfg: cfg,
		log: logger,
		tap: tap.New(),
	}
	h.invoker = &execInvoker{
		binary:  cfg.Exim.Binary,
		timeout: cfg.timeout(),
		log:     logger,
	}
	return h, nil
}

// SetTAPWriter redirects TAP output, e.g. into a buffer under test.
func (h *Harness) SetTAPWriter(w io.Writer) {
	h.tap.Writer = w
}

// Logger exposes the session logger so callers can adjust level or output.
func (h *Harness) Logger() *logrus.Logger {
	return h.log
}

// Plan declares the number of TAP points up front. Call either Plan before
// the first assertion or AutoPlan after the last one, not both.
func (h *Harness) Plan(n int) {
	h.tap.Header(n)
}

// AutoPlan emits the trailing plan line once all points have run.
func (h *Harness) AutoPlan() {
	h.tap.AutoPlan()
}

// LastInvocation returns the raw capture of the most recent exim run, or nil
// before the first run.
func (h *Harness) LastInvocation() *Invocation {
	return h.lastInv
}

// TestRoute runs exim -bt for one address and parses the outcome. The
// returned error is reserved for caller contract violations; invocation
// failures surface as AllOK=false with best-effort parsed output.
func (h *Harness) TestRoute(ctx context.Context, address string) (*RouteOutcome, error) {
	if strings.TrimSpace(address) == "" {
		return nil, errors.New("route test requires a non-empty address")
	}
	inv := h.invoker.Invoke(ctx, h.routeArgs(address)...)
	h.lastInv = inv
	return ParseRouteOutput(inv.Success, inv.Stdout), nil
}

func (h *Harness) routeArgs(address string) []string {
	var args []string
	if h.cfg.Exim.ConfigFile != "" {
		args = append(args, "-C"+h.cfg.Exim.ConfigFile)
	}
	args = append(args, "-bt")
	if h.cfg.Exim.Sender != "" {
		args = append(args, "-f", h.cfg.Exim.Sender)
	}
	return append(args, "--", address)
}

// Capabilities probes exim -bV on first use and caches the table for the
// lifetime of the session. A failed probe is also cached, so a broken config
// is reported consistently instead of being retried on every call.
func (h *Harness) Capabilities(ctx context.Context) (*Capabilities, error) {
	switch h.capState {
	case capsValid:
		return h.caps, nil
	case capsInvalid:
		return nil, errors.New("exim -bV probe failed; capability table unavailable")
	}

	var args []string
	if h.cfg.Exim.ConfigFile != "" {
		args = append(args, "-C"+h.cfg.Exim.ConfigFile)
	}
	args = append(args, "-bV")

	inv := h.invoker.Invoke(ctx, args...)
	h.lastInv = inv
	if !inv.Success {
		h.capState = capsInvalid
		return nil, fmt.Errorf("exim -bV exited with code %d", inv.ExitCode)
	}
	h.caps = ParseCapabilities(inv.Stdout)
	h.capState = capsValid
	return h.caps, nil
}

// HasSupport reports whether the binary was built with the named feature.
func (h *Harness) HasSupport(ctx context.Context, name string) (bool, error) {
	caps, err := h.Capabilities(ctx)
	if err != nil {
		return false, err
	}
	return caps.HasSupport(name), nil
}

// HasLookup reports whether the binary has the named lookup built in.
func (h *Harness) HasLookup(ctx context.Context, name string) (bool, error) {
	caps, err := h.Capabilities(ctx)
	if err != nil {
		return false, err
	}
	return caps.HasLookup(name), nil
}

// HasAuthenticator reports whether the binary has the named authenticator.
func (h *Harness) HasAuthenticator(ctx context.Context, name string) (bool, error) {
	caps, err := h.Capabilities(ctx)
	if err != nil {
		return false, err
	}
	return caps.HasAuthenticator(name), nil
}

// HasRouter reports whether the binary has the named router built in.
func (h *Harness) HasRouter(ctx context.Context, name string) (bool, error) {
	caps, err := h.Capabilities(ctx)
	if err != nil {
		return false, err
	}
	return caps.HasRouter(name), nil
}

// HasTransport reports whether the binary has the named transport built in.
func (h *Harness) HasTransport(ctx context.Context, name string) (bool, error) {
	caps, err := h.Capabilities(ctx)
	if err != nil {
		return false, err
	}
	return caps.HasTransport(name), nil
}

// AssertRoutes emits a TAP point that passes when the address routes to
// deliverable targets only.
func (h *Harness) AssertRoutes(ctx context.Context, address, description string) (bool, error) {
	out, err := h.TestRoute(ctx, address)
	if err != nil {
		return false, err
	}
	return h.report(out.RoutesOK(), description), nil
}

// AssertUndeliverable emits a TAP point that passes when the address is
// reported undeliverable.
func (h *Harness) AssertUndeliverable(ctx context.Context, address, description string) (bool, error) {
	out, err := h.TestRoute(ctx, address)
	if err != nil {
		return false, err
	}
	return h.report(out.IsUndeliverable(), description), nil
}

// AssertDiscarded emits a TAP point that passes when the address is a single
// delivery that the router explicitly discarded.
func (h *Harness) AssertDiscarded(ctx context.Context, address, description string) (bool, error) {
	out, err := h.TestRoute(ctx, address)
	if err != nil {
		return false, err
	}
	return h.report(out.IsDiscarded(), description), nil
}

// AssertTargets emits a TAP point that passes when the outcome matches the
// expected target specs exactly (same address count, every spec satisfied).
func (h *Harness) AssertTargets(ctx context.Context, address string, specs []TargetSpec, description string) (bool, error) {
	if err := validateSpecs(specs); err != nil {
		return false, err
	}
	out, err := h.TestRoute(ctx, address)
	if err != nil {
		return false, err
	}
	return h.report(out.MatchesTargets(specs), description), nil
}

func (h *Harness) report(ok bool, description string) bool {
	h.tap.Ok(ok, description)
	if !ok && h.lastInv != nil {
		h.tap.Diagnostic(fmt.Sprintf("exim exited with code %d", h.lastInv.ExitCode))
		for _, line := range h.lastInv.Combined {
			h.tap.Diagnostic(line)
		}
	}
	return ok
}
