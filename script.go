package eximcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// CheckScript is a TOML test script: harness configuration plus an ordered
// list of routing checks.
type CheckScript struct {
	Exim   EximConfig `toml:"exim"`
	Log    LogConfig  `toml:"log"`
	Checks []Check    `toml:"check"`
}

// Check is one scripted routing expectation. When Targets are given they
// take precedence over Expect. RequireRouter and RequireTransport gate the
// check on the binary's capability table; a missing capability turns the
// point into a TAP skip instead of a failure.
type Check struct {
	Address          string       `toml:"address"`
	Expect           string       `toml:"expect"` // deliverable, undeliverable or discarded
	Description      string       `toml:"description"`
	RequireRouter    string       `toml:"require_router"`
	RequireTransport string       `toml:"require_transport"`
	Targets          []TargetSpec `toml:"target"`
}

// LoadScript reads and validates a TOML check script from path.
func LoadScript(path string) (CheckScript, error) {
	var s CheckScript
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return s, fmt.Errorf("failed to read script %s: %v", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid script %s: %v", path, err)
	}
	return s, nil
}

// Validate reports script usage errors before anything is invoked.
func (s *CheckScript) Validate() error {
	if len(s.Checks) == 0 {
		return fmt.Errorf("script defines no checks")
	}
	for i := range s.Checks {
		c := &s.Checks[i]
		if strings.TrimSpace(c.Address) == "" {
			return fmt.Errorf("check %d: address is required", i)
		}
		switch c.Expect {
		case "", "deliverable", "undeliverable", "discarded":
		default:
			return fmt.Errorf("check %d (%s): unknown expectation %q", i, c.Address, c.Expect)
		}
		if len(c.Targets) > 0 {
			if err := validateSpecs(c.Targets); err != nil {
				return fmt.Errorf("check %d (%s): %v", i, c.Address, err)
			}
		}
	}
	return nil
}

// RunScript executes every check in the script, one TAP point per check, and
// returns the number of failed points. The returned error is reserved for
// usage errors (bad script shape, unreadable capability table); those abort
// the run immediately.
func (h *Harness) RunScript(ctx context.Context, s *CheckScript) (int, error) {
	h.Plan(len(s.Checks))
	failed := 0
	for i := range s.Checks {
		ok, err := h.runCheck(ctx, &s.Checks[i])
		if err != nil {
			return failed, err
		}
		if !ok {
			failed++
		}
	}
	return failed, nil
}

func (h *Harness) runCheck(ctx context.Context, c *Check) (bool, error) {
	desc := c.Description
	if desc == "" {
		expect := c.Expect
		if expect == "" {
			expect = "deliverable"
		}
		desc = fmt.Sprintf("%s is %s", c.Address, expect)
	}

	if c.RequireRouter != "" {
		ok, err := h.HasRouter(ctx, c.RequireRouter)
		if err != nil {
			return false, err
		}
		if !ok {
			h.skip(desc, fmt.Sprintf("router %s not built in", c.RequireRouter))
			return true, nil
		}
	}
	if c.RequireTransport != "" {
		ok, err := h.HasTransport(ctx, c.RequireTransport)
		if err != nil {
			return false, err
		}
		if !ok {
			h.skip(desc, fmt.Sprintf("transport %s not built in", c.RequireTransport))
			return true, nil
		}
	}

	if len(c.Targets) > 0 {
		return h.AssertTargets(ctx, c.Address, c.Targets, desc)
	}
	switch c.Expect {
	case "", "deliverable":
		return h.AssertRoutes(ctx, c.Address, desc)
	case "undeliverable":
		return h.AssertUndeliverable(ctx, c.Address, desc)
	case "discarded":
		return h.AssertDiscarded(ctx, c.Address, desc)
	}
	return false, fmt.Errorf("check %q: unknown expectation %q", c.Address, c.Expect)
}

func (h *Harness) skip(description, reason string) {
	h.tap.Ok(true, fmt.Sprintf("%s # SKIP %s", description, reason))
}
