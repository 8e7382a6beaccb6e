package eximcheck

import (
	"errors"
	"fmt"
)

// Matches reports whether r satisfies every field set on the spec. Unset
// fields are not compared.
func (s *TargetSpec) Matches(r *AddressResult) bool {
	if s.Address != "" && s.Address != r.Address {
		return false
	}
	if s.Router != "" && s.Router != r.Router {
		return false
	}
	if s.Transport != "" && s.Transport != r.Transport {
		return false
	}
	if s.Target != "" && s.Target != r.Target {
		return false
	}
	if s.OK != nil && *s.OK != r.OK {
		return false
	}
	if s.Discarded != nil && *s.Discarded != r.Discarded {
		return false
	}
	return true
}

func (s *TargetSpec) isEmpty() bool {
	return s.Address == "" && s.Router == "" && s.Transport == "" &&
		s.Target == "" && s.OK == nil && s.Discarded == nil
}

// MatchesTargets reports whether the outcome has exactly as many addresses as
// there are specs and every spec is satisfied by at least one address.
func (o *RouteOutcome) MatchesTargets(specs []TargetSpec) bool {
	if len(o.Addresses) != len(specs) {
		return false
	}
	for i := range specs {
		matched := false
		for _, r := range o.Addresses {
			if specs[i].Matches(r) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// validateSpecs rejects malformed target-spec shapes before any invocation
// happens; these are caller usage errors, not test failures.
func validateSpecs(specs []TargetSpec) error {
	if len(specs) == 0 {
		return errors.New("at least one target spec is required")
	}
	for i := range specs {
		if specs[i].isEmpty() {
			return fmt.Errorf("target spec %d sets no fields to compare", i)
		}
	}
	return nil
}
