package eximcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func outcomeWithRouters(routers ...string) *RouteOutcome {
	out := &RouteOutcome{AllOK: true, Addresses: make(map[string]*AddressResult)}
	for i, router := range routers {
		addr := string(rune('a'+i)) + "@test.ex"
		out.Addresses[addr] = &AddressResult{Address: addr, OK: true, Router: router}
		out.Deliverable++
		out.Total++
	}
	return out
}

func TestMatchesTargets(t *testing.T) {
	specs := []TargetSpec{{Router: "r1"}, {Router: "r2"}}

	tests := []struct {
		name    string
		outcome *RouteOutcome
		want    bool
	}{
		{"both routers present", outcomeWithRouters("r1", "r2"), true},
		{"reversed order", outcomeWithRouters("r2", "r1"), true},
		{"extra address", outcomeWithRouters("r1", "r2", "r3"), false},
		{"missing r2", outcomeWithRouters("r1", "r1"), false},
		{"too few addresses", outcomeWithRouters("r1"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.MatchesTargets(specs))
		})
	}
}

func TestTargetSpecMatches(t *testing.T) {
	res := &AddressResult{
		Address:   "target1@x",
		OK:        true,
		Router:    "fanout",
		Transport: "local_delivery",
		Target:    "c@d",
	}

	tests := []struct {
		name string
		spec TargetSpec
		want bool
	}{
		{"empty spec matches anything", TargetSpec{}, true},
		{"address", TargetSpec{Address: "target1@x"}, true},
		{"wrong address", TargetSpec{Address: "target2@x"}, false},
		{"router and transport", TargetSpec{Router: "fanout", Transport: "local_delivery"}, true},
		{"wrong transport", TargetSpec{Router: "fanout", Transport: "remote_smtp"}, false},
		{"target", TargetSpec{Target: "c@d"}, true},
		{"ok true", TargetSpec{OK: boolPtr(true)}, true},
		{"ok false", TargetSpec{OK: boolPtr(false)}, false},
		{"discarded false", TargetSpec{Discarded: boolPtr(false)}, true},
		{"discarded true", TargetSpec{Discarded: boolPtr(true)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.Matches(res))
		})
	}
}

func TestValidateSpecs(t *testing.T) {
	assert.Error(t, validateSpecs(nil))
	assert.Error(t, validateSpecs([]TargetSpec{{}}))
	assert.Error(t, validateSpecs([]TargetSpec{{Router: "r1"}, {}}))
	assert.NoError(t, validateSpecs([]TargetSpec{{Router: "r1"}}))
	assert.NoError(t, validateSpecs([]TargetSpec{{Discarded: boolPtr(true)}}))
}
