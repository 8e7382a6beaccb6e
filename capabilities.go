package eximcheck

import (
	"regexp"
	"strings"
)

// capState tracks the lifecycle of a session's capability table, keeping
// "haven't probed yet" distinct from "probed and failed".
type capState int

const (
	capsUninitialized capState = iota
	capsInvalid
	capsValid
)

var (
	capLineRegex  = regexp.MustCompile(`(?i)^(support for|lookups|authenticators|routers|transports)\b[^:]*:(.*)$`)
	capTokenStrip = regexp.MustCompile(`[^a-z0-9_/ ]`)
)

// ParseCapabilities builds the feature table from exim -bV output. Category
// headers are matched case-insensitively and may carry qualifiers before the
// colon, as in "Lookups (built-in):". Tokens are lowercased, stripped of
// punctuation and split on whitespace or "/".
func ParseCapabilities(lines []string) *Capabilities {
	caps := &Capabilities{
		Support:        make(map[string]bool),
		Lookups:        make(map[string]bool),
		Authenticators: make(map[string]bool),
		Routers:        make(map[string]bool),
		Transports:     make(map[string]bool),
	}

	for _, line := range lines {
		if caps.Version == "" && strings.HasPrefix(line, "Exim version") {
			caps.Version = strings.TrimSpace(line)
			continue
		}
		m := capLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		set := caps.setFor(strings.ToLower(m[1]))
		if set == nil {
			continue
		}
		raw := capTokenStrip.ReplaceAllString(strings.ToLower(m[2]), "")
		for _, tok := range strings.FieldsFunc(raw, func(r rune) bool {
			return r == ' ' || r == '/'
		}) {
			set[tok] = true
		}
	}

	return caps
}

func (c *Capabilities) setFor(category string) map[string]bool {
	switch category {
	case "support for":
		return c.Support
	case "lookups":
		return c.Lookups
	case "authenticators":
		return c.Authenticators
	case "routers":
		return c.Routers
	case "transports":
		return c.Transports
	}
	return nil
}

// HasSupport reports whether the named build-time feature is present.
func (c *Capabilities) HasSupport(name string) bool {
	return c.Support[strings.ToLower(name)]
}

// HasLookup reports whether the named lookup type is built in.
func (c *Capabilities) HasLookup(name string) bool {
	return c.Lookups[strings.ToLower(name)]
}

// HasAuthenticator reports whether the named authenticator is built in.
func (c *Capabilities) HasAuthenticator(name string) bool {
	return c.Authenticators[strings.ToLower(name)]
}

// HasRouter reports whether the named router is built in.
func (c *Capabilities) HasRouter(name string) bool {
	return c.Routers[strings.ToLower(name)]
}

// HasTransport reports whether the named transport is built in.
func (c *Capabilities) HasTransport(name string) bool {
	return c.Transports[strings.ToLower(name)]
}
