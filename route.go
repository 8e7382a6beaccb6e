package eximcheck

import (
	"regexp"
	"strings"
)

var (
	undeliverableRegex = regexp.MustCompile(`^(.*) is undeliverable(.*)$`)
	redirectRegex      = regexp.MustCompile(`^(.*?) -> (.*)$`)
	discardedRegex     = regexp.MustCompile(`^(.*) is discarded$`)
	originalRegex      = regexp.MustCompile(`^\s+<-- (.*)$`)
	routerRegex        = regexp.MustCompile(`^\s+router = ([^,\s]+), transport = (\S+)\s*$`)
	transportRegex     = regexp.MustCompile(`^\s+transport = (\S+)\s*$`)
)

// ParseRouteOutput converts the stdout of one exim -bt invocation into a
// RouteOutcome. success is the exit status of the invocation. The parser is
// permissive and never fails: unrecognized header lines count as bare
// deliverable addresses, unrecognized continuation lines are kept verbatim
// in Data.
//
// The "is undeliverable" pattern is matched before the deliverable patterns,
// matching exim's output grammar, and undeliverable records never consume
// continuation lines.
func ParseRouteOutput(success bool, lines []string) *RouteOutcome {
	out := &RouteOutcome{
		AllOK:     success,
		Addresses: make(map[string]*AddressResult),
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isContinuation(line) {
			// Continuation with no deliverable record to attach to.
			continue
		}

		if m := undeliverableRegex.FindStringSubmatch(line); m != nil {
			out.Undeliverable++
			out.Total++
			out.Addresses[m[1]] = &AddressResult{
				Address: m[1],
				Reason:  m[2],
			}
			continue
		}

		res := &AddressResult{OK: true}
		if m := redirectRegex.FindStringSubmatch(line); m != nil {
			res.Address = m[1]
			res.Target = m[2]
		} else if m := discardedRegex.FindStringSubmatch(line); m != nil {
			res.Address = m[1]
			res.Discarded = true
		} else {
			res.Address = line
		}
		out.Deliverable++
		out.Total++
		out.Addresses[res.Address] = res

		for i+1 < len(lines) && isContinuation(lines[i+1]) {
			i++
			cont := lines[i]
			if m := originalRegex.FindStringSubmatch(cont); m != nil {
				res.Original = append(res.Original, m[1])
			} else if m := routerRegex.FindStringSubmatch(cont); m != nil {
				res.Router = m[1]
				res.Transport = m[2]
			} else if m := transportRegex.FindStringSubmatch(cont); m != nil {
				res.Transport = m[1]
			} else {
				res.Data = append(res.Data, cont)
			}
		}
	}

	return out
}

func isContinuation(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}
