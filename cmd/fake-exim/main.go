// fake-exim simulates the small slice of exim's command-line surface that
// the harness drives: -bt address testing and -bV capability reporting. It
// exists so the harness can test itself without a real exim install.
//
// Routing is simulated by local-part convention:
//
//	fail*      undeliverable, overall exit code 2
//	discard*   discarded by the router
//	multipleN  fans out to targetK@<domain> for K in 1..N
//	pipe*      redirected to a pipe command
//	alias*     rewritten to other@<domain>
//	(default)  deliverable via localuser/local_delivery
package main

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var multipleRegex = regexp.MustCompile(`^multiple([1-9])$`)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		addressTest bool
		version     bool
		addresses   []string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			addresses = append(addresses, args[i+1:]...)
			i = len(args)
		case arg == "-bt":
			addressTest = true
		case arg == "-bV":
			version = true
		case arg == "-f":
			i++ // envelope sender, accepted and ignored
		case strings.HasPrefix(arg, "-C"):
			if arg == "-C" {
				i++ // config path as separate argument
			}
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(stderr, "fake-exim: unknown option %s\n", arg)
			return 1
		default:
			addresses = append(addresses, arg)
		}
	}

	switch {
	case version:
		printVersion(stdout)
		return 0
	case addressTest:
		return testAddresses(stdout, stderr, addresses)
	}
	fmt.Fprintln(stderr, "usage: fake-exim [-C config] [-f sender] -bt|-bV [--] address ...")
	return 1
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, "Exim version 4.97 #2 built 29-Aug-2026 10:21:45")
	fmt.Fprintln(w, "Copyright (c) University of Cambridge, 1995 - 2018")
	fmt.Fprintln(w, "Support for: crypteq iconv() IPv6 TLS")
	fmt.Fprintln(w, "Lookups (built-in): lsearch wildlsearch nwildlsearch iplsearch dbm dbmjz dbmnz")
	fmt.Fprintln(w, "Authenticators: cram_md5 plaintext")
	fmt.Fprintln(w, "Routers: accept dnslookup ipliteral manualroute queryprogram redirect")
	fmt.Fprintln(w, "Transports: appendfile/maildir autoreply lmtp pipe smtp")
	fmt.Fprintln(w, "Configuration file is /etc/exim/exim.conf")
}

func testAddresses(stdout, stderr io.Writer, addresses []string) int {
	if len(addresses) == 0 {
		fmt.Fprintln(stderr, "fake-exim: -bt requires at least one address")
		return 1
	}
	exit := 0
	for _, addr := range addresses {
		if !routeAddress(stdout, addr) {
			exit = 2
		}
	}
	return exit
}

func routeAddress(w io.Writer, addr string) bool {
	local, domain := splitAddress(addr)
	if domain == "" {
		domain = "localhost"
	}

	switch {
	case strings.HasPrefix(local, "fail"):
		fmt.Fprintf(w, "%s is undeliverable: Unrouteable address\n", addr)
		return false
	case strings.HasPrefix(local, "discard"):
		fmt.Fprintf(w, "%s is discarded\n", addr)
	case multipleRegex.MatchString(local):
		n, _ := strconv.Atoi(multipleRegex.FindStringSubmatch(local)[1])
		for k := 1; k <= n; k++ {
			fmt.Fprintf(w, "target%d@%s\n", k, domain)
			fmt.Fprintf(w, "    <-- %s\n", addr)
			fmt.Fprintf(w, "  router = fanout, transport = local_delivery\n")
		}
	case strings.HasPrefix(local, "pipe"):
		fmt.Fprintf(w, "%s -> |/usr/bin/vacation\n", addr)
		fmt.Fprintf(w, "  router = userforward, transport = address_pipe\n")
	case strings.HasPrefix(local, "alias"):
		fmt.Fprintf(w, "other@%s\n", domain)
		fmt.Fprintf(w, "    <-- %s\n", addr)
		fmt.Fprintf(w, "  router = system_aliases, transport = local_delivery\n")
	default:
		fmt.Fprintf(w, "%s\n", addr)
		fmt.Fprintf(w, "  router = localuser, transport = local_delivery\n")
	}
	return true
}

func splitAddress(addr string) (local, domain string) {
	parts := strings.SplitN(addr, "@", 2)
	local = parts[0]
	if len(parts) > 1 {
		domain = parts[1]
	}
	return
}
