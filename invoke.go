package eximcheck

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Invoker runs the exim binary with the given arguments and captures its
// output. Implementations never return a Go error: a binary that cannot be
// started is reported as a failed Invocation so callers can still parse
// whatever partial output exists.
type Invoker interface {
	Invoke(ctx context.Context, args ...string) *Invocation
}

// execInvoker invokes a real binary with a cancellation-capable context
// deadline rather than an advisory timer.
type execInvoker struct {
	binary  string
	timeout time.Duration
	log     *logrus.Logger
}

func (e *execInvoker) Invoke(ctx context.Context, args ...string) *Invocation {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	var combined lockedBuffer

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdout = io.MultiWriter(&stdout, &combined)
	cmd.Stderr = io.MultiWriter(&stderr, &combined)

	err := cmd.Run()

	inv := &Invocation{
		Success:  err == nil,
		Stdout:   splitOutputLines(stdout.String()),
		Stderr:   splitOutputLines(stderr.String()),
		Combined: splitOutputLines(combined.String()),
	}
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			inv.ExitCode = ee.ExitCode()
		} else {
			// Start failure (binary missing, context canceled before exec).
			inv.ExitCode = -1
		}
		e.log.WithFields(logrus.Fields{
			"binary": e.binary,
			"args":   args,
			"exit":   inv.ExitCode,
		}).WithError(err).Debug("exim invocation failed")
	} else {
		e.log.WithFields(logrus.Fields{
			"binary": e.binary,
			"args":   args,
		}).Debug("exim invoked")
	}
	return inv
}

// lockedBuffer merges stdout and stderr writes in arrival order.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// splitOutputLines splits captured output into lines with no trailing
// newline characters, as the parser expects.
func splitOutputLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
