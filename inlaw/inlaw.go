// Package inlaw is a post-pipeline validation harness: checks run after
// the main pipeline, loudly complain, and never block. A failing check is
// reported, counted, and moved past; only the pipeline author decides what
// to do with the summary.
//
// A check has three outcomes, distinguished by its returned error:
//
//	nil              PASS
//	*FailError       FAIL  (the expectation did not hold)
//	any other error  ERROR (the check itself could not run)
package inlaw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/DSACMS/npd-plainerflow/engine"
)

// Check is one validation. Title is used in reports; Run returns nil on
// pass, a *FailError (via Fail/Failf) when the expectation does not hold,
// and any other error when the check itself broke.
type Check interface {
	Title() string
	Run(ctx context.Context, e *engine.Engine) error
}

// FailError marks an expectation failure, as opposed to a harness error.
type FailError struct {
	Msg string
}

func (e *FailError) Error() string { return e.Msg }

// Fail returns an expectation-failure error with the given message.
func Fail(msg string) error { return &FailError{Msg: msg} }

// Failf is Fail with formatting.
func Failf(format string, args ...any) error {
	return &FailError{Msg: fmt.Sprintf(format, args...)}
}

// IsFail reports whether err represents an expectation failure.
func IsFail(err error) bool {
	var fe *FailError
	return errors.As(err, &fe)
}

// CheckFunc adapts a function to the Check interface.
type CheckFunc struct {
	Name string
	Fn   func(ctx context.Context, e *engine.Engine) error
}

// Title returns the check's name.
func (c CheckFunc) Title() string { return c.Name }

// Run invokes the wrapped function.
func (c CheckFunc) Run(ctx context.Context, e *engine.Engine) error { return c.Fn(ctx, e) }

var (
	regMu    sync.Mutex
	registry []Check
)

// Register adds a check to the package-level registry consulted by RunAll.
// Typically called from init funcs in a pipeline's checks file.
func Register(c Check) {
	regMu.Lock()
	defer regMu.Unlock()
	registry = append(registry, c)
}

func registered() []Check {
	regMu.Lock()
	defer regMu.Unlock()
	return append([]Check(nil), registry...)
}

// Status values for Result.
const (
	StatusPass  = "PASS"
	StatusFail  = "FAIL"
	StatusError = "ERROR"
)

// Result records one check's outcome.
type Result struct {
	Title   string
	Status  string
	Message string // empty for PASS
}

// Summary aggregates a RunAll invocation.
type Summary struct {
	Passed  int
	Failed  int
	Errors  int
	Total   int
	Results []Result
}

// Options tunes RunAll.
type Options struct {
	// Out receives the human-readable report (default os.Stdout).
	Out io.Writer
	// Parallel > 1 runs checks concurrently with that limit. Output
	// order stays deterministic either way.
	Parallel int
}

const (
	ansiGreen = "\033[92m"
	ansiRed   = "\033[91m"
	ansiReset = "\033[0m"
)

// RunAll runs every registered check plus any passed explicitly, prints a
// per-check report and a summary, and returns the totals. It never returns
// an error and never aborts early: complaining loudly without blocking is
// the whole point.
func RunAll(ctx context.Context, e *engine.Engine, opts Options, extra ...Check) Summary {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	checks := append(registered(), extra...)

	fmt.Fprintln(out, "===== IN-LAW TESTS =====")
	if len(checks) == 0 {
		fmt.Fprintln(out, "No checks registered.")
		return Summary{}
	}

	results := make([]Result, len(checks))
	if opts.Parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Parallel)
		for i, c := range checks {
			i, c := i, c
			g.Go(func() error {
				results[i] = runOne(gctx, c, e)
				return nil
			})
		}
		_ = g.Wait() // workers never return errors; failures live in results
		for _, r := range results {
			fmt.Fprintf(out, "▶ Running: %s\n", r.Title)
			printResult(out, r)
		}
	} else {
		for i, c := range checks {
			fmt.Fprintf(out, "▶ Running: %s\n", c.Title())
			results[i] = runOne(ctx, c, e)
			printResult(out, results[i])
		}
	}

	s := Summary{Total: len(checks), Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		default:
			s.Errors++
		}
	}

	fmt.Fprintln(out, strings.Repeat("=", 44))
	fmt.Fprintln(out, summaryLine(s))
	return s
}

func runOne(ctx context.Context, c Check, e *engine.Engine) Result {
	err := c.Run(ctx, e)
	switch {
	case err == nil:
		return Result{Title: c.Title(), Status: StatusPass}
	case IsFail(err):
		return Result{Title: c.Title(), Status: StatusFail, Message: err.Error()}
	default:
		return Result{Title: c.Title(), Status: StatusError, Message: err.Error()}
	}
}

func printResult(out io.Writer, r Result) {
	switch r.Status {
	case StatusPass:
		fmt.Fprintln(out, ansiGreen+"✅ PASS"+ansiReset)
	case StatusFail:
		fmt.Fprintln(out, ansiRed+"❌ FAIL: "+r.Message+ansiReset)
	default:
		fmt.Fprintln(out, ansiRed+"💥 ERROR: "+r.Message+ansiReset)
	}
}

func summaryLine(s Summary) string {
	var parts []string
	if s.Passed > 0 {
		parts = append(parts, fmt.Sprintf("%d passed", s.Passed))
	}
	if s.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", s.Failed))
	}
	if s.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", s.Errors))
	}
	if len(parts) == 0 {
		return "Summary: No tests run"
	}
	return "Summary: " + strings.Join(parts, " · ")
}
