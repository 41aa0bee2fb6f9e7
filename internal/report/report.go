// Package report prints the progress lines of the command line tools.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
)

// Reporter times and prints the steps of a run.
type Reporter struct {
	out   io.Writer
	clock clockwork.Clock
	start time.Time
}

// New returns a Reporter writing to out. The run starts now.
func New(out io.Writer, clock clockwork.Clock) *Reporter {
	return &Reporter{out: out, clock: clock, start: clock.Now()}
}

// Step prints started, runs fn and prints done with the time fn took. Nothing
// but started is printed if fn fails.
func (r *Reporter) Step(started, done string, fn func() error) error {
	timer := r.clock.Now()
	fmt.Fprintln(r.out, "▶️  "+started)

	if err := fn(); err != nil {
		return err
	}

	fmt.Fprintln(r.out, "✔️  "+done+" in", r.clock.Since(timer).String())
	return nil
}

// Done prints a finished check without timing.
func (r *Reporter) Done(msg string) {
	fmt.Fprintln(r.out, "✔️  "+msg)
}

// Info prints an informational line.
func (r *Reporter) Info(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "ℹ️  "+format+"\n", args...)
}

// Finish prints the total run time.
func (r *Reporter) Finish() {
	fmt.Fprintf(r.out, "\n    🎉  Finished in %s\n", r.clock.Since(r.start).String())
}
