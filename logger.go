package hestonmc

import (
	"fmt"
	"io"
	"strings"
)

// Logger accumulates McPrice's per-run diagnostics and writes them to
// Output once the run finishes. Unlike a generic formatted-string logger,
// each call records one specific piece of the driver's state, so a reader
// of the flushed output always sees the same fields in the same order
// regardless of how many batches or control-variate pilots ran.
type Logger struct {
	Output io.Writer
	buff   strings.Builder
}

// NewLogger returns a Logger writing to w.
func NewLogger(w io.Writer) Logger {
	return Logger{Output: w}
}

// logControlVariate records the pilot run's estimated variance-reduction
// coefficient.
func (log *Logger) logControlVariate(iterations int, theta float64) {
	fmt.Fprintf(&log.buff, "control variate: pilot_iterations=%d theta=%g\n", iterations, theta)
}

// logBatch records one simulated batch's effect on the running estimate.
func (log *Logger) logBatch(iter, pathsUsed int, mean, halfWidth float64) {
	fmt.Fprintf(&log.buff, "batch %d: paths_used=%d mean=%g half_width=%g\n", iter, pathsUsed, mean, halfWidth)
}

// logResult records the driver's terminal state.
func (log *Logger) logResult(r Result) {
	fmt.Fprintf(&log.buff, "result: iterations=%d paths_used=%d price=%g half_width=%g\n",
		r.Iterations, r.PathsUsed, r.Price, r.HalfWidth)
}

func (log *Logger) flush() {
	log.Output.Write([]byte(log.buff.String()))
	log.buff.Reset()
}
