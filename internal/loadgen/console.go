package loadgen

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/contentworkshop/studioload/internal/loadgen/metrics"
)

// Console prints live progress and the final per-task summary.
type Console struct {
	Out io.Writer
	// Quiet suppresses the live line; the final summary still prints.
	Quiet bool
	// Interval between live updates. Defaults to one second.
	Interval time.Duration

	headerColor *color.Color
	okColor     *color.Color
	failColor   *color.Color
}

// NewConsole creates a console writer. Colors are disabled when out is not
// a terminal.
func NewConsole(out io.Writer, quiet bool) *Console {
	if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		color.NoColor = true
	}
	return &Console{
		Out:         out,
		Quiet:       quiet,
		headerColor: color.New(color.FgCyan, color.Bold),
		okColor:     color.New(color.FgGreen),
		failColor:   color.New(color.FgRed),
	}
}

// Watch prints a live status line until ctx is cancelled.
func (c *Console) Watch(ctx context.Context, engine *metrics.Engine) {
	if c.Quiet {
		<-ctx.Done()
		return
	}
	interval := c.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := engine.Snapshot()
			fmt.Fprintf(c.Out, "[%s] users=%d iterations=%d failed=%d rate=%.1f/s p95=%s\n",
				s.Elapsed.Truncate(time.Second), s.ActiveUsers, s.Total, s.Failed,
				s.RatePerSec, s.Overall.P95.Truncate(time.Millisecond))
		}
	}
}

// Summary prints the final per-task report.
func (c *Console) Summary(s metrics.Summary) {
	c.headerColor.Fprintf(c.Out, "\nRun complete: %d iterations in %s (%.1f/s)\n",
		s.Total, s.Elapsed.Truncate(time.Second), s.RatePerSec)

	if s.Failed == 0 {
		c.okColor.Fprintf(c.Out, "All iterations succeeded\n")
	} else {
		c.failColor.Fprintf(c.Out, "%d failed iterations (%.1f%%)\n",
			s.Failed, 100*float64(s.Failed)/float64(max64(s.Total, 1)))
	}

	fmt.Fprintf(c.Out, "\n%-26s %8s %8s %10s %10s %10s %10s\n",
		"TASK", "COUNT", "FAILED", "P50", "P95", "P99", "MAX")
	for _, task := range s.Tasks {
		fmt.Fprintf(c.Out, "%-26s %8d %8d %10s %10s %10s %10s\n",
			task.Name, task.Count, task.Failed,
			fmtLatency(task.P50), fmtLatency(task.P95),
			fmtLatency(task.P99), fmtLatency(task.Max))
	}
	fmt.Fprintf(c.Out, "%-26s %8d %8d %10s %10s %10s %10s\n",
		"(overall)", s.Overall.Count, s.Overall.Failed,
		fmtLatency(s.Overall.P50), fmtLatency(s.Overall.P95),
		fmtLatency(s.Overall.P99), fmtLatency(s.Overall.Max))
}

func fmtLatency(d time.Duration) string {
	return d.Truncate(time.Millisecond).String()
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
