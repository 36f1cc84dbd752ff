package progress

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/evgeniy-balashov/ydb-bench/internal/util"
)

// Counter is shared by all workers of a run.
type Counter struct {
	ok     atomic.Uint64
	failed atomic.Uint64
}

func (c *Counter) Done(n uint64) { c.ok.Add(n) }
func (c *Counter) Fail() { c.failed.Add(1) }
func (c *Counter) OK() uint64 { return c.ok.Load() }
func (c *Counter) Failed() uint64 { return c.failed.Load() }

type Reporter struct {
	counter *Counter
	unit    string
	planned uint64
	every   time.Duration
	start   time.Time
	inline  bool
	doneCh  chan struct{}
}

// New builds a reporter. planned is the expected total, 0 when unknown.
func New(counter *Counter, unit string, planned uint64, every time.Duration, inline bool) *Reporter {
	return &Reporter{
		counter: counter,
		unit:    unit,
		planned: planned,
		every:   every,
		start:   time.Now(),
		inline:  inline && isTerminal(),
		doneCh:  make(chan struct{}),
	}
}

func (r *Reporter) Start(ctx context.Context) {
	tkr := time.NewTicker(r.every)
	go func() {
		defer close(r.doneCh)
		defer tkr.Stop()

		for {
			select {
			case <-tkr.C:
				r.print(r.Line(time.Since(r.start)))
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Line renders the progress after elapsed time.
func (r *Reporter) Line(elapsed time.Duration) string {
	done := r.counter.OK()
	rate := float64(done) / math.Max(elapsed.Seconds(), 0.001)

	line := fmt.Sprintf("[PROGRESS] %s=%s (%.0f/s) failed=%s",
		r.unit, util.FormatNumber(done), rate, util.FormatNumber(r.counter.Failed()))

	if r.planned == 0 {
		return line
	}

	pct := math.Min(100.0*float64(done)/float64(r.planned), 100)
	eta := ""
	if rate > 0 {
		remain := math.Max(float64(r.planned)-float64(done), 0)
		eta = (time.Duration(remain/rate) * time.Second).Truncate(time.Second).String()
	}

	return fmt.Sprintf("%s %.1f%% ETA=%s", line, pct, eta)
}

func (r *Reporter) print(line string) {
	if r.inline {
		fmt.Fprintf(os.Stdout, "\r\033[2K%s", line)
		return
	}
	log.Info(line)
}

func (r *Reporter) WaitAndFinish() {
	<-r.doneCh
	if r.inline {
		fmt.Fprintln(os.Stdout)
	}
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
