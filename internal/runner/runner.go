package runner

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/evgeniy-balashov/ydb-bench/internal/progress"
	"github.com/evgeniy-balashov/ydb-bench/internal/ranger"
)

// A worker gives up after this many failed transactions in a row.
const maxConsecutiveFailures = 100

// Script runs a single transaction against ids drawn from branches.
type Script interface {
	Exec(ctx context.Context, rng *rand.Rand, branches ranger.Range) error
}

type Options struct {
	Workers      int
	Transactions int
	Duration     time.Duration
	Seed         int64
	Counter      *progress.Counter
}

type workerResult struct {
	branches  ranger.Range
	latencies []time.Duration
	failed    uint64
}

// Run splits branches over opts.Workers and drives one goroutine per sub-range.
// A positive opts.Duration takes precedence over opts.Transactions.
func Run(ctx context.Context, script Script, branches ranger.Range, opts Options) (Summary, error) {
	shards, err := ranger.Split(branches.From, branches.To, opts.Workers)
	if err != nil {
		return Summary{}, errors.Wrapf(err, "split branches %v over %d workers", branches, opts.Workers)
	}

	counter := opts.Counter
	if counter == nil {
		counter = &progress.Counter{}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	runCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	results := make([]workerResult, len(shards))
	g, gctx := errgroup.WithContext(runCtx)
	start := time.Now()

	for i, sh := range shards {
		wid := i + 1
		res := &results[i]
		res.branches = sh
		rng := rand.New(rand.NewSource(seed + int64(i)))

		g.Go(func() error {
			return runWorker(gctx, wid, script, rng, opts, counter, res)
		})
	}

	err = g.Wait()
	sum, serr := summarize(results, time.Since(start))
	if err != nil {
		return sum, err
	}
	if serr != nil {
		return sum, serr
	}
	if ctx.Err() != nil {
		return sum, errors.Wrap(ctx.Err(), "run interrupted")
	}

	return sum, nil
}

func runWorker(
	ctx context.Context,
	wid int,
	script Script,
	rng *rand.Rand,
	opts Options,
	counter *progress.Counter,
	res *workerResult,
) error {
	wlog := log.WithField("worker", wid)
	wlog.Debugf("branches %v", res.branches)

	consecutive := 0
	for n := 0; opts.Duration > 0 || n < opts.Transactions; n++ {
		if ctx.Err() != nil {
			return nil
		}

		t0 := time.Now()
		err := script.Exec(ctx, rng, res.branches)
		lat := time.Since(t0)

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			res.failed++
			counter.Fail()
			consecutive++
			wlog.Debugf("transaction failed: %v", err)
			if consecutive >= maxConsecutiveFailures {
				return errors.Wrapf(err, "worker %d: %d consecutive failures", wid, consecutive)
			}
			continue
		}

		consecutive = 0
		res.latencies = append(res.latencies, lat)
		counter.Done(1)
	}

	return nil
}
