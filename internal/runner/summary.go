package runner

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/evgeniy-balashov/ydb-bench/internal/ranger"
	"github.com/evgeniy-balashov/ydb-bench/internal/util"
)

type Latency struct {
	Mean, P50, P95, P99, Max time.Duration
}

type WorkerSummary struct {
	Branches     ranger.Range
	Transactions uint64
	Failed       uint64
}

type Summary struct {
	Workers      []WorkerSummary
	Transactions uint64
	Failed       uint64
	Elapsed      time.Duration
	TPS          float64
	Latency      Latency
}

func summarize(results []workerResult, elapsed time.Duration) (Summary, error) {
	s := Summary{Elapsed: elapsed, Workers: make([]WorkerSummary, 0, len(results))}

	var samples stats.Float64Data
	for _, r := range results {
		s.Workers = append(s.Workers, WorkerSummary{
			Branches:     r.branches,
			Transactions: uint64(len(r.latencies)),
			Failed:       r.failed,
		})
		s.Transactions += uint64(len(r.latencies))
		s.Failed += r.failed
		for _, l := range r.latencies {
			samples = append(samples, float64(l))
		}
	}

	s.TPS = float64(s.Transactions) / math.Max(elapsed.Seconds(), 0.0001)

	if len(samples) == 0 {
		return s, nil
	}

	lat, err := latencyOf(samples)
	if err != nil {
		return s, errors.Wrap(err, "latency stats")
	}
	s.Latency = lat

	return s, nil
}

func latencyOf(samples stats.Float64Data) (Latency, error) {
	var l Latency

	mean, err := stats.Mean(samples)
	if err != nil {
		return l, err
	}
	max, err := stats.Max(samples)
	if err != nil {
		return l, err
	}

	pcts := []struct {
		p   float64
		dst *time.Duration
	}{{50, &l.P50}, {95, &l.P95}, {99, &l.P99}}
	for _, pc := range pcts {
		v, err := stats.Percentile(samples, pc.p)
		if err != nil {
			return l, errors.Wrapf(err, "p%.0f", pc.p)
		}
		*pc.dst = time.Duration(v)
	}

	l.Mean = time.Duration(mean)
	l.Max = time.Duration(max)

	return l, nil
}

// Report renders the summary as log lines.
func (s Summary) Report() []string {
	ms := util.FormatMillis

	return []string{
		"------------------------------------------------------------",
		fmt.Sprintf("[STATS] workers: %d", len(s.Workers)),
		fmt.Sprintf("[STATS] transactions: %s (failed: %s)", util.FormatNumber(s.Transactions), util.FormatNumber(s.Failed)),
		fmt.Sprintf("[STATS] elapsed: %s", s.Elapsed.Truncate(time.Millisecond)),
		fmt.Sprintf("[STATS] tps: %.2f", s.TPS),
		fmt.Sprintf("[STATS] latency avg: %s p50: %s p95: %s p99: %s max: %s",
			ms(s.Latency.Mean), ms(s.Latency.P50), ms(s.Latency.P95), ms(s.Latency.P99), ms(s.Latency.Max)),
		"------------------------------------------------------------",
	}
}

func (s Summary) Log() {
	for _, w := range s.Workers {
		log.Debugf("[STATS] branches %v: %d ok, %d failed", w.Branches, w.Transactions, w.Failed)
	}
	for _, line := range s.Report() {
		log.Info(line)
	}
}
