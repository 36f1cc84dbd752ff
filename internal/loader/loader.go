// Package loader creates and fills the pgbench tables for the init subcommand.
package loader

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/evgeniy-balashov/ydb-bench/internal/config"
	"github.com/evgeniy-balashov/ydb-bench/internal/dbx"
	"github.com/evgeniy-balashov/ydb-bench/internal/progress"
	"github.com/evgeniy-balashov/ydb-bench/internal/ranger"
	"github.com/evgeniy-balashov/ydb-bench/internal/util"
	"github.com/evgeniy-balashov/ydb-bench/internal/workload"
)

// PlannedRows is the number of rows init writes for scale branches.
func PlannedRows(scale int) uint64 {
	return uint64(scale) * (1 + workload.TellersPerBranch + workload.AccountsPerBranch)
}

func Run(ctx context.Context, db dbx.Execer, d dbx.Dialect, cfg config.InitConfig, counter *progress.Counter) error {
	if counter == nil {
		counter = &progress.Counter{}
	}

	if cfg.Drop {
		if err := dbx.DropTables(ctx, db); err != nil {
			return err
		}
	}
	if err := dbx.CreateTables(ctx, db); err != nil {
		return err
	}
	log.Infof("tables created (%s)", d)

	shards, err := Shards(cfg.Scale, cfg.Workers)
	if err != nil {
		return err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, sh := range shards {
		sh := sh // per-iteration copy (go 1.21 loop semantics)
		wid := i + 1
		g.Go(func() error {
			log.WithField("worker", wid).Debugf("loading branches %v", sh)
			if err := loadBranches(gctx, db, d, sh, cfg.Batch, counter); err != nil {
				return errors.Wrapf(err, "worker %d", wid)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Infof("loaded %s rows in %s", util.FormatNumber(counter.OK()), time.Since(start).Truncate(time.Second))
	return nil
}

// Shards splits [1, scale] over workers. When there are more workers than
// branches the duplicate singletons are dropped so each branch is loaded once.
func Shards(scale, workers int) ([]ranger.Range, error) {
	all, err := ranger.Split(1, int64(scale), workers)
	if err != nil {
		return nil, errors.Wrap(err, "split branches")
	}

	out := all[:0:0]
	for _, r := range all {
		if len(out) > 0 && out[len(out)-1] == r {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func loadBranches(ctx context.Context, db dbx.Execer, d dbx.Dialect, branches ranger.Range, batch int, counter *progress.Counter) error {
	tables := []struct {
		table   string
		columns []string
		ids     ranger.Range
		row     func(id int64) []any
	}{
		{
			dbx.TableBranches, []string{"bid", "bbalance"}, branches,
			func(bid int64) []any { return []any{bid, 0} },
		},
		{
			dbx.TableTellers, []string{"tid", "bid", "tbalance"}, workload.TellerRange(branches),
			func(tid int64) []any { return []any{tid, (tid-1)/workload.TellersPerBranch + 1, 0} },
		},
		{
			dbx.TableAccounts, []string{"aid", "bid", "abalance"}, workload.AccountRange(branches),
			func(aid int64) []any { return []any{aid, (aid-1)/workload.AccountsPerBranch + 1, 0} },
		},
	}

	for _, t := range tables {
		if err := insertBatched(ctx, db, d, t.table, t.columns, t.ids, batch, t.row, counter); err != nil {
			return err
		}
	}
	return nil
}

func insertBatched(
	ctx context.Context,
	db dbx.Execer,
	d dbx.Dialect,
	table string,
	columns []string,
	ids ranger.Range,
	batch int,
	row func(id int64) []any,
	counter *progress.Counter,
) error {
	rows := make([][]any, 0, batch)
	flush := func() error {
		if err := dbx.InsertRows(ctx, db, d, table, columns, rows); err != nil {
			return err
		}
		counter.Done(uint64(len(rows)))
		rows = rows[:0]
		return nil
	}

	for id := ids.From; id <= ids.To; id++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows = append(rows, row(id))
		if len(rows) == batch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
