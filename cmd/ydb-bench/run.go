package main

import (
	"context"
	"database/sql"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/evgeniy-balashov/ydb-bench/internal/config"
	"github.com/evgeniy-balashov/ydb-bench/internal/dbx"
	"github.com/evgeniy-balashov/ydb-bench/internal/progress"
	"github.com/evgeniy-balashov/ydb-bench/internal/runner"
	"github.com/evgeniy-balashov/ydb-bench/internal/util"
	"github.com/evgeniy-balashov/ydb-bench/internal/workload"
)

const progressEvery = 5 * time.Second

func run(args []string) {
	cfg, err := config.ParseRunConfig(args)
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	log.SetLevel(level)

	ctx, cancel := signalContext()
	defer cancel()

	dialect, err := dbx.ParseDialect(cfg.Driver)
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	mode, err := workload.ParseMode(cfg.Mode)
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	db, err := dbx.Open(ctx, dialect, cfg.DSN, cfg.Workers)
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	defer db.Close()

	if err := bench(ctx, db, dialect, mode, cfg); err != nil {
		db.Close()
		log.Fatalf("run: %v", err)
	}
}

func bench(ctx context.Context, db *sql.DB, dialect dbx.Dialect, mode workload.Mode, cfg config.RunConfig) error {
	branches, err := dbx.BranchRange(ctx, db)
	if err != nil {
		return err
	}
	log.Infof("branch range: [%s..%s], workers: %d, mode: %s",
		util.FormatInt(branches.From), util.FormatInt(branches.To), cfg.Workers, mode)

	counter := &progress.Counter{}
	var prog *progress.Reporter
	progCtx, stopProgress := context.WithCancel(ctx)
	defer stopProgress()
	if cfg.ProgressEvery > 0 {
		planned := uint64(0)
		if cfg.Duration == 0 {
			planned = uint64(cfg.Workers) * uint64(cfg.Transactions)
		}
		prog = progress.New(counter, "tx", planned, cfg.ProgressEvery, cfg.ProgressInline)
		prog.Start(progCtx)
	}

	sum, err := runner.Run(ctx, workload.New(db, dialect, mode), branches, runner.Options{
		Workers:      cfg.Workers,
		Transactions: cfg.Transactions,
		Duration:     cfg.Duration,
		Seed:         cfg.Seed,
		Counter:      counter,
	})

	stopProgress()
	if prog != nil {
		prog.WaitAndFinish()
	}

	if len(sum.Workers) > 0 {
		sum.Log()
	}
	return err
}
