package main

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/evgeniy-balashov/ydb-bench/internal/config"
	"github.com/evgeniy-balashov/ydb-bench/internal/dbx"
	"github.com/evgeniy-balashov/ydb-bench/internal/loader"
	"github.com/evgeniy-balashov/ydb-bench/internal/progress"
)

func initTables(args []string) {
	cfg, err := config.ParseInitConfig(args)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	dialect, err := dbx.ParseDialect(cfg.Driver)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	db, err := dbx.Open(ctx, dialect, cfg.DSN, cfg.Workers)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer db.Close()
	log.Infof("connected to %s", dialect)

	counter := &progress.Counter{}
	prog := progress.New(counter, "rows", loader.PlannedRows(cfg.Scale), progressEvery, true)
	progCtx, stopProgress := context.WithCancel(ctx)
	prog.Start(progCtx)

	err = loader.Run(ctx, db, dialect, cfg, counter)
	stopProgress()
	prog.WaitAndFinish()

	if err != nil {
		db.Close()
		log.Fatalf("init: %v", err)
	}
}
