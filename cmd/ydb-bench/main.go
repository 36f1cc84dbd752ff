package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "init":
			initTables(os.Args[2:])
			return
		case "run":
			run(os.Args[2:])
			return
		}
	}
	log.Info("Usage:")
	log.Info("  ydb-bench init -dsn ... [-driver mysql|postgres] [-scale N] [-workers N] [flags]")
	log.Info("  ydb-bench run -dsn ... [-workers N] [-transactions N | -duration 1m] [-mode tpcb-like] [flags]")
	os.Exit(2)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
