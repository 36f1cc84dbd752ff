package config

import (
	"flag"
	"runtime"
	"time"

	"github.com/pkg/errors"
)

const (
	maxInitWorkers = 100
	maxRunWorkers  = 1000
	maxBatch       = 10_000
)

// Connection is shared by every subcommand that talks to the database.
type Connection struct {
	Driver string
	DSN    string
}

func (c *Connection) register(fs *flag.FlagSet) {
	fs.StringVar(&c.Driver, "driver", "mysql", "Database driver: mysql or postgres")
	fs.StringVar(&c.DSN, "dsn", "", "Database DSN (required)")
}

func (c Connection) validate() error {
	if c.DSN == "" {
		return errors.New("dsn is required")
	}
	if c.Driver != "mysql" && c.Driver != "postgres" {
		return errors.Errorf("unknown driver %q (want mysql or postgres)", c.Driver)
	}
	return nil
}

type InitConfig struct {
	Connection

	Scale   int
	Workers int
	Batch   int
	Drop    bool
}

func ParseInitConfig(args []string) (InitConfig, error) {
	fs := newFlagSet("init")
	var c InitConfig

	c.Connection.register(fs)
	fs.IntVar(&c.Scale, "scale", 1, "Number of branches to create (scale factor)")
	fs.IntVar(&c.Workers, "workers", runtime.NumCPU(), "Parallel loader workers")
	fs.IntVar(&c.Batch, "batch", 1000, "Rows per INSERT statement")
	fs.BoolVar(&c.Drop, "drop", true, "Drop existing tables before creating them")

	if err := fs.Parse(args); err != nil {
		return c, errors.Wrap(err, "parse init flags")
	}

	return c, c.Validate()
}

func (c InitConfig) Validate() error {
	if err := c.Connection.validate(); err != nil {
		return err
	}
	if c.Scale < 1 {
		return errors.New("scale must be at least 1")
	}
	if c.Workers < 1 || c.Workers > maxInitWorkers {
		return errors.Errorf("workers must be between 1 and %d, got %d", maxInitWorkers, c.Workers)
	}
	if c.Batch < 1 || c.Batch > maxBatch {
		return errors.Errorf("batch must be between 1 and %d, got %d", maxBatch, c.Batch)
	}
	return nil
}

type RunConfig struct {
	Connection

	Workers        int
	Transactions   int
	Duration       time.Duration
	Mode           string
	Seed           int64
	ProgressEvery  time.Duration
	ProgressInline bool
	LogLevel       string
}

func ParseRunConfig(args []string) (RunConfig, error) {
	fs := newFlagSet("run")
	var c RunConfig

	c.Connection.register(fs)
	fs.IntVar(&c.Workers, "workers", 1, "Concurrent clients, each bound to its own branch range")
	fs.IntVar(&c.Transactions, "transactions", 10, "Transactions per worker (ignored when -duration is set)")
	fs.DurationVar(&c.Duration, "duration", 0, "Run for this long instead of a fixed transaction count")
	fs.StringVar(&c.Mode, "mode", "tpcb-like", "Workload: tpcb-like, simple-update or select-only")
	fs.Int64Var(&c.Seed, "seed", 0, "Random seed (0 = time based)")
	fs.DurationVar(&c.ProgressEvery, "progress", 0, "Progress report interval (0 = off)")
	fs.BoolVar(&c.ProgressInline, "progress-inline", true, "Render progress on one updating line")
	fs.StringVar(&c.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return c, errors.Wrap(err, "parse run flags")
	}

	return c, c.Validate()
}

func (c RunConfig) Validate() error {
	if err := c.Connection.validate(); err != nil {
		return err
	}
	if c.Workers < 1 || c.Workers > maxRunWorkers {
		return errors.Errorf("workers must be between 1 and %d, got %d", maxRunWorkers, c.Workers)
	}
	if c.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	if c.Duration == 0 && c.Transactions < 1 {
		return errors.New("transactions must be at least 1")
	}
	if c.ProgressEvery < 0 {
		return errors.New("progress interval must not be negative")
	}
	switch c.Mode {
	case "tpcb-like", "simple-update", "select-only":
	default:
		return errors.Errorf("unknown mode %q", c.Mode)
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}
