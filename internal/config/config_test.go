package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testDSN = "user:pass@tcp(host:3306)/bench"

func TestParseInitConfig(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, c InitConfig)
	}{
		{
			name: "default values",
			args: []string{"-dsn", testDSN},
			check: func(t *testing.T, c InitConfig) {
				require.Equal(t, "mysql", c.Driver)
				require.Equal(t, 1, c.Scale)
				require.Equal(t, 1000, c.Batch)
				require.True(t, c.Drop)
				require.GreaterOrEqual(t, c.Workers, 1)
			},
		},
		{
			name: "custom scale and workers",
			args: []string{"-dsn", testDSN, "-scale", "50", "-workers", "8", "-batch", "500"},
			check: func(t *testing.T, c InitConfig) {
				require.Equal(t, 50, c.Scale)
				require.Equal(t, 8, c.Workers)
				require.Equal(t, 500, c.Batch)
			},
		},
		{
			name: "postgres without drop",
			args: []string{"-driver", "postgres", "-dsn", "postgres://localhost/bench", "-drop=false", "-workers", "2"},
			check: func(t *testing.T, c InitConfig) {
				require.Equal(t, "postgres", c.Driver)
				require.False(t, c.Drop)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseInitConfig(tt.args)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestParseRunConfig(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, c RunConfig)
	}{
		{
			name: "default values",
			args: []string{"-dsn", testDSN},
			check: func(t *testing.T, c RunConfig) {
				require.Equal(t, 1, c.Workers)
				require.Equal(t, 10, c.Transactions)
				require.Equal(t, "tpcb-like", c.Mode)
				require.Zero(t, c.Duration)
				require.Zero(t, c.ProgressEvery)
				require.True(t, c.ProgressInline)
				require.Equal(t, "info", c.LogLevel)
			},
		},
		{
			name: "duration based run",
			args: []string{"-dsn", testDSN, "-duration", "30s", "-transactions", "0", "-workers", "16"},
			check: func(t *testing.T, c RunConfig) {
				require.Equal(t, 30*time.Second, c.Duration)
				require.Equal(t, 16, c.Workers)
			},
		},
		{
			name: "select only with seed and progress",
			args: []string{"-dsn", testDSN, "-mode", "select-only", "-seed", "42", "-progress", "5s", "-progress-inline=false"},
			check: func(t *testing.T, c RunConfig) {
				require.Equal(t, "select-only", c.Mode)
				require.Equal(t, int64(42), c.Seed)
				require.Equal(t, 5*time.Second, c.ProgressEvery)
				require.False(t, c.ProgressInline)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseRunConfig(tt.args)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestInitConfigValidate(t *testing.T) {
	valid := InitConfig{Connection: Connection{Driver: "mysql", DSN: testDSN}, Scale: 1, Workers: 4, Batch: 1000}

	tests := []struct {
		name    string
		mutate  func(c *InitConfig)
		wantErr string
	}{
		{"valid config", func(c *InitConfig) {}, ""},
		{"missing dsn", func(c *InitConfig) { c.DSN = "" }, "dsn is required"},
		{"unknown driver", func(c *InitConfig) { c.Driver = "sqlite" }, `unknown driver "sqlite" (want mysql or postgres)`},
		{"zero scale", func(c *InitConfig) { c.Scale = 0 }, "scale must be at least 1"},
		{"zero workers", func(c *InitConfig) { c.Workers = 0 }, "workers must be between 1 and 100, got 0"},
		{"too many workers", func(c *InitConfig) { c.Workers = 101 }, "workers must be between 1 and 100, got 101"},
		{"batch too large", func(c *InitConfig) { c.Batch = 20_000 }, "batch must be between 1 and 10000, got 20000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestRunConfigValidate(t *testing.T) {
	valid := RunConfig{Connection: Connection{Driver: "postgres", DSN: testDSN}, Workers: 4, Transactions: 10, Mode: "tpcb-like"}

	tests := []struct {
		name    string
		mutate  func(c *RunConfig)
		wantErr string
	}{
		{"valid config", func(c *RunConfig) {}, ""},
		{"zero transactions with duration", func(c *RunConfig) { c.Transactions = 0; c.Duration = time.Minute }, ""},
		{"zero transactions without duration", func(c *RunConfig) { c.Transactions = 0 }, "transactions must be at least 1"},
		{"negative duration", func(c *RunConfig) { c.Duration = -time.Second }, "duration must not be negative"},
		{"zero workers", func(c *RunConfig) { c.Workers = 0 }, "workers must be between 1 and 1000, got 0"},
		{"unknown mode", func(c *RunConfig) { c.Mode = "tpcc" }, `unknown mode "tpcc"`},
		{"negative progress", func(c *RunConfig) { c.ProgressEvery = -1 }, "progress interval must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestParseRejectsUnknownFlag(t *testing.T) {
	_, err := ParseRunConfig([]string{"-dsn", testDSN, "-nope"})
	require.Error(t, err)
}
