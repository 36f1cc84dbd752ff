package dbx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	queries []string
	args    [][]any
	failOn  int
}

func (r *recordingExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	r.queries = append(r.queries, query)
	r.args = append(r.args, args)
	if r.failOn > 0 && len(r.queries) == r.failOn {
		return nil, errors.New("boom")
	}
	return nil, nil
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		input   string
		want    Dialect
		wantErr bool
	}{
		{"mysql", MySQL, false},
		{"MySQL", MySQL, false},
		{"postgres", Postgres, false},
		{"postgresql", Postgres, false},
		{" pgx ", Postgres, false},
		{"sqlite", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDialect(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, d)
		})
	}
}

func TestDriverName(t *testing.T) {
	require.Equal(t, "mysql", MySQL.DriverName())
	require.Equal(t, "pgx", Postgres.DriverName())
	require.Equal(t, "postgres", Postgres.String())
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "mysql untouched",
			dialect:  MySQL,
			query:    "UPDATE pgbench_accounts SET abalance = abalance + ? WHERE aid = ?",
			expected: "UPDATE pgbench_accounts SET abalance = abalance + ? WHERE aid = ?",
		},
		{
			name:     "postgres numbered",
			dialect:  Postgres,
			query:    "UPDATE pgbench_accounts SET abalance = abalance + ? WHERE aid = ?",
			expected: "UPDATE pgbench_accounts SET abalance = abalance + $1 WHERE aid = $2",
		},
		{
			name:     "postgres without placeholders",
			dialect:  Postgres,
			query:    "SELECT 1",
			expected: "SELECT 1",
		},
		{
			name:     "postgres multi digit",
			dialect:  Postgres,
			query:    BuildInsert("t", []string{"a", "b", "c", "d"}, 3),
			expected: "INSERT INTO t (a,b,c,d) VALUES ($1,$2,$3,$4),($5,$6,$7,$8),($9,$10,$11,$12)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.dialect.Rebind(tt.query))
		})
	}
}

func TestBuildInsert(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		columns  []string
		nrows    int
		expected string
	}{
		{
			name:     "single row",
			table:    TableBranches,
			columns:  []string{"bid", "bbalance"},
			nrows:    1,
			expected: "INSERT INTO pgbench_branches (bid,bbalance) VALUES (?,?)",
		},
		{
			name:     "several rows",
			table:    TableTellers,
			columns:  []string{"tid", "bid", "tbalance"},
			nrows:    2,
			expected: "INSERT INTO pgbench_tellers (tid,bid,tbalance) VALUES (?,?,?),(?,?,?)",
		},
		{
			name:     "no columns",
			table:    TableTellers,
			nrows:    2,
			expected: "",
		},
		{
			name:     "no rows",
			table:    TableTellers,
			columns:  []string{"tid"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, BuildInsert(tt.table, tt.columns, tt.nrows))
		})
	}
}

func TestInsertRows(t *testing.T) {
	ctx := context.Background()

	t.Run("flattens arguments", func(t *testing.T) {
		ex := &recordingExecer{}
		err := InsertRows(ctx, ex, Postgres, TableBranches, []string{"bid", "bbalance"}, [][]any{{1, 0}, {2, 0}})
		require.NoError(t, err)
		require.Equal(t, []string{"INSERT INTO pgbench_branches (bid,bbalance) VALUES ($1,$2),($3,$4)"}, ex.queries)
		require.Equal(t, []any{1, 0, 2, 0}, ex.args[0])
	})

	t.Run("empty is a no-op", func(t *testing.T) {
		ex := &recordingExecer{}
		require.NoError(t, InsertRows(ctx, ex, MySQL, TableBranches, []string{"bid"}, nil))
		require.Empty(t, ex.queries)
	})

	t.Run("rejects ragged rows", func(t *testing.T) {
		ex := &recordingExecer{}
		err := InsertRows(ctx, ex, MySQL, TableBranches, []string{"bid", "bbalance"}, [][]any{{1, 0}, {2}})
		require.EqualError(t, err, "row 1 has 1 values, want 2")
		require.Empty(t, ex.queries)
	})

	t.Run("wraps exec error", func(t *testing.T) {
		ex := &recordingExecer{failOn: 1}
		err := InsertRows(ctx, ex, MySQL, TableBranches, []string{"bid"}, [][]any{{1}})
		require.EqualError(t, err, "insert into pgbench_branches: boom")
	})
}

func TestCreateAndDropTables(t *testing.T) {
	ctx := context.Background()

	ex := &recordingExecer{}
	require.NoError(t, DropTables(ctx, ex))
	require.NoError(t, CreateTables(ctx, ex))

	require.Len(t, ex.queries, 8)
	require.Equal(t, "DROP TABLE IF EXISTS pgbench_history", ex.queries[0])
	require.Equal(t, "DROP TABLE IF EXISTS pgbench_branches", ex.queries[3])
	require.Contains(t, ex.queries[4], "CREATE TABLE pgbench_branches (")
	require.Contains(t, ex.queries[7], "CREATE TABLE pgbench_history (")

	failing := &recordingExecer{failOn: 2}
	err := CreateTables(ctx, failing)
	require.EqualError(t, err, "create pgbench_tellers: boom")
}
