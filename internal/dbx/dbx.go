package dbx

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/pkg/errors"

	"github.com/evgeniy-balashov/ydb-bench/internal/ranger"
)

// ErrNoBranches is returned when the branches table holds no rows.
var ErrNoBranches = errors.New("no branches found, run init first")

type Dialect int

const (
	MySQL Dialect = iota
	Postgres
)

func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return 0, errors.Errorf("unknown driver %q", name)
}

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "mysql"
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "mysql"
}

// Rebind rewrites ? placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func Open(ctx context.Context, d Dialect, dsn string, workers int) (*sql.DB, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}

	db.SetMaxOpenConns(workers + 2)
	db.SetMaxIdleConns(workers)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping %s", d)
	}

	return db, nil
}

// BranchRange returns the [MIN(bid), MAX(bid)] span of the branches table.
func BranchRange(ctx context.Context, db *sql.DB) (ranger.Range, error) {
	q := "SELECT MIN(bid), MAX(bid) FROM " + TableBranches

	var a, b sql.NullInt64
	if err := db.QueryRowContext(ctx, q).Scan(&a, &b); err != nil {
		return ranger.Range{}, errors.Wrap(err, "branch range")
	}

	if !a.Valid || !b.Valid {
		return ranger.Range{}, ErrNoBranches
	}

	return ranger.Range{From: a.Int64, To: b.Int64}, nil
}
