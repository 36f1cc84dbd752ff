package dbx

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	TableBranches = "pgbench_branches"
	TableTellers  = "pgbench_tellers"
	TableAccounts = "pgbench_accounts"
	TableHistory  = "pgbench_history"
)

var ddl = []struct{ table, columns string }{
	{TableBranches, "bid INT NOT NULL PRIMARY KEY, bbalance INT NOT NULL, filler CHAR(88)"},
	{TableTellers, "tid INT NOT NULL PRIMARY KEY, bid INT NOT NULL, tbalance INT NOT NULL, filler CHAR(84)"},
	{TableAccounts, "aid BIGINT NOT NULL PRIMARY KEY, bid INT NOT NULL, abalance INT NOT NULL, filler CHAR(84)"},
	{TableHistory, "tid INT NOT NULL, bid INT NOT NULL, aid BIGINT NOT NULL, delta INT NOT NULL, mtime TIMESTAMP NOT NULL, filler CHAR(22)"},
}

func CreateTables(ctx context.Context, db Execer) error {
	for _, t := range ddl {
		q := "CREATE TABLE " + t.table + " (" + t.columns + ")"
		if _, err := db.ExecContext(ctx, q); err != nil {
			return errors.Wrapf(err, "create %s", t.table)
		}
		log.Debugf("created table %s", t.table)
	}
	return nil
}

func DropTables(ctx context.Context, db Execer) error {
	for i := len(ddl) - 1; i >= 0; i-- {
		q := "DROP TABLE IF EXISTS " + ddl[i].table
		if _, err := db.ExecContext(ctx, q); err != nil {
			return errors.Wrapf(err, "drop %s", ddl[i].table)
		}
		log.Debugf("dropped table %s", ddl[i].table)
	}
	return nil
}

// BuildInsert returns a multi-row INSERT with nrows groups of ? placeholders.
func BuildInsert(table string, columns []string, nrows int) string {
	if len(columns) == 0 || nrows < 1 {
		return ""
	}

	group := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ","))
	b.WriteString(") VALUES ")
	for i := 0; i < nrows; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(group)
	}
	return b.String()
}

// InsertRows writes rows with a single statement. Every row must have one value per column.
func InsertRows(ctx context.Context, db Execer, d Dialect, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	args := make([]any, 0, len(rows)*len(columns))
	for i, r := range rows {
		if len(r) != len(columns) {
			return errors.Errorf("row %d has %d values, want %d", i, len(r), len(columns))
		}
		args = append(args, r...)
	}

	q := d.Rebind(BuildInsert(table, columns, len(rows)))
	if _, err := db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrapf(err, "insert into %s", table)
	}
	return nil
}
