// Package workload implements the pgbench transaction scripts. Every script
// draws its ids from the branch range assigned to the calling worker.
package workload

import (
	"context"
	"database/sql"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/evgeniy-balashov/ydb-bench/internal/dbx"
	"github.com/evgeniy-balashov/ydb-bench/internal/ranger"
)

const (
	TellersPerBranch  = 10
	AccountsPerBranch = 100_000

	// MaxDelta bounds the balance change of a single transaction.
	MaxDelta = 5000
)

type Mode int

const (
	TPCBLike Mode = iota
	SimpleUpdate
	SelectOnly
)

var modeNames = map[Mode]string{
	TPCBLike:     "tpcb-like",
	SimpleUpdate: "simple-update",
	SelectOnly:   "select-only",
}

func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown mode %q", name)
}

func (m Mode) String() string { return modeNames[m] }

// TellerRange returns the teller ids owned by the given branches.
func TellerRange(branches ranger.Range) ranger.Range {
	return ranger.Range{From: (branches.From-1)*TellersPerBranch + 1, To: branches.To * TellersPerBranch}
}

// AccountRange returns the account ids owned by the given branches.
func AccountRange(branches ranger.Range) ranger.Range {
	return ranger.Range{From: (branches.From-1)*AccountsPerBranch + 1, To: branches.To * AccountsPerBranch}
}

type Params struct {
	Bid, Tid, Aid, Delta int64
}

func Pick(rng *rand.Rand, branches ranger.Range) Params {
	return Params{
		Bid:   between(rng, branches),
		Tid:   between(rng, TellerRange(branches)),
		Aid:   between(rng, AccountRange(branches)),
		Delta: rng.Int63n(2*MaxDelta+1) - MaxDelta,
	}
}

func between(rng *rand.Rand, r ranger.Range) int64 {
	return r.From + rng.Int63n(r.Size())
}

type step struct {
	query string
	args  func(p Params) []any
	scan  bool
}

var (
	updateAccount = step{
		query: "UPDATE " + dbx.TableAccounts + " SET abalance = abalance + ? WHERE aid = ?",
		args:  func(p Params) []any { return []any{p.Delta, p.Aid} },
	}
	selectAccount = step{
		query: "SELECT abalance FROM " + dbx.TableAccounts + " WHERE aid = ?",
		args:  func(p Params) []any { return []any{p.Aid} },
		scan:  true,
	}
	updateTeller = step{
		query: "UPDATE " + dbx.TableTellers + " SET tbalance = tbalance + ? WHERE tid = ?",
		args:  func(p Params) []any { return []any{p.Delta, p.Tid} },
	}
	updateBranch = step{
		query: "UPDATE " + dbx.TableBranches + " SET bbalance = bbalance + ? WHERE bid = ?",
		args:  func(p Params) []any { return []any{p.Delta, p.Bid} },
	}
	insertHistory = step{
		query: "INSERT INTO " + dbx.TableHistory + " (tid, bid, aid, delta, mtime) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)",
		args:  func(p Params) []any { return []any{p.Tid, p.Bid, p.Aid, p.Delta} },
	}
)

func stepsFor(m Mode) []step {
	switch m {
	case SimpleUpdate:
		return []step{updateAccount, selectAccount, insertHistory}
	case SelectOnly:
		return []step{selectAccount}
	default:
		return []step{updateAccount, selectAccount, updateTeller, updateBranch, insertHistory}
	}
}

type Script struct {
	db    *sql.DB
	mode  Mode
	steps []step
}

func New(db *sql.DB, d dbx.Dialect, mode Mode) *Script {
	steps := stepsFor(mode)
	for i := range steps {
		steps[i].query = d.Rebind(steps[i].query)
	}
	return &Script{db: db, mode: mode, steps: steps}
}

func (s *Script) Mode() Mode { return s.mode }

// Exec runs one transaction against ids drawn from branches.
func (s *Script) Exec(ctx context.Context, rng *rand.Rand, branches ranger.Range) error {
	p := Pick(rng, branches)

	if s.mode == SelectOnly {
		var balance int64
		st := s.steps[0]
		return errors.Wrap(s.db.QueryRowContext(ctx, st.query, st.args(p)...).Scan(&balance), "select account")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}

	for _, st := range s.steps {
		if st.scan {
			var balance int64
			err = tx.QueryRowContext(ctx, st.query, st.args(p)...).Scan(&balance)
		} else {
			_, err = tx.ExecContext(ctx, st.query, st.args(p)...)
		}
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "%s: %s", s.mode, st.query)
		}
	}

	return errors.Wrap(tx.Commit(), "commit")
}
