package sqlite

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func newQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type expenseRow struct {
	ID         int64
	Payee      string
	Amount     string
	Date       string
	Extra      string
	RecordedAt string
}

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (payee, amount, date, extra, recorded_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

type createExpenseParams struct {
	Payee      string
	Amount     string
	Date       string
	Extra      string
	RecordedAt string
}

func (q *Queries) CreateExpense(ctx context.Context, arg createExpenseParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.Payee,
		arg.Amount,
		arg.Date,
		arg.Extra,
		arg.RecordedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listExpensesByDate = `-- name: ListExpensesByDate :many
SELECT id, payee, amount, date, extra, recorded_at FROM expenses
WHERE date = ?
ORDER BY id
`

func (q *Queries) ListExpensesByDate(ctx context.Context, date string) ([]expenseRow, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByDate, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []expenseRow{}
	for rows.Next() {
		var i expenseRow
		if err := rows.Scan(
			&i.ID,
			&i.Payee,
			&i.Amount,
			&i.Date,
			&i.Extra,
			&i.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
