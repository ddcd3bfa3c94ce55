// Package executor runs generated SQL against the checkup database and returns plain tables.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"medical-text2sql-be/pkg/database"
	"medical-text2sql-be/pkg/sqltoken"
	"medical-text2sql-be/pkg/tabular"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUnsupportedKind = errors.New("unsupported database kind")
	ErrEmptyStatement  = errors.New("empty SQL statement")
)

// AffectedRowsColumn is the single column of the table returned for exec statements.
const AffectedRowsColumn = "affected_rows"

// Executor runs one SQL text and returns its result table.
type Executor interface {
	Execute(ctx context.Context, query string) (*tabular.Table, error)
	Kind() database.Kind
}

// IsExec reports whether query modifies data rather than returning rows.
// Text the tokenizer rejects is treated as a query so the driver reports the error.
func IsExec(query string) bool {
	stmts, err := sqltoken.Parse(query)
	if err != nil || len(stmts) == 0 {
		return false
	}
	switch stmts[0].Kind() {
	case "INSERT", "UPDATE", "DELETE", "REPLACE", "MERGE":
		return true
	}
	return false
}

func scanRows(rows *sql.Rows) (*tabular.Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	table := &tabular.Table{Columns: columns}
	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, c := range cells {
			cells[i] = tabular.Normalize(c)
		}
		table.Rows = append(table.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return table, nil
}

func affectedTable(n int64) *tabular.Table {
	return &tabular.Table{
		Columns: []string{AffectedRowsColumn},
		Rows:    [][]any{{n}},
	}
}

// describeError keeps the server's code and message when the driver exposes them.
func describeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("postgres error %s: %s: %w", pgErr.Code, pgErr.Message, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fmt.Errorf("mysql error %d: %s: %w", myErr.Number, myErr.Message, err)
	}
	return err
}
