package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medical-text2sql-be/pkg/database"
	"medical-text2sql-be/pkg/tabular"
)

// SQLExecutor runs statements on a database/sql handle. It backs the sqlite deployment.
type SQLExecutor struct {
	db   *sql.DB
	kind database.Kind
}

var _ Executor = &SQLExecutor{}

func NewSQLExecutor(db *sql.DB, kind database.Kind) *SQLExecutor {
	return &SQLExecutor{db: db, kind: kind}
}

func (e *SQLExecutor) Kind() database.Kind {
	return e.kind
}

func (e *SQLExecutor) Execute(ctx context.Context, query string) (*tabular.Table, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyStatement
	}

	if IsExec(query) {
		res, err := e.db.ExecContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("exec statement: %w", describeError(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		return affectedTable(n), nil
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", describeError(err))
	}
	defer rows.Close()

	return scanRows(rows)
}
