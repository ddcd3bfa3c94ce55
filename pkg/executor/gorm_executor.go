package executor

import (
	"context"
	"fmt"
	"strings"

	"medical-text2sql-be/pkg/database"
	"medical-text2sql-be/pkg/tabular"

	"gorm.io/gorm"
)

// GormExecutor runs statements on a postgres or mysql connection opened through gorm.
type GormExecutor struct {
	db   *gorm.DB
	kind database.Kind
}

var _ Executor = &GormExecutor{}

func NewGormExecutor(db *gorm.DB, kind database.Kind) (*GormExecutor, error) {
	if kind != database.KindPostgres && kind != database.KindMySQL {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	return &GormExecutor{db: db, kind: kind}, nil
}

func (e *GormExecutor) Kind() database.Kind {
	return e.kind
}

func (e *GormExecutor) Execute(ctx context.Context, query string) (*tabular.Table, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyStatement
	}

	tx := e.db.WithContext(ctx)

	if IsExec(query) {
		res := tx.Exec(query)
		if res.Error != nil {
			return nil, fmt.Errorf("exec statement: %w", describeError(res.Error))
		}
		return affectedTable(res.RowsAffected), nil
	}

	rows, err := tx.Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("run query: %w", describeError(err))
	}
	defer rows.Close()

	return scanRows(rows)
}
