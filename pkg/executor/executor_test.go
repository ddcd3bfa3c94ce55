package executor

import (
	"context"
	"errors"
	"testing"

	"medical-text2sql-be/pkg/database"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T) *SQLExecutor {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE medical_checkup (
			id INTEGER PRIMARY KEY,
			patient_name TEXT,
			gender TEXT,
			age INTEGER,
			bmi REAL,
			doctor_advice TEXT
		);
		INSERT INTO medical_checkup (patient_name, gender, age, bmi, doctor_advice) VALUES
			('张三', '男', 45, 24.5, NULL),
			('李四', '女', 38, 21.0, '注意休息'),
			('王五', '男', 52, 27.3, '控制体重');
	`)
	require.NoError(t, err)

	return NewSQLExecutor(db, database.KindSQLite)
}

func TestSQLExecutorQuery(t *testing.T) {
	exec := newTestExecutor(t)

	table, err := exec.Execute(context.Background(),
		"SELECT gender, COUNT(*) AS count FROM medical_checkup GROUP BY gender ORDER BY gender")
	require.NoError(t, err)

	assert.Equal(t, []string{"gender", "count"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "女", table.Rows[0][0])
	assert.Equal(t, int64(1), table.Rows[0][1])
	assert.Equal(t, int64(2), table.Rows[1][1])
}

func TestSQLExecutorNullsAndFloats(t *testing.T) {
	exec := newTestExecutor(t)

	table, err := exec.Execute(context.Background(),
		"SELECT bmi, doctor_advice FROM medical_checkup WHERE patient_name = '张三'")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.InDelta(t, 24.5, table.Rows[0][0], 1e-9)
	assert.Nil(t, table.Rows[0][1])
}

func TestSQLExecutorEmptyResult(t *testing.T) {
	exec := newTestExecutor(t)

	table, err := exec.Execute(context.Background(), "SELECT * FROM medical_checkup WHERE age > 100")
	require.NoError(t, err)
	assert.True(t, table.Empty())
	assert.Len(t, table.Columns, 6)
}

func TestSQLExecutorExecStatement(t *testing.T) {
	exec := newTestExecutor(t)

	table, err := exec.Execute(context.Background(), "UPDATE medical_checkup SET bmi = 22 WHERE gender = '男'")
	require.NoError(t, err)
	assert.Equal(t, []string{AffectedRowsColumn}, table.Columns)
	assert.Equal(t, int64(2), table.Rows[0][0])
}

func TestSQLExecutorErrors(t *testing.T) {
	exec := newTestExecutor(t)

	_, err := exec.Execute(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyStatement)

	_, err = exec.Execute(context.Background(), "SELECT nope FROM missing_table")
	assert.Error(t, err)
}

func TestIsExec(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT 1", false},
		{"  -- comment\nDELETE FROM medical_checkup", true},
		{"insert into t values (1)", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"SELECT 'unterminated", false},
		{"SHOW TABLES", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsExec(tt.sql), tt.sql)
	}
}

func TestNewGormExecutorRejectsSQLite(t *testing.T) {
	_, err := NewGormExecutor(nil, database.KindSQLite)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestDescribeError(t *testing.T) {
	pg := describeError(&pgconn.PgError{Code: "42P01", Message: `relation "x" does not exist`})
	assert.Contains(t, pg.Error(), "postgres error 42P01")

	my := describeError(&mysql.MySQLError{Number: 1146, Message: "Table 'x' doesn't exist"})
	assert.Contains(t, my.Error(), "mysql error 1146")

	plain := errors.New("boom")
	assert.Equal(t, plain, describeError(plain))
}
