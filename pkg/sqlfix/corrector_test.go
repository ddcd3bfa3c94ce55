package sqlfix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFix(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "already correct",
			sql:  "SELECT age FROM medical_checkup WHERE age > 30",
			want: "SELECT age FROM medical_checkup WHERE age > 30",
		},
		{
			name: "placeholder table_name",
			sql:  "SELECT age FROM table_name",
			want: "SELECT age FROM medical_checkup",
		},
		{
			name: "qualified database_schema",
			sql:  "SELECT * FROM medical.database_schema WHERE bmi > 28",
			want: "SELECT * FROM medical_checkup WHERE bmi > 28",
		},
		{
			name: "quoted database_schema",
			sql:  "SELECT * FROM `database_schema`",
			want: "SELECT * FROM medical_checkup",
		},
		{
			name: "schema qualified canonical table is fine",
			sql:  "select * from medical.medical_checkup",
			want: "select * from medical.medical_checkup",
		},
		{
			name: "missing table after from",
			sql:  "SELECT age FROM WHERE age > 30",
			want: "SELECT age FROM medical_checkup WHERE age > 30",
		},
		{
			name: "trailing from",
			sql:  "SELECT age from",
			want: "SELECT age from medical_checkup",
		},
		{
			name: "wrong table gets canonical spliced in",
			sql:  "SELECT age FROM patients",
			want: "SELECT age FROM medical_checkup patients",
		},
		{
			name: "no from is left alone",
			sql:  "SELECT 1",
			want: "SELECT 1",
		},
		{
			name: "not sql",
			sql:  "生成错误：请说明要查询的指标",
			want: "生成错误：请说明要查询的指标",
		},
	}

	c := NewTableNameCorrector("medical_checkup")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Fix(tt.sql))
		})
	}
}

func TestFixIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"SELECT age FROM table_name",
		"SELECT * FROM medical.database_schema",
		"SELECT age FROM",
		"SELECT age FROM patients JOIN table_name ON 1=1",
		"table_natable_name",
		"FROM FROM FROM",
		"select count(*) from `database_schema` where gender = 'table_name'",
		"SELECT x FROM (SELECT age AS x FROM medical_checkup) t",
	}

	var c Corrector = NewTableNameCorrector("medical_checkup")
	for _, in := range inputs {
		once := c.Fix(in)
		assert.Equal(t, once, c.Fix(once), in)
	}
}
