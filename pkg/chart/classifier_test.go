package chart

import (
	"strings"
	"testing"
	"time"

	"medical-text2sql-be/internal/pkg/logger"
	"medical-text2sql-be/pkg/tabular"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier() *Classifier {
	return NewClassifier(logger.NewNopLogger())
}

func TestClassifyNoChart(t *testing.T) {
	tests := []struct {
		name  string
		table *tabular.Table
	}{
		{name: "nil table", table: nil},
		{name: "no rows", table: &tabular.Table{Columns: []string{"gender", "count"}}},
		{
			name:  "one row",
			table: &tabular.Table{Columns: []string{"gender", "count"}, Rows: [][]any{{"男", 3}}},
		},
		{
			name:  "one column",
			table: &tabular.Table{Columns: []string{"age"}, Rows: [][]any{{30}, {40}, {50}}},
		},
		{
			name: "only free text",
			table: &tabular.Table{
				Columns: []string{"doctor_advice", "ecg_result"},
				Rows:    [][]any{{"多运动", "正常"}, {"少吃盐", "异常"}},
			},
		},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Classify(tt.table)
			assert.Empty(t, res.Charts)
			assert.Equal(t, KindNone, res.Primary().Kind)
		})
	}
}

func TestClassifyCategoryCountPie(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]any
	}{
		{name: "gender then count", columns: []string{"gender", "count"}, rows: [][]any{{"男", int64(12)}, {"女", int64(9)}}},
		{name: "count then gender", columns: []string{"count", "gender"}, rows: [][]any{{int64(12), "男"}, {int64(9), "女"}}},
		{name: "bytes from mysql", columns: []string{"gender", "count"}, rows: [][]any{{[]byte("男"), []byte("12")}, {[]byte("女"), []byte("9")}}},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Classify(&tabular.Table{Columns: tt.columns, Rows: tt.rows})
			require.Len(t, res.Charts, 1)

			pie := res.Primary()
			assert.Equal(t, KindPie, pie.Kind)
			assert.Equal(t, "gender", pie.XColumn)
			assert.Equal(t, []string{"count"}, pie.YColumns)
			assert.Equal(t, "性别分布", pie.Title)
			assert.Equal(t, []string{"男", "女"}, pie.Categories)
			require.Len(t, pie.Series, 1)
			assert.Equal(t, 12.0, *pie.Series[0].Values[0])
		})
	}
}

func TestClassifyPieFailureIsSkipped(t *testing.T) {
	res := newTestClassifier().Classify(&tabular.Table{
		Columns: []string{"gender", "count"},
		Rows:    [][]any{{"男", "many"}, {"女", 9}},
	})
	assert.Empty(t, res.Charts)
}

func TestClassifyPieFailureFallsThrough(t *testing.T) {
	// A NULL total breaks the pie but still plots as a bar gap.
	res := newTestClassifier().Classify(&tabular.Table{
		Columns: []string{"gender", "total"},
		Rows:    [][]any{{"男", 30}, {"女", nil}},
	})

	require.Len(t, res.Charts, 1)
	bar := res.Primary()
	assert.Equal(t, KindBar, bar.Kind)
	assert.Equal(t, "gender", bar.XColumn)
	assert.Equal(t, []string{"total"}, bar.YColumns)
	require.Len(t, bar.Series[0].Values, 2)
	assert.Nil(t, bar.Series[0].Values[1])
}

func TestClassifyMetricTriple(t *testing.T) {
	d := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return ts
	}
	table := &tabular.Table{
		Columns: []string{"metric_name", "metric_value", "checkup_date"},
		Rows: [][]any{
			{"bmi", 24.1, d("2024-03-01")},
			{"bmi", 23.5, d("2024-01-01")},
			{"fasting_glucose", 5.6, d("2024-02-01")},
			{"bmi", 23.9, d("2024-02-01")},
		},
	}

	res := newTestClassifier().Classify(table)

	require.Len(t, res.Charts, 1)
	line := res.Charts[0]
	assert.Equal(t, KindLine, line.Kind)
	assert.Equal(t, "checkup_date", line.XColumn)
	assert.Equal(t, "metric_name", line.GroupColumn)
	assert.Equal(t, "bmi", line.GroupValue)
	assert.Equal(t, []string{"2024-01-01", "2024-02-01", "2024-03-01"}, line.Categories)
	require.Len(t, line.Series, 1)
	assert.Equal(t, 23.5, *line.Series[0].Values[0])
	assert.Equal(t, 24.1, *line.Series[0].Values[2])

	require.Len(t, res.Latest, 2)
	assert.Equal(t, MetricReading{Metric: "bmi", Value: 24.1, Date: "2024-03-01"}, res.Latest[0])
	assert.Equal(t, MetricReading{Metric: "fasting_glucose", Value: 5.6, Date: "2024-02-01"}, res.Latest[1])
}

func TestClassifyMetricCap(t *testing.T) {
	table := &tabular.Table{Columns: []string{"metric", "value", "date"}}
	for i := 0; i < MaxMetrics+20; i++ {
		table.Rows = append(table.Rows, []any{"m" + strings.Repeat("x", i), 1.0, "2024-01-01"})
	}
	res := newTestClassifier().Classify(table)
	assert.Len(t, res.Latest, MaxMetrics)
	assert.Empty(t, res.Charts)
}

func TestClassifyGenericBar(t *testing.T) {
	table := &tabular.Table{
		Columns: []string{"patient_id", "patient_name", "age", "bmi"},
		Rows: [][]any{
			{int64(1), "张三", int64(45), 24.3},
			{int64(2), "李四", int64(52), 27.1},
			{int64(3), "王五", int64(38), nil},
		},
	}

	res := newTestClassifier().Classify(table)
	require.Len(t, res.Charts, 1)

	bar := res.Primary()
	assert.Equal(t, KindBar, bar.Kind)
	assert.Equal(t, "patient_name", bar.XColumn)
	assert.Equal(t, []string{"age"}, bar.YColumns)
	assert.Equal(t, "姓名指标对比", bar.Title)
	assert.Equal(t, "指标值", bar.YLabel)
	assert.Equal(t, []string{"张三", "李四", "王五"}, bar.Categories)
}

func TestClassifyBarNeedsFewRows(t *testing.T) {
	table := &tabular.Table{Columns: []string{"patient_name", "age"}}
	for i := 0; i < 21; i++ {
		table.Rows = append(table.Rows, []any{"p" + strings.Repeat("x", i), i})
	}
	assert.Empty(t, newTestClassifier().Classify(table).Charts)
}

func TestClassifyFallbackCategoryAxis(t *testing.T) {
	table := &tabular.Table{
		Columns: []string{"urine_protein", "avg_age"},
		Rows:    [][]any{{"阴性", 40.5}, {"阳性", 55.0}, {"弱阳性", 47.2}},
	}
	res := newTestClassifier().Classify(table)
	require.Len(t, res.Charts, 1)
	assert.Equal(t, KindBar, res.Primary().Kind)
	assert.Equal(t, "urine_protein", res.Primary().XColumn)
	assert.Equal(t, []string{"avg_age"}, res.Primary().YColumns)
}

func TestClassifyIdentifiersAreNotValues(t *testing.T) {
	table := &tabular.Table{
		Columns: []string{"gender", "patient_id"},
		Rows:    [][]any{{"男", 1}, {"女", 2}},
	}
	assert.Empty(t, newTestClassifier().Classify(table).Charts)
}

func TestClassifyBarAndLine(t *testing.T) {
	table := &tabular.Table{
		Columns: []string{"patient_name", "checkup_date", "weight", "bmi", "fasting_glucose"},
		Rows: [][]any{
			{"张三", "2024-03-01", 70.0, 24.0, 5.1},
			{"张三", "2024-01-01", 72.0, 24.5, 5.4},
			{"张三", "2024-02-01", 71.0, 24.2, 5.2},
		},
	}

	res := newTestClassifier().Classify(table)
	assert.Equal(t, []Kind{KindBar, KindLine}, res.Kinds())

	line := res.Charts[1]
	assert.Equal(t, "checkup_date", line.XColumn)
	assert.Equal(t, []string{"weight", "bmi"}, line.YColumns)
	assert.Equal(t, "医疗指标趋势分析", line.Title)
	assert.Equal(t, []string{"2024-01-01", "2024-02-01", "2024-03-01"}, line.Categories)
	assert.Equal(t, 72.0, *line.Series[0].Values[0])
}

func TestClassifyAllNullColumnExcluded(t *testing.T) {
	table := &tabular.Table{
		Columns: []string{"patient_name", "hdl", "ldl"},
		Rows:    [][]any{{"张三", nil, 2.1}, {"李四", nil, 3.3}},
	}
	res := newTestClassifier().Classify(table)
	require.Len(t, res.Charts, 1)
	assert.Equal(t, []string{"ldl"}, res.Primary().YColumns)
}

func TestClassifyIsStateless(t *testing.T) {
	c := newTestClassifier()
	table := &tabular.Table{Columns: []string{"gender", "count"}, Rows: [][]any{{"男", 1}, {"女", 2}}}
	first := c.Classify(table)
	second := c.Classify(table)
	assert.Equal(t, first, second)
}
