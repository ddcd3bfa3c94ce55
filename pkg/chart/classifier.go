package chart

import (
	"fmt"
	"sort"
	"time"

	"medical-text2sql-be/internal/pkg/logger"
	"medical-text2sql-be/pkg/schema"
	"medical-text2sql-be/pkg/tabular"
)

const (
	// MaxMetrics caps the distinct metrics charted from one long-format result.
	MaxMetrics = 100

	maxBarRows       = 20
	minLineRows      = 2
	maxLineSeries    = 2
	minCategoryCount = 2
	maxCategoryCount = 15

	valueAxisLabel = "指标值"
	trendTitle     = "医疗指标趋势分析"
)

// Classifier picks charts for query results. It is stateless.
type Classifier struct {
	logger logger.ILogger
}

func NewClassifier(log logger.ILogger) *Classifier {
	return &Classifier{logger: log}
}

// Classify applies the rules in priority order: the no-chart guard, the
// category/count pie, the metric/value/date triple, then generic bar and
// line detection. A candidate that fails is skipped without affecting the others.
func (c *Classifier) Classify(t *tabular.Table) Result {
	res := Result{Charts: []ChartSpec{}}
	if t.Empty() || len(t.Rows) < 2 || len(t.Columns) < 2 {
		return res
	}

	if category, count, ok := categoryCountShape(t); ok {
		c.try(&res, "pie", func() (*ChartSpec, error) { return buildPie(t, category, count) })
		if len(res.Charts) > 0 {
			return res
		}
	}

	if metric, value, date, ok := metricTripleShape(t); ok {
		c.classifyMetrics(t, &res, metric, value, date)
		return res
	}

	xCandidates := xAxisCandidates(t)
	yCandidates := yAxisCandidates(t)

	if len(xCandidates) > 0 && len(yCandidates) > 0 && len(t.Rows) <= maxBarRows {
		x, y := xCandidates[0], firstExcept(yCandidates, xCandidates[0])
		if y != "" {
			c.try(&res, "bar", func() (*ChartSpec, error) { return buildBar(t, x, y) })
		}
	}

	if date := dateColumn(t); date != "" && len(t.Rows) >= minLineRows {
		series := without(yCandidates, date)
		if len(series) > maxLineSeries {
			series = series[:maxLineSeries]
		}
		if len(series) > 0 {
			c.try(&res, "line", func() (*ChartSpec, error) { return buildLine(t, date, series, "", "") })
		}
	}
	return res
}

// try runs one candidate, turning errors and panics into a skipped chart.
func (c *Classifier) try(res *Result, candidate string, build func() (*ChartSpec, error)) {
	spec, err := func() (spec *ChartSpec, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return build()
	}()
	if err != nil {
		c.logger.Warn(logger.ModuleClassifier, "Chart candidate skipped", map[string]interface{}{
			"candidate": candidate,
			"error":     err.Error(),
		})
		return
	}
	if spec != nil {
		res.Charts = append(res.Charts, *spec)
	}
}

func (c *Classifier) classifyMetrics(t *tabular.Table, res *Result, metricCol, valueCol, dateCol string) {
	mi, vi, di := t.Index(metricCol), t.Index(valueCol), t.Index(dateCol)

	var order []string
	groups := make(map[string][]int)
	for i, row := range t.Rows {
		if tabular.IsNull(row[mi]) {
			continue
		}
		name := tabular.String(row[mi])
		if _, ok := groups[name]; !ok {
			if len(order) >= MaxMetrics {
				continue
			}
			order = append(order, name)
		}
		groups[name] = append(groups[name], i)
	}

	for _, name := range order {
		rows := groups[name]
		sortRowsByTime(t, rows, di)

		if reading, ok := latestReading(t, rows, name, vi, di); ok {
			res.Latest = append(res.Latest, reading)
		}
		if len(rows) < minLineRows {
			continue
		}
		sub := &tabular.Table{Columns: t.Columns, Rows: make([][]any, 0, len(rows))}
		for _, i := range rows {
			sub.Rows = append(sub.Rows, t.Rows[i])
		}
		metric := name
		c.try(res, "line:"+metric, func() (*ChartSpec, error) {
			return buildLine(sub, dateCol, []string{valueCol}, metricCol, metric)
		})
	}
}

func latestReading(t *tabular.Table, rows []int, name string, vi, di int) (MetricReading, bool) {
	for k := len(rows) - 1; k >= 0; k-- {
		row := t.Rows[rows[k]]
		v, ok := tabular.Float(row[vi])
		if !ok {
			continue
		}
		return MetricReading{Metric: name, Value: v, Date: tabular.String(row[di])}, true
	}
	return MetricReading{}, false
}

func categoryCountShape(t *tabular.Table) (category, count string, ok bool) {
	if len(t.Columns) != 2 {
		return "", "", false
	}
	a, b := t.Columns[0], t.Columns[1]
	switch {
	case schema.In(a, schema.CategoryColumns) && schema.In(b, schema.CountColumns):
		return a, b, true
	case schema.In(b, schema.CategoryColumns) && schema.In(a, schema.CountColumns):
		return b, a, true
	}
	return "", "", false
}

func metricTripleShape(t *tabular.Table) (metric, value, date string, ok bool) {
	metric = findColumn(t, schema.MetricNameColumns)
	value = findColumn(t, schema.MetricValueColumns)
	date = findColumn(t, schema.DateColumns)
	return metric, value, date, metric != "" && value != "" && date != ""
}

func findColumn(t *tabular.Table, names []string) string {
	for _, c := range t.Columns {
		if schema.In(c, names) {
			return c
		}
	}
	return ""
}

func xAxisCandidates(t *tabular.Table) []string {
	var out []string
	for _, priority := range [][]string{schema.NameColumns, schema.GenderColumns} {
		for _, c := range t.Columns {
			if schema.In(c, priority) {
				out = append(out, c)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, c := range t.Columns {
		if schema.In(c, schema.FreeTextColumns) || schema.In(c, schema.IdentifierColumns) {
			continue
		}
		values := t.Values(c)
		if tabular.IsNumeric(values) {
			continue
		}
		if n := tabular.Distinct(values); n >= minCategoryCount && n <= maxCategoryCount {
			out = append(out, c)
		}
	}
	return out
}

func yAxisCandidates(t *tabular.Table) []string {
	var out []string
	for _, c := range t.Columns {
		if schema.In(c, schema.IdentifierColumns) {
			continue
		}
		if tabular.IsNumeric(t.Values(c)) {
			out = append(out, c)
		}
	}
	return out
}

// dateColumn is the first known date column whose values all parse as dates.
func dateColumn(t *tabular.Table) string {
	for _, c := range t.Columns {
		if !schema.In(c, schema.DateColumns) {
			continue
		}
		parsed := false
		valid := true
		for _, v := range t.Values(c) {
			if tabular.IsNull(v) {
				continue
			}
			if _, ok := tabular.Time(v); !ok {
				valid = false
				break
			}
			parsed = true
		}
		if valid && parsed {
			return c
		}
	}
	return ""
}

func buildPie(t *tabular.Table, category, count string) (*ChartSpec, error) {
	ci, ni := t.Index(category), t.Index(count)
	spec := &ChartSpec{
		Kind:     KindPie,
		XColumn:  category,
		YColumns: []string{count},
		Title:    schema.Label(category) + "分布",
	}
	series := Series{Column: count, Label: schema.Label(count)}
	for _, row := range t.Rows {
		v, ok := tabular.Float(row[ni])
		if !ok {
			return nil, fmt.Errorf("count column %s holds non-numeric value %v", count, row[ni])
		}
		spec.Categories = append(spec.Categories, tabular.String(row[ci]))
		series.Values = append(series.Values, &v)
	}
	spec.Series = []Series{series}
	return spec, nil
}

func buildBar(t *tabular.Table, x, y string) (*ChartSpec, error) {
	xi := t.Index(x)
	series, err := buildSeries(t, y)
	if err != nil {
		return nil, err
	}
	spec := &ChartSpec{
		Kind:     KindBar,
		XColumn:  x,
		YColumns: []string{y},
		Title:    schema.Label(x) + "指标对比",
		XLabel:   schema.Label(x),
		YLabel:   valueAxisLabel,
		Series:   []Series{series},
	}
	for _, row := range t.Rows {
		spec.Categories = append(spec.Categories, tabular.String(row[xi]))
	}
	return spec, nil
}

func buildLine(t *tabular.Table, date string, ys []string, groupColumn, groupValue string) (*ChartSpec, error) {
	di := t.Index(date)
	rows := make([]int, len(t.Rows))
	for i := range rows {
		rows[i] = i
	}
	sortRowsByTime(t, rows, di)
	sorted := &tabular.Table{Columns: t.Columns, Rows: make([][]any, 0, len(rows))}
	for _, i := range rows {
		sorted.Rows = append(sorted.Rows, t.Rows[i])
	}

	title := trendTitle
	if groupValue != "" {
		title = groupValue + "趋势"
	}
	spec := &ChartSpec{
		Kind:        KindLine,
		XColumn:     date,
		YColumns:    ys,
		Title:       title,
		XLabel:      schema.Label(date),
		YLabel:      valueAxisLabel,
		GroupColumn: groupColumn,
		GroupValue:  groupValue,
	}
	for _, row := range sorted.Rows {
		spec.Categories = append(spec.Categories, tabular.String(row[di]))
	}
	for _, y := range ys {
		s, err := buildSeries(sorted, y)
		if err != nil {
			return nil, err
		}
		spec.Series = append(spec.Series, s)
	}
	return spec, nil
}

func buildSeries(t *tabular.Table, column string) (Series, error) {
	idx := t.Index(column)
	if idx < 0 {
		return Series{}, fmt.Errorf("column %s not in result", column)
	}
	s := Series{Column: column, Label: schema.Label(column), Values: make([]*float64, 0, len(t.Rows))}
	for _, row := range t.Rows {
		if tabular.IsNull(row[idx]) {
			s.Values = append(s.Values, nil)
			continue
		}
		v, ok := tabular.Float(row[idx])
		if !ok {
			return Series{}, fmt.Errorf("column %s holds non-numeric value %v", column, row[idx])
		}
		s.Values = append(s.Values, &v)
	}
	return s, nil
}

// sortRowsByTime orders row indexes by the date column; unparsable dates sort last.
func sortRowsByTime(t *tabular.Table, rows []int, di int) {
	key := func(i int) (time.Time, bool) { return tabular.Time(t.Rows[i][di]) }
	sort.SliceStable(rows, func(a, b int) bool {
		ta, okA := key(rows[a])
		tb, okB := key(rows[b])
		if okA != okB {
			return okA
		}
		return ta.Before(tb)
	})
}

func firstExcept(values []string, skip string) string {
	for _, v := range values {
		if v != skip {
			return v
		}
	}
	return ""
}

func without(values []string, skip string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != skip {
			out = append(out, v)
		}
	}
	return out
}
