package chart

import (
	"fmt"
	"math"
	"strings"

	"medical-text2sql-be/pkg/schema"
	"medical-text2sql-be/pkg/tabular"
)

// NoDataSummary is returned for an empty or missing result.
const NoDataSummary = "无有效数据"

const (
	maxListedPatients   = 10
	maxListedCategories = 5
	adviceSamples       = 3
	adviceSampleRunes   = 30
)

var summaryIDColumns = []string{"patient_id", "patient_name", "id"}

// Summarize describes a result in a few markdown lines: record count, numeric
// ranges, patients involved and categorical values.
func Summarize(t *tabular.Table) string {
	if t.Empty() {
		return NoDataSummary
	}

	var b strings.Builder
	b.WriteString("## 核心分析结果\n\n")
	fmt.Fprintf(&b, "- **涉及记录数**: %d 条\n", len(t.Rows))

	var numeric []string
	for _, col := range t.Columns {
		if schema.In(col, summaryIDColumns) {
			continue
		}
		values := t.Values(col)
		if !tabular.IsNumeric(values) {
			continue
		}
		mean, lo, hi := stats(values)
		unit := schema.Unit(col)
		numeric = append(numeric, fmt.Sprintf("- **%s**: 平均%.1f%s (范围: %.1f-%.1f%s)",
			schema.Label(col), mean, unit, lo, hi, unit))
	}
	if len(numeric) > 0 {
		b.WriteString("\n**数值指标分析**:\n")
		b.WriteString(strings.Join(numeric, "\n"))
	}

	var categorical []string
	for _, col := range t.Columns {
		values := t.Values(col)
		if schema.In(col, summaryIDColumns) {
			if col == "patient_name" {
				names := distinctStrings(values)
				if len(names) <= maxListedPatients {
					categorical = append(categorical, "- **涉及患者**: "+strings.Join(names, ", "))
				} else {
					categorical = append(categorical, fmt.Sprintf("- **涉及患者**: %d人", len(names)))
				}
			}
			continue
		}
		if tabular.IsNumeric(values) || tabular.AllNull(values) {
			continue
		}
		if _, isDate := tabular.Time(firstNonNull(values)); isDate {
			continue
		}

		unique := distinctStrings(values)
		switch {
		case len(unique) <= maxListedCategories:
			categorical = append(categorical, fmt.Sprintf("- **%s**: %s", schema.Label(col), strings.Join(unique, ", ")))
		case col == "doctor_advice":
			categorical = append(categorical, fmt.Sprintf("- **%s示例**:", schema.Label(col)))
			n := 0
			for _, v := range values {
				if tabular.IsNull(v) {
					continue
				}
				n++
				categorical = append(categorical, fmt.Sprintf("  %d. %s...", n, truncateRunes(tabular.String(v), adviceSampleRunes)))
				if n == adviceSamples {
					break
				}
			}
		default:
			categorical = append(categorical, fmt.Sprintf("- **%s**: %d种分类", schema.Label(col), len(unique)))
		}
	}
	if len(categorical) > 0 {
		b.WriteString("\n\n**分类数据统计**:\n")
		b.WriteString(strings.Join(categorical, "\n"))
	}
	return b.String()
}

func stats(values []any) (mean, lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	var sum float64
	n := 0
	for _, v := range values {
		f, ok := tabular.Float(v)
		if !ok {
			continue
		}
		sum += f
		n++
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	if n == 0 {
		return 0, 0, 0
	}
	return sum / float64(n), lo, hi
}

func distinctStrings(values []any) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		if tabular.IsNull(v) {
			continue
		}
		s := tabular.String(v)
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func firstNonNull(values []any) any {
	for _, v := range values {
		if !tabular.IsNull(v) {
			return v
		}
	}
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
