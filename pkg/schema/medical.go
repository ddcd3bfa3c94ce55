package schema

import "strings"

// CanonicalTable is the one physical table of the checkup database.
const CanonicalTable = "medical_checkup"

// CanonicalTableLabel is the localized display name of CanonicalTable.
const CanonicalTableLabel = "体检表"

// Column describes one column of medical_checkup.
type Column struct {
	Name  string
	Label string
	Unit  string
}

// Columns lists medical_checkup in DDL order.
var Columns = []Column{
	{Name: "id", Label: "编号"},
	{Name: "patient_id", Label: "患者ID"},
	{Name: "patient_name", Label: "姓名"},
	{Name: "gender", Label: "性别"},
	{Name: "age", Label: "年龄"},
	{Name: "checkup_date", Label: "体检日期"},
	{Name: "height", Label: "身高", Unit: "cm"},
	{Name: "weight", Label: "体重", Unit: "kg"},
	{Name: "bmi", Label: "体质指数"},
	{Name: "blood_pressure", Label: "血压", Unit: "mmHg"},
	{Name: "fasting_glucose", Label: "空腹血糖", Unit: "mmol/L"},
	{Name: "total_cholesterol", Label: "总胆固醇", Unit: "mmol/L"},
	{Name: "triglycerides", Label: "甘油三酯", Unit: "mmol/L"},
	{Name: "hdl", Label: "高密度脂蛋白", Unit: "mmol/L"},
	{Name: "ldl", Label: "低密度脂蛋白", Unit: "mmol/L"},
	{Name: "alt", Label: "谷丙转氨酶", Unit: "U/L"},
	{Name: "ast", Label: "谷草转氨酶", Unit: "U/L"},
	{Name: "wbc", Label: "白细胞计数"},
	{Name: "rbc", Label: "红细胞计数"},
	{Name: "hemoglobin", Label: "血红蛋白", Unit: "g/L"},
	{Name: "urine_protein", Label: "尿蛋白"},
	{Name: "ecg_result", Label: "心电图结果"},
	{Name: "ultrasound_result", Label: "超声检查结果"},
	{Name: "doctor_advice", Label: "医生建议"},
	{Name: "created_at", Label: "创建时间"},
}

var (
	// IdentifierColumns never serve as a chart value axis.
	IdentifierColumns = []string{"id", "patient_id", "count", "record_id"}

	// FreeTextColumns hold long advisory text and are never chart categories.
	FreeTextColumns = []string{"doctor_advice", "ecg_result", "ultrasound_result"}

	// NameColumns are preferred x-axis columns.
	NameColumns = []string{"patient_name", "name", "姓名"}

	// GenderColumns are the demographic grouping columns preferred after names.
	GenderColumns = []string{"gender", "性别"}

	// CategoryColumns are grouping fields that pair with a count column.
	CategoryColumns = []string{"gender", "性别", "age_group", "年龄段", "urine_protein", "尿蛋白"}

	// CountColumns name aggregate count columns.
	CountColumns = []string{"count", "cnt", "total", "num", "number", "人数", "数量", "count(*)"}

	// DateColumns name date-valued columns.
	DateColumns = []string{"checkup_date", "date", "record_date", "created_at", "体检日期", "日期"}

	// MetricNameColumns, MetricValueColumns describe long-format indicator tables.
	MetricNameColumns  = []string{"metric_name", "metric", "indicator", "指标"}
	MetricValueColumns = []string{"metric_value", "value", "数值"}
)

var byName = func() map[string]Column {
	m := make(map[string]Column, len(Columns))
	for _, c := range Columns {
		m[c.Name] = c
	}
	return m
}()

// Label returns the display name of a column, or the column itself when unknown.
func Label(column string) string {
	if c, ok := byName[column]; ok {
		return c.Label
	}
	return column
}

// Unit returns the measurement unit of a column, if any.
func Unit(column string) string {
	return byName[column].Unit
}

// Vocabulary returns every table/column identifier followed by its display name.
func Vocabulary() []string {
	words := []string{CanonicalTableLabel, CanonicalTable}
	for _, c := range Columns {
		words = append(words, c.Name)
	}
	for _, c := range Columns {
		words = append(words, c.Label)
	}
	return words
}

// In reports whether column matches one of names, ignoring case.
func In(column string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(column, n) {
			return true
		}
	}
	return false
}
