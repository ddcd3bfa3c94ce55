package chart

import (
	"fmt"
	"testing"

	"medical-text2sql-be/pkg/tabular"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeNoData(t *testing.T) {
	assert.Equal(t, NoDataSummary, Summarize(nil))
	assert.Equal(t, NoDataSummary, Summarize(&tabular.Table{Columns: []string{"age"}}))
}

func TestSummarize(t *testing.T) {
	table := &tabular.Table{
		Columns: []string{"patient_name", "gender", "fasting_glucose", "blood_pressure_sys", "doctor_advice"},
		Rows: [][]any{
			{"张三", "男", 5.0, int64(120), "建议低盐低脂饮食，每周运动三次以上，定期复查血压和血脂指标并及时就医"},
			{"李四", "女", 6.0, int64(130), "注意休息"},
			{"王五", "男", 7.0, int64(140), "控制体重"},
			{"赵六", "女", 5.5, int64(125), "戒烟限酒"},
			{"钱七", "男", 6.5, int64(135), "多喝水"},
			{"孙八", "女", 6.2, int64(128), "早睡早起"},
		},
	}

	got := Summarize(table)

	assert.Contains(t, got, "- **涉及记录数**: 6 条")
	assert.Contains(t, got, "- **空腹血糖**: 平均6.0mmol/L (范围: 5.0-7.0mmol/L)")
	assert.Contains(t, got, "- **blood_pressure_sys**: 平均129.7 (范围: 120.0-140.0)")
	assert.Contains(t, got, "- **涉及患者**: 张三, 李四, 王五, 赵六, 钱七, 孙八")
	assert.Contains(t, got, "- **性别**: 男, 女")
	assert.Contains(t, got, "- **医生建议示例**:")
	assert.Contains(t, got, "  1. 建议低盐低脂饮食，每周运动三次以上，定期复查血压和血脂指标并...")
	assert.Contains(t, got, "  3. 控制体重...")
	assert.NotContains(t, got, "  4. ")
}

func TestSummarizeManyPatientsAndCategories(t *testing.T) {
	table := &tabular.Table{Columns: []string{"patient_name", "ecg_result"}}
	for i := 0; i < 12; i++ {
		table.Rows = append(table.Rows, []any{fmt.Sprintf("患者%d", i), fmt.Sprintf("结果%d", i%7)})
	}

	got := Summarize(table)
	assert.Contains(t, got, "- **涉及患者**: 12人")
	assert.Contains(t, got, "- **心电图结果**: 7种分类")
}
