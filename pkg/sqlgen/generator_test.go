package sqlgen

import (
	"context"
	"errors"
	"testing"
	"time"

	"medical-text2sql-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply    string
	err      error
	messages []llm.Message
	options  llm.Options
}

func (f *fakeProvider) Chat(_ context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.messages = history
	f.options = llm.Apply(llm.Options{}, opts...)
	return f.reply, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (f *fakeProvider) ModelName() string { return "deepseek-chat" }

func TestGenerateSuccess(t *testing.T) {
	provider := &fakeProvider{reply: "```sql\nSELECT AVG(age) FROM medical_checkup;\n```"}
	gen := NewLLMGenerator(provider, 0)

	ticks := []time.Time{
		time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 8, 0, 1, 500_000_000, time.UTC),
	}
	gen.now = func() time.Time {
		now := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return now
	}

	res := gen.Generate(context.Background(), Request{
		QueryID:  "q-1",
		Question: "平均年龄",
		Schema:   "CREATE TABLE medical_checkup (age INT);",
	})

	assert.Equal(t, "q-1", res.QueryID)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "SELECT AVG(age) FROM medical_checkup;", res.GeneratedSQL)
	assert.Equal(t, "deepseek-chat", res.Metadata.Model)
	assert.Equal(t, int64(1500), res.Metadata.ProcessingTimeMs)
	assert.False(t, res.NeedsClarification())

	require.Len(t, provider.messages, 2)
	assert.Equal(t, llm.RoleSystem, provider.messages[0].Role)
	assert.Contains(t, provider.messages[0].Content, GenerationErrorMarker)
	assert.Contains(t, provider.messages[1].Content, "数据库结构信息：\nCREATE TABLE medical_checkup")
	assert.InDelta(t, DefaultTemperature, provider.options.Temperature, 1e-9)
}

func TestGenerateProviderError(t *testing.T) {
	gen := NewLLMGenerator(&fakeProvider{err: errors.New("timeout")}, 0.2)

	res := gen.Generate(context.Background(), Request{Question: "q"})

	assert.NotEmpty(t, res.QueryID)
	assert.Equal(t, StatusError, res.Status)
	assert.Empty(t, res.GeneratedSQL)
	assert.Contains(t, res.Error, "timeout")
	assert.Zero(t, res.Metadata.ProcessingTimeMs)
}

func TestNeedsClarification(t *testing.T) {
	gen := NewLLMGenerator(&fakeProvider{reply: "生成错误：请说明需要查询哪个指标"}, 0)
	res := gen.Generate(context.Background(), Request{Question: "看看这个"})
	assert.True(t, res.NeedsClarification())
}

func TestBuildUserPrompt(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		contains []string
		absent   []string
	}{
		{
			name:     "question only",
			req:      Request{Question: "查询所有患者"},
			contains: []string{"请将以下自然语言描述转换为SQL查询：\n\n查询所有患者"},
			absent:   []string{"数据库结构信息", "上一轮生成的SQL"},
		},
		{
			name:     "with previous sql",
			req:      Request{Question: "只看女性", Schema: "schema", PreviousSQL: "SELECT * FROM medical_checkup"},
			contains: []string{"数据库结构信息：\nschema", "上一轮生成的SQL：\nSELECT * FROM medical_checkup"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildUserPrompt(tt.req)
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestCleanSQL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  SELECT 1  ", "SELECT 1"},
		{"```sql\nSELECT 1\n```", "SELECT 1"},
		{"```\nSELECT 1\n```", "SELECT 1"},
		{"SELECT '```'", "SELECT '```'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanSQL(tt.in))
	}
}
