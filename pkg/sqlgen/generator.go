// Package sqlgen turns an enhanced natural-language question into one SQL statement.
package sqlgen

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"medical-text2sql-be/pkg/llm"

	"github.com/google/uuid"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// GenerationErrorMarker is what the model answers with when the question is ambiguous.
	GenerationErrorMarker = "生成错误"

	DefaultTemperature = 0.1
)

const systemPrompt = "你是一个专业的SQL专家，擅长将自然语言转换为准确的供mysql使用的查询语句。" +
	"多表的关系和结构已经给出。如果表意明确，请仅返回适用于MYSQL语句，不要包含任何解释或额外文本或额外的格式处理。" +
	"如果表意模糊，请返回“生成错误”，并生成给用户提示信息。" +
	"如果需要结合上下文生成新的SQL，请在生成的SQL中包含上下文信息。" +
	"请确保生成的SQL语句符合MYSQL语法规范。"

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// Request is one generation call.
type Request struct {
	QueryID     string
	Question    string
	Schema      string
	PreviousSQL string
}

// Metadata travels with every result; ProcessingTimeMs is zero on failure.
type Metadata struct {
	Model            string `json:"model"`
	ProcessingTimeMs int64  `json:"processing_time_ms,omitempty"`
}

type Result struct {
	QueryID      string    `json:"query_id"`
	Question     string    `json:"natural_language_query"`
	Status       string    `json:"status"`
	GeneratedSQL string    `json:"generated_sql,omitempty"`
	Error        string    `json:"error,omitempty"`
	Metadata     Metadata  `json:"metadata"`
	Timestamp    time.Time `json:"timestamp"`
}

// NeedsClarification reports whether the model refused to commit to a statement.
func (r Result) NeedsClarification() bool {
	return r.Status == StatusSuccess && strings.Contains(r.GeneratedSQL, GenerationErrorMarker)
}

// Generator is what the query pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, req Request) Result
}

type LLMGenerator struct {
	provider    llm.LLMProvider
	temperature float64
	now         func() time.Time
}

var _ Generator = &LLMGenerator{}

func NewLLMGenerator(provider llm.LLMProvider, temperature float64) *LLMGenerator {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &LLMGenerator{
		provider:    provider,
		temperature: temperature,
		now:         time.Now,
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) Result {
	queryID := req.QueryID
	if queryID == "" {
		queryID = uuid.NewString()
	}

	result := Result{
		QueryID:   queryID,
		Question:  req.Question,
		Metadata:  Metadata{Model: g.provider.ModelName()},
		Timestamp: g.now().UTC(),
	}

	start := g.now()
	out, err := g.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: BuildUserPrompt(req)},
	}, llm.WithTemperature(g.temperature))
	if err != nil {
		result.Status = StatusError
		result.Error = fmt.Sprintf("SQL生成失败: %v", err)
		return result
	}

	result.Status = StatusSuccess
	result.GeneratedSQL = CleanSQL(out)
	result.Metadata.ProcessingTimeMs = g.now().Sub(start).Milliseconds()
	return result
}

// BuildUserPrompt renders the question, the schema text and the previous statement if any.
func BuildUserPrompt(req Request) string {
	var prompt strings.Builder

	prompt.WriteString("请将以下自然语言描述转换为SQL查询：\n\n")
	prompt.WriteString(req.Question)

	if strings.TrimSpace(req.Schema) != "" {
		prompt.WriteString("\n\n数据库结构信息：\n")
		prompt.WriteString(req.Schema)
	}

	if strings.TrimSpace(req.PreviousSQL) != "" {
		prompt.WriteString("\n\n上一轮生成的SQL：\n")
		prompt.WriteString(req.PreviousSQL)
		prompt.WriteString("\n如果新问题是对上一轮的补充或修改，请在其基础上调整。")
	}

	return prompt.String()
}

// CleanSQL trims whitespace and an enclosing markdown code fence.
func CleanSQL(out string) string {
	out = strings.TrimSpace(out)
	if m := fencePattern.FindStringSubmatch(out); m != nil {
		return strings.TrimSpace(m[1])
	}
	return out
}
