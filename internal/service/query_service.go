package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medical-text2sql-be/internal/dto"
	"medical-text2sql-be/internal/pkg/logger"
	"medical-text2sql-be/internal/tracer"
	"medical-text2sql-be/pkg/chart"
	"medical-text2sql-be/pkg/conversation"
	"medical-text2sql-be/pkg/events"
	"medical-text2sql-be/pkg/executor"
	"medical-text2sql-be/pkg/schema"
	"medical-text2sql-be/pkg/sqlfix"
	"medical-text2sql-be/pkg/sqlgen"
	"medical-text2sql-be/pkg/tabular"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PreviewRows bounds the rows echoed back in a query response.
const PreviewRows = 10

const (
	msgClarification  = "问题表述不够明确，请补充需要查询的指标、人群或时间范围"
	msgGenerationFail = "SQL生成失败，请稍后重试"
	msgExecutionFail  = "SQL执行失败"
	msgNoDatabase     = "未配置查询数据库"
	msgUnexpected     = "处理请求时发生未知错误"
)

type IQueryService interface {
	Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
}

type queryService struct {
	manager    *conversation.Manager
	generator  sqlgen.Generator
	corrector  sqlfix.Corrector
	executor   executor.Executor
	classifier *chart.Classifier
	schema     ISchemaService
	history    IHistoryPublisherService
	events     ITurnEventPublisher
	logger     logger.ILogger
	timeout    time.Duration
	now        func() time.Time
}

// NewQueryService wires one contextual turn. exec may be nil when no query database is configured;
// the turn is then recorded but nothing is executed.
func NewQueryService(
	manager *conversation.Manager,
	generator sqlgen.Generator,
	corrector sqlfix.Corrector,
	exec executor.Executor,
	classifier *chart.Classifier,
	schemaService ISchemaService,
	history IHistoryPublisherService,
	eventPublisher ITurnEventPublisher,
	log logger.ILogger,
	generateTimeout time.Duration,
) IQueryService {
	return &queryService{
		manager:    manager,
		generator:  generator,
		corrector:  corrector,
		executor:   exec,
		classifier: classifier,
		schema:     schemaService,
		history:    history,
		events:     eventPublisher,
		logger:     log,
		timeout:    generateTimeout,
		now:        time.Now,
	}
}

// turn carries the state of one request through the pipeline.
type turn struct {
	conversationId string
	question       string
	enhanced       string
	gen            sqlgen.Result
	recorded       bool
	table          *tabular.Table
	charts         chart.Result
	resp           *dto.QueryResponse
}

func (s *queryService) Query(ctx context.Context, req *dto.QueryRequest) (resp *dto.QueryResponse, err error) {
	start := s.now()

	question := strings.TrimSpace(req.Question)
	conversationId := strings.TrimSpace(req.ConversationId)
	if conversationId == "" {
		conversationId = uuid.NewString()
	}

	ctx, span := tracer.Tracer("query").Start(ctx, "query.turn")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationId))

	t := &turn{
		conversationId: conversationId,
		question:       question,
		resp: &dto.QueryResponse{
			ConversationId: conversationId,
			Charts:         []chart.ChartSpec{},
			Rows:           []map[string]any{},
		},
	}

	release := s.manager.BeginTurn(conversationId)
	defer release()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(logger.ModuleQuery, "Query turn panicked", map[string]interface{}{
				"conversation_id": conversationId,
				"panic":           fmt.Sprint(r),
			})
			if !t.recorded {
				s.manager.Record(conversationId, question, "", conversation.Outcome{
					Status: conversation.StatusError,
					Error:  msgUnexpected,
				})
			}
			span.SetStatus(codes.Error, msgUnexpected)
			resp, err = nil, fmt.Errorf("%s: %v", msgUnexpected, r)
		}
	}()

	t.resp.TopicShift = s.manager.DetectTopicShift(conversationId, question)
	t.enhanced = s.manager.Enhance(conversationId, question)

	s.generate(ctx, t)

	switch {
	case t.gen.Status != sqlgen.StatusSuccess:
		s.record(t, "", conversation.Outcome{Status: conversation.StatusError, Error: t.gen.Error})
		t.resp.Error = t.gen.Error
		t.resp.Message = msgGenerationFail

	case t.gen.NeedsClarification():
		s.record(t, "", conversation.Outcome{Status: conversation.StatusError, Error: t.gen.GeneratedSQL})
		t.resp.Clarification = true
		t.resp.Error = msgClarification
		t.resp.Message = t.gen.GeneratedSQL

	default:
		sql := s.corrector.Fix(t.gen.GeneratedSQL)
		t.resp.Sql = sql
		s.record(t, sql, conversation.Outcome{
			Status:   conversation.StatusSuccess,
			Metadata: map[string]interface{}{"model": t.gen.Metadata.Model, "processing_time_ms": t.gen.Metadata.ProcessingTimeMs},
		})
		s.execute(ctx, t, sql)
	}

	t.resp.QueryId = t.gen.QueryID
	t.resp.Metadata = map[string]any{
		"model":              t.gen.Metadata.Model,
		"processing_time_ms": t.gen.Metadata.ProcessingTimeMs,
		"enhanced_question":  t.enhanced,
	}

	elapsed := s.now().Sub(start).Milliseconds()
	span.SetAttributes(
		attribute.Bool("query.clarification", t.resp.Clarification),
		attribute.Bool("query.topic_shift", t.resp.TopicShift),
		attribute.Int("query.rows", t.resp.RowCount),
	)
	if t.resp.Error != "" {
		span.SetStatus(codes.Error, t.resp.Error)
	}

	s.emit(ctx, t, elapsed)

	s.logger.Info(logger.ModuleQuery, "Query turn finished", map[string]interface{}{
		"conversation_id": conversationId,
		"query_id":        t.gen.QueryID,
		"status":          t.gen.Status,
		"clarification":   t.resp.Clarification,
		"rows":            t.resp.RowCount,
		"elapsed_ms":      elapsed,
	})

	return t.resp, nil
}

func (s *queryService) generate(ctx context.Context, t *turn) {
	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	t.gen = s.generator.Generate(genCtx, sqlgen.Request{
		Question:    t.enhanced,
		Schema:      s.schema.Load(),
		PreviousSQL: s.manager.PreviousSQL(t.conversationId),
	})
	if t.gen.Status != sqlgen.StatusSuccess {
		s.logger.Warn(logger.ModuleQuery, "SQL generation failed", map[string]interface{}{
			"conversation_id": t.conversationId,
			"error":           t.gen.Error,
		})
	}
}

func (s *queryService) record(t *turn, sql string, outcome conversation.Outcome) {
	s.manager.Record(t.conversationId, t.question, sql, outcome)
	t.recorded = true
}

// execute never fails the turn; a failed statement yields an empty result.
func (s *queryService) execute(ctx context.Context, t *turn, sql string) {
	if s.executor == nil {
		t.resp.Error = msgNoDatabase
	} else {
		table, err := s.executor.Execute(ctx, sql)
		if err != nil {
			s.logger.Warn(logger.ModuleExecutor, "SQL execution failed", map[string]interface{}{
				"conversation_id": t.conversationId,
				"sql":             sql,
				"error":           err.Error(),
			})
			t.resp.Error = fmt.Sprintf("%s: %v", msgExecutionFail, err)
		} else {
			t.table = table
		}
	}

	t.charts = s.classifier.Classify(t.table)
	t.resp.Charts = t.charts.Charts
	t.resp.Latest = t.charts.Latest
	t.resp.RowCount = t.table.Len()
	t.resp.Rows = t.table.Records(PreviewRows, schema.Label)
	t.resp.Message = chart.Summarize(t.table)
}

func (s *queryService) emit(ctx context.Context, t *turn, elapsed int64) {
	kinds := make([]string, 0, len(t.charts.Charts))
	for _, k := range t.charts.Kinds() {
		kinds = append(kinds, string(k))
	}

	status := sqlgen.StatusSuccess
	if t.resp.Error != "" {
		status = sqlgen.StatusError
	}
	occurredAt := s.now()

	if err := s.history.Publish(ctx, &dto.PublishQueryHistoryMessage{
		QueryId:          t.gen.QueryID,
		ConversationId:   t.conversationId,
		Question:         t.question,
		EnhancedQuestion: t.enhanced,
		Sql:              t.resp.Sql,
		Status:           status,
		Error:            t.resp.Error,
		Clarification:    t.resp.Clarification,
		TopicShift:       t.resp.TopicShift,
		RowCount:         t.resp.RowCount,
		ChartKinds:       kinds,
		Metadata:         t.resp.Metadata,
		ProcessingMs:     elapsed,
		OccurredAt:       occurredAt,
	}); err != nil {
		s.logger.Error(logger.ModuleHistory, "Failed to publish query history", map[string]interface{}{"error": err.Error()})
	}

	s.events.PublishTurn(ctx, events.QueryTurn{
		QueryID:        t.gen.QueryID,
		ConversationID: t.conversationId,
		Question:       t.question,
		SQL:            t.resp.Sql,
		Status:         status,
		Error:          t.resp.Error,
		Clarification:  t.resp.Clarification,
		TopicShift:     t.resp.TopicShift,
		RowCount:       t.resp.RowCount,
		ChartKinds:     kinds,
		ProcessingMs:   elapsed,
		OccurredAt:     occurredAt,
	})
}
