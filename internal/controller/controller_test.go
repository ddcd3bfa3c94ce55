package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"medical-text2sql-be/internal/dto"
	"medical-text2sql-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueryService struct {
	got *dto.QueryRequest
}

func (f *fakeQueryService) Query(_ context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	f.got = req
	return &dto.QueryResponse{ConversationId: "c-1", Sql: "SELECT 1"}, nil
}

type fakeSessionService struct {
	reset string
}

func (f *fakeSessionService) Reset(_ context.Context, id string) error {
	if id != "c-1" {
		return fiber.NewError(fiber.StatusNotFound, "会话不存在或已过期")
	}
	f.reset = id
	return nil
}

func (f *fakeSessionService) Context(_ context.Context, id string) (*dto.SessionContextResponse, error) {
	return &dto.SessionContextResponse{ConversationId: id, Summary: "summary"}, nil
}

func (f *fakeSessionService) Restore(context.Context) error { return nil }
func (f *fakeSessionService) Persist(context.Context) error { return nil }

type fakeSchemaService struct {
	content []byte
}

func (f *fakeSchemaService) Load() string { return string(f.content) }

func (f *fakeSchemaService) Upload(_ context.Context, content []byte) (*dto.UploadSchemaResponse, error) {
	f.content = content
	return &dto.UploadSchemaResponse{Path: "schema.sql", Bytes: len(content)}, nil
}

type fakeHistoryService struct {
	got *dto.GetHistoryRequest
}

func (f *fakeHistoryService) GetByConversation(_ context.Context, req *dto.GetHistoryRequest) (*dto.QueryHistoryPageResponse, error) {
	f.got = req
	return &dto.QueryHistoryPageResponse{Total: 0, Items: []dto.QueryHistoryResponse{}}, nil
}

func newTestApp(register ...func(fiber.Router)) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	for _, r := range register {
		r(api)
	}
	return app
}

func decode(t *testing.T, body io.Reader) serverutils.BaseResponse[json.RawMessage] {
	t.Helper()
	var out serverutils.BaseResponse[json.RawMessage]
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestQueryController(t *testing.T) {
	svc := &fakeQueryService{}
	app := newTestApp(NewQueryController(svc).RegisterRoutes)

	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"ok", `{"question":"平均年龄","conversation_id":"c-1"}`, 200, "Success query"},
		{"blank question", `{"question":"   "}`, 400, "问题不能为空"},
		{"bad json", `{`, 400, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/query", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, tt.message, decode(t, resp.Body).Message)
		})
	}

	assert.Equal(t, "c-1", svc.got.ConversationId)
}

func TestSessionController(t *testing.T) {
	svc := &fakeSessionService{}
	app := newTestApp(NewSessionController(svc).RegisterRoutes)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/sessions/c-1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "c-1", svc.reset)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/sessions/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/sessions/c-2/context", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var ctxResp dto.SessionContextResponse
	require.NoError(t, json.Unmarshal(decode(t, resp.Body).Data, &ctxResp))
	assert.Equal(t, "c-2", ctxResp.ConversationId)
}

func TestSchemaControllerUpload(t *testing.T) {
	svc := &fakeSchemaService{}
	app := newTestApp(NewSchemaController(svc).RegisterRoutes)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("schema_file", "schema.sql")
	require.NoError(t, err)
	_, _ = part.Write([]byte("CREATE TABLE medical_checkup (id INT);"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/upload_schema", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "CREATE TABLE medical_checkup (id INT);", svc.Load())

	resp, err = app.Test(httptest.NewRequest("POST", "/api/upload_schema", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHistoryController(t *testing.T) {
	svc := &fakeHistoryService{}
	app := newTestApp(NewHistoryController(svc).RegisterRoutes)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/history/c-1?limit=5&offset=10", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, &dto.GetHistoryRequest{ConversationId: "c-1", Limit: 5, Offset: 10}, svc.got)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/history/c-1?limit=500", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
