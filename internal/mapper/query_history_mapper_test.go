package mapper

import (
	"testing"
	"time"

	"medical-text2sql-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryHistoryMapper(t *testing.T) {
	m := NewQueryHistoryMapper()
	in := &entity.QueryHistory{
		Id:             uuid.New(),
		QueryId:        "q-1",
		ConversationId: "c-1",
		Question:       "平均年龄",
		GeneratedSql:   "SELECT AVG(age) FROM medical_checkup",
		Status:         "success",
		RowCount:       1,
		ChartKinds:     []string{"bar"},
		Metadata:       map[string]any{"model": "deepseek-chat"},
		CreatedAt:      time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}

	mod, err := m.ToModel(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"deepseek-chat"}`, string(mod.Metadata))

	out := m.ToEntity(mod)
	assert.Equal(t, in, out)
}

func TestQueryHistoryMapperNil(t *testing.T) {
	m := NewQueryHistoryMapper()
	assert.Nil(t, m.ToEntity(nil))

	mod, err := m.ToModel(nil)
	assert.NoError(t, err)
	assert.Nil(t, mod)

	mod, err = m.ToModel(&entity.QueryHistory{QueryId: "q"})
	require.NoError(t, err)
	assert.Nil(t, mod.Metadata)
	assert.Nil(t, m.ToEntity(mod).Metadata)
}
