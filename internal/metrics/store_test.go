package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"meal-planner/internal/database"
	"meal-planner/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewDB(filepath.Join(dir, "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL), dir
}

func TestStore_Usage(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.Record(ctx, ExecutionMetric{AgentName: "Extractor", Model: "m", PromptTokens: 100, CompletionTokens: 10}))
	require.NoError(t, store.RecordMeta(ctx, shared.AgentMeta{
		AgentName: "Planner",
		Usage:     shared.TokenUsage{PromptTokens: 50, CompletionTokens: 5, Model: "m"},
		Latency:   120 * time.Millisecond,
	}))
	require.NoError(t, store.RecordMeta(ctx, shared.AgentMeta{AgentName: "Cached"}), "zero usage is skipped")
	require.NoError(t, store.Record(ctx, ExecutionMetric{
		AgentName:    "Old",
		PromptTokens: 1000,
		Timestamp:    time.Now().AddDate(0, 0, -40),
	}))

	usage, err := store.GetDailyUsage(ctx, 7)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), usage[0].Date)
	assert.Equal(t, 150, usage[0].TotalPrompt)
	assert.Equal(t, 15, usage[0].TotalCompletion)
	assert.Equal(t, 2, usage[0].TotalExecution)

	deleted, err := store.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestStore_Generations(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.RecordGeneration(ctx, GenerationMetric{PlanID: 1, Items: 10, Warnings: 1, LatencyMS: 20}))
	require.NoError(t, store.RecordGeneration(ctx, GenerationMetric{PlanID: 2, Items: 20, LatencyMS: 40}))

	sum, err := store.GetGenerationSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.InDelta(t, 15, sum.AvgItems, 1e-9)
	assert.InDelta(t, 30, sum.AvgLatencyMS, 1e-9)
	assert.Equal(t, 1, sum.Warnings)
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), make([]byte, 2048), 0644))

	health := GetSysHealth(dir, filepath.Join(dir, "missing"))
	assert.Equal(t, "2.0 KB", health.DataDiskSize)
	assert.Positive(t, health.Goroutines)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "1.0 MB", FormatBytes(1024*1024))
}
