package project

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/GridPlan/internal/model"
)

func testCatalog() *model.Catalog {
	return &model.Catalog{
		MaxWidth:  40,
		MaxHeight: 9,
		Tasks: []model.Task{
			{Label: "1-1", Weight: 1, Footprints: []model.Footprint{{Width: 5, Height: 6}}},
			{Label: "1-2", Weight: 1, Footprints: []model.Footprint{{Width: 2, Height: 3}}},
		},
	}
}

func solvedResult(started time.Time) model.Result {
	return model.Result{
		RunID:          uuid.NewString(),
		StartedAt:      started,
		Settings:       model.DefaultSettings(),
		BestExpression: []model.Symbol{model.Operand(0), model.Operand(1), model.Vertical()},
		BestShape: &model.Shape{
			N: 2, W: 7, H: 6, D: 12, WD: 12,
			S: []int{0, 5}, F: []int{0, 0},
			IDs: []model.ShapeID{{Task: 0}, {Task: 1}},
		},
		MinimumDelay:    12,
		TerminateReason: model.MaxAnnealCountReached,
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	dir := t.TempDir()
	record := NewRunRecord("first", "0-1-T", testCatalog(), solvedResult(time.Now()))

	path, err := SaveRun(dir, record)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, record.Result.RunID+".json"), path)

	loaded, err := LoadRun(path)
	require.NoError(t, err)
	assert.Equal(t, "first", loaded.Label)
	assert.Equal(t, "0-1-T", loaded.Start)
	assert.Equal(t, 12.0, loaded.Result.MinimumDelay)
	assert.Equal(t, model.MaxAnnealCountReached, loaded.Result.TerminateReason)
	assert.Equal(t, record.Result.BestShape, loaded.Result.BestShape)
	assert.Equal(t, 2, loaded.Catalog.NumTasks())
}

func TestSaveRun_UnsolvedKeepsInfiniteDelay(t *testing.T) {
	dir := t.TempDir()
	result := model.Result{StartedAt: time.Now(), MinimumDelay: math.Inf(1)}
	record := NewRunRecord("", "0-1-T", testCatalog(), result)
	require.NotEmpty(t, record.Result.RunID)

	path, err := SaveRun(dir, record)
	require.NoError(t, err)

	loaded, err := LoadRun(path)
	require.NoError(t, err)
	assert.True(t, math.IsInf(loaded.Result.MinimumDelay, 1))
	assert.False(t, loaded.Result.HasSolution())
}

func TestSaveRun_RejectsBadRunID(t *testing.T) {
	record := NewRunRecord("", "", testCatalog(), model.Result{RunID: "../escape"})
	_, err := SaveRun(t.TempDir(), record)
	assert.True(t, errors.Is(err, ErrInvalidRecord))
}

func TestLoadRun_Invalid(t *testing.T) {
	dir := t.TempDir()

	noVersion := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(noVersion, []byte(`{"catalog": {}}`), 0644))
	_, err := LoadRun(noVersion)
	assert.True(t, errors.Is(err, ErrInvalidRecord))

	noCatalog := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(noCatalog, []byte(`{"version": "1.0.0"}`), 0644))
	_, err = LoadRun(noCatalog)
	assert.True(t, errors.Is(err, ErrInvalidRecord))

	_, err = LoadRun(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestListRuns_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		record := NewRunRecord("", "0-1-T", testCatalog(), solvedResult(base.Add(time.Duration(i)*time.Hour)))
		_, err := SaveRun(dir, record)
		require.NoError(t, err)
		ids = append(ids, record.Result.RunID)
	}
	// Stray files are skipped
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))

	runs, err := ListRuns(dir)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].RunID)
	assert.Equal(t, ids[0], runs[2].RunID)
	assert.True(t, runs[0].Solved)
	assert.Equal(t, 12.0, runs[0].Delay)
}

func TestListRuns_MissingDir(t *testing.T) {
	runs, err := ListRuns(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestFindRun(t *testing.T) {
	dir := t.TempDir()
	record := NewRunRecord("", "0-1-T", testCatalog(), solvedResult(time.Now()))
	_, err := SaveRun(dir, record)
	require.NoError(t, err)

	found, err := FindRun(dir, record.Result.RunID[:8])
	require.NoError(t, err)
	assert.Equal(t, record.Result.RunID, found.Result.RunID)

	_, err = FindRun(dir, "zzzz")
	assert.Error(t, err)
}

func TestPruneRuns(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var newest string
	for i := 0; i < 4; i++ {
		record := NewRunRecord("", "", testCatalog(), solvedResult(base.Add(time.Duration(i)*time.Minute)))
		_, err := SaveRun(dir, record)
		require.NoError(t, err)
		newest = record.Result.RunID
	}

	removed, err := PruneRuns(dir, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	removed, err = PruneRuns(dir, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	runs, err := ListRuns(dir)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, newest, runs[0].RunID)
}
