package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/GridPlan/internal/model"
	"github.com/piwi3910/GridPlan/internal/project"
)

// execute runs the command line against an isolated data directory.
func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	root, c := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{
		"--data-dir", dataDir,
		"--log-file", filepath.Join(dataDir, "gridplan.log"),
		"--no-color",
	}, args...))
	err := root.ExecuteContext(context.Background())
	c.close()
	return out.String(), err
}

// feasible is a unit problem where every packing fits the grid.
var feasible = []string{
	"--units", "1", "--workers", "30", "--days", "60",
	"--constraint", "none", "--max-annealing-count", "2", "--iterations", "5",
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(errNoSolution))
	assert.Equal(t, 2, exitCode(fmt.Errorf("sweep: %w", errNoSolution)))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestRunUnitProblem(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, append([]string{"run", "--format", "text", "--label", "smoke"}, feasible...)...)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Best expression:")
	assert.Contains(t, out, "solution info: n=4")

	runs, err := project.ListRuns(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "smoke", runs[0].Label)
	assert.True(t, runs[0].Solved)

	cfg, err := project.LoadAppConfig(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{runs[0].RunID}, cfg.RecentRuns)
}

func TestRunNoSolution(t *testing.T) {
	dir := t.TempDir()
	// No footprint is shorter than 3 persons
	out, err := execute(t, dir, "run", "--units", "1", "--workers", "2", "--days", "60",
		"--max-annealing-count", "1", "--iterations", "5", "--format", "pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errNoSolution))
	assert.Equal(t, exitNoSolution, exitCode(err))
	assert.Contains(t, out, "no solution found; increase the iteration budget and retry")

	runs, err := project.ListRuns(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Solved)
}

func TestRunNoSave(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, append([]string{"run", "--no-save"}, feasible...)...)
	require.NoError(t, err)

	runs, err := project.ListRuns(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunCatalogDocument(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "tasks.yaml")
	doc := `max_width: 20
max_height: 10
tasks:
  - label: pour
    weight: 2
    footprints:
      - {width: 4, height: 3}
  - label: frame
    weight: 1
    footprints:
      - {width: 2, height: 5}
      - {width: 5, height: 2}
`
	require.NoError(t, os.WriteFile(catalogPath, []byte(doc), 0644))
	xlsxPath := filepath.Join(dir, "plan.xlsx")

	out, err := execute(t, dir, "run", "--catalog", catalogPath, "--constraint", "none",
		"--max-annealing-count", "2", "--iterations", "5", "--format", "xlsx", "--output", xlsxPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "wrote "+xlsxPath)
	assert.FileExists(t, xlsxPath)
}

func TestRunRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, append([]string{"run", "--format", "svg"}, feasible...)...)
	assert.ErrorContains(t, err, "unknown output format")

	_, err = execute(t, dir, append([]string{"run", "--start", "0 F 1"}, feasible...)...)
	assert.ErrorContains(t, err, "invalid start expression")

	_, err = execute(t, dir, "run", "--catalog", filepath.Join(dir, "tasks.toml"))
	assert.Error(t, err)
}

func TestRunEnvironmentOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRIDPLAN_SEED", "42")

	_, err := execute(t, dir, append([]string{"run"}, feasible...)...)
	require.NoError(t, err)

	runs, err := project.ListRuns(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	record, err := project.LoadRun(runs[0].Path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.Result.Settings.Seed)
	assert.Equal(t, 2, record.Result.Settings.MaxAnnealingCount)
}

func TestRunCacheKey(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, append([]string{"run", "--cache-key", "compact"}, feasible...)...)
	require.NoError(t, err)
	runs, err := project.ListRuns(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	record, err := project.LoadRun(runs[0].Path)
	require.NoError(t, err)
	assert.Equal(t, model.CacheKeyCompact, record.Result.Settings.CacheKey)
	assert.Positive(t, record.Result.ShapesEvaluated)

	_, err = execute(t, dir, append([]string{"run", "--cache-key", "fuzzy"}, feasible...)...)
	assert.ErrorContains(t, err, "unknown cache key")
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("seed: 7\nobjective: weighted_delay\n"), 0644))

	_, err := execute(t, dir, append([]string{"--config", cfgPath, "run"}, feasible...)...)
	require.NoError(t, err)

	runs, err := project.ListRuns(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	record, err := project.LoadRun(runs[0].Path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), record.Result.Settings.Seed)
	assert.Equal(t, model.ObjectiveWeightedDelay, record.Result.Settings.Objective)

	_, err = execute(t, dir, "--config", filepath.Join(dir, "missing.yaml"), "runs", "list")
	assert.Error(t, err)
}

func TestRenderArchivedRun(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, append([]string{"run"}, feasible...)...)
	require.NoError(t, err)

	runs, err := project.ListRuns(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	require.Len(t, runs, 1)

	dxfPath := filepath.Join(dir, "plan.dxf")
	out, err := execute(t, dir, "render", runs[0].RunID[:8], "--format", "dxf", "--output", dxfPath)
	require.NoError(t, err, out)
	assert.FileExists(t, dxfPath)

	_, err = execute(t, dir, "render", "ffffffff-none")
	assert.Error(t, err)
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "sweep.xlsx")
	out, err := execute(t, dir, "sweep", "--units", "1",
		"--start-workers", "1", "--step-workers", "29", "--count", "2", "--trials", "1",
		"--days", "60", "--constraint", "none", "--max-annealing-count", "1", "--iterations", "5",
		"--output", xlsxPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "workers=1")
	assert.Contains(t, out, "the minimum workers = 30")
	assert.FileExists(t, xlsxPath)
}

func TestSweepFromEstimate(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "sweep", "--units", "1", "--from-estimate",
		"--step-workers", "24", "--count", "2", "--trials", "1",
		"--days", "60", "--constraint", "none", "--max-annealing-count", "1", "--iterations", "5")
	require.NoError(t, err, out)
	assert.Contains(t, out, "capacity lower bound: 6 workers (69 person-days over 60 days")
	assert.Contains(t, out, "workers=6 ")
}

func TestSweepWithoutSolution(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "sweep", "--units", "1",
		"--start-workers", "1", "--step-workers", "1", "--count", "2", "--trials", "1",
		"--days", "60", "--max-annealing-count", "1", "--iterations", "5")
	assert.True(t, errors.Is(err, errNoSolution))
	assert.Contains(t, out, "no worker count produced a solution")
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, append([]string{"compare"}, feasible...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "Weighted Delay")
}

func TestRunsListAndPrune(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "runs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no archived runs")

	for i := 0; i < 3; i++ {
		_, err := execute(t, dir, append([]string{"run", "--label", fmt.Sprintf("r%d", i)}, feasible...)...)
		require.NoError(t, err)
	}

	out, err = execute(t, dir, "runs", "list")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "\n"))

	_, err = execute(t, dir, "runs", "prune")
	assert.Error(t, err)

	out, err = execute(t, dir, "runs", "prune", "--keep", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 2 runs")
}

func TestConfigSetDefaultsAndBackup(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "config", "set-defaults", "--iterations", "7", "--format", "pdf", "--keep-runs", "5")
	require.NoError(t, err)

	cfg, err := project.LoadAppConfig(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.DefaultIterations)
	assert.Equal(t, "pdf", cfg.DefaultFormat)
	assert.Equal(t, 5, cfg.KeepRuns)
	assert.Equal(t, model.DefaultAppConfig().MaxDays, cfg.MaxDays)

	out, err := execute(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"default_iterations": 7`)

	_, err = execute(t, dir, "config", "set-defaults", "--format", "svg")
	assert.Error(t, err)
	_, err = execute(t, dir, "config", "set-defaults", "--annealing-rate", "1.5")
	assert.Error(t, err)

	backup := filepath.Join(dir, "backup.json")
	_, err = execute(t, dir, "config", "export", backup)
	require.NoError(t, err)

	restored := t.TempDir()
	out, err = execute(t, restored, "config", "import", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "restored defaults and 0 runs")

	cfg, err = project.LoadAppConfig(filepath.Join(restored, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.DefaultIterations)

	_, err = execute(t, restored, "config", "set-defaults", "--reset")
	require.NoError(t, err)
	cfg, err = project.LoadAppConfig(filepath.Join(restored, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAppConfig().DefaultIterations, cfg.DefaultIterations)
}
