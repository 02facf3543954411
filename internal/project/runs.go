package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/GridPlan/internal/model"
)

const recordVersion = "1.0.0"

// ErrInvalidRecord is returned for run files that cannot be used.
var ErrInvalidRecord = errors.New("invalid run record")

// RunRecord is one archived annealing run together with the catalog it
// solved, so it can be rendered again later.
type RunRecord struct {
	Version   string         `json:"version"`
	CreatedAt string         `json:"created_at"`
	Label     string         `json:"label,omitempty"`
	Start     string         `json:"start"`
	Catalog   *model.Catalog `json:"catalog"`
	Result    model.Result   `json:"result"`
}

// RunSummary is the listing entry of an archived run.
type RunSummary struct {
	RunID     string
	Path      string
	Label     string
	StartedAt time.Time
	Solved    bool
	Delay     float64
}

// NewRunRecord wraps a result for archiving. A result without a run id gets one.
func NewRunRecord(label, start string, catalog *model.Catalog, result model.Result) RunRecord {
	if result.RunID == "" {
		result.RunID = uuid.NewString()
	}
	return RunRecord{
		Version:   recordVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Label:     label,
		Start:     start,
		Catalog:   catalog,
		Result:    result,
	}
}

// SaveRun writes the record to dir as <run id>.json and returns the path.
func SaveRun(dir string, record RunRecord) (string, error) {
	if _, err := uuid.Parse(record.Result.RunID); err != nil {
		return "", fmt.Errorf("%w: run id %q: %v", ErrInvalidRecord, record.Result.RunID, err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run record: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create runs directory: %w", err)
	}
	path := filepath.Join(dir, record.Result.RunID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run record: %w", err)
	}
	return path, nil
}

// LoadRun reads a run record from a file path.
func LoadRun(path string) (RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to read run record: %w", err)
	}
	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return RunRecord{}, fmt.Errorf("failed to parse run record: %w", err)
	}
	if record.Version == "" {
		return RunRecord{}, fmt.Errorf("%w: missing version field", ErrInvalidRecord)
	}
	if record.Catalog == nil {
		return RunRecord{}, fmt.Errorf("%w: missing catalog", ErrInvalidRecord)
	}
	return record, nil
}

// FindRun resolves a run id or a unique run id prefix inside dir.
func FindRun(dir, id string) (RunRecord, error) {
	runs, err := ListRuns(dir)
	if err != nil {
		return RunRecord{}, err
	}
	var matches []RunSummary
	for _, r := range runs {
		if strings.HasPrefix(r.RunID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return RunRecord{}, fmt.Errorf("no archived run matches %q", id)
	case 1:
		return LoadRun(matches[0].Path)
	default:
		return RunRecord{}, fmt.Errorf("run id %q is ambiguous (%d matches)", id, len(matches))
	}
}

// ListRuns returns the archived runs in dir, newest first. Files that are not
// run records are skipped. A missing directory lists nothing.
func ListRuns(dir string) ([]RunSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var runs []RunSummary
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if _, err := uuid.Parse(strings.TrimSuffix(e.Name(), ".json")); err != nil {
			continue
		}
		path := filepath.Join(dir, e.Name())
		record, err := LoadRun(path)
		if err != nil {
			continue
		}
		runs = append(runs, RunSummary{
			RunID:     record.Result.RunID,
			Path:      path,
			Label:     record.Label,
			StartedAt: record.Result.StartedAt,
			Solved:    record.Result.HasSolution(),
			Delay:     record.Result.MinimumDelay,
		})
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

// PruneRuns deletes all but the newest keep records. keep <= 0 keeps all.
func PruneRuns(dir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	runs, err := ListRuns(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, r := range runs[min(keep, len(runs)):] {
		if err := os.Remove(r.Path); err != nil {
			return removed, fmt.Errorf("failed to remove run %s: %w", r.RunID, err)
		}
		removed++
	}
	return removed, nil
}
