package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/GridPlan/internal/model"
)

// BackupData is the top-level structure for export and import of the config
// and the run archive.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Runs      []RunRecord     `json:"runs,omitempty"`
}

// ExportAllData writes the config and every archived run in runsDir to a
// single JSON file at exportPath.
func ExportAllData(exportPath string, config model.AppConfig, runsDir string) error {
	backup := BackupData{
		Version:   recordVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
	}
	runs, err := ListRuns(runsDir)
	if err != nil {
		return err
	}
	for _, r := range runs {
		record, err := LoadRun(r.Path)
		if err != nil {
			return err
		}
		backup.Runs = append(backup.Runs, record)
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying the imported config; RestoreRuns
// writes the runs back into an archive.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	// Ensure RecentRuns is never nil
	if backup.Config.RecentRuns == nil {
		backup.Config.RecentRuns = []string{}
	}
	return backup, nil
}

// RestoreRuns saves every run of a backup into runsDir.
func RestoreRuns(backup BackupData, runsDir string) (int, error) {
	for i, record := range backup.Runs {
		if _, err := SaveRun(runsDir, record); err != nil {
			return i, err
		}
	}
	return len(backup.Runs), nil
}
