package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/GridPlan/internal/model"
)

// ErrImport is returned when a catalog source cannot be turned into a catalog.
var ErrImport = errors.New("catalog import failed")

// DecodeYAML reads a full catalog document (bounds, tasks, allowed starts).
// Unknown keys are rejected.
func DecodeYAML(r io.Reader) (*model.Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var catalog model.Catalog
	if err := dec.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrImport)
		}
		return nil, fmt.Errorf("%w: %v", ErrImport, err)
	}
	return &catalog, nil
}

// DecodeJSON reads a full catalog document. Unknown keys are rejected.
func DecodeJSON(r io.Reader) (*model.Catalog, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var catalog model.Catalog
	if err := dec.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrImport)
		}
		return nil, fmt.Errorf("%w: %v", ErrImport, err)
	}
	return &catalog, nil
}

// ImportYAML reads a YAML catalog document from disk.
func ImportYAML(path string) (*model.Catalog, error) {
	return decodeFile(path, DecodeYAML)
}

// ImportJSON reads a JSON catalog document from disk.
func ImportJSON(path string) (*model.Catalog, error) {
	return decodeFile(path, DecodeJSON)
}

func decodeFile(path string, decode func(io.Reader) (*model.Catalog, error)) (*model.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return decode(f)
}

// LoadCatalog reads a catalog by file extension. Tables (.csv, .txt, .xlsx)
// carry no bounds, so maxWidth and maxHeight are required for them; for
// documents (.yaml, .yml, .json) positive values override the stored bounds.
// The returned catalog is validated.
func LoadCatalog(path string, maxWidth, maxHeight int) (*model.Catalog, []string, error) {
	var (
		catalog  *model.Catalog
		warnings []string
		err      error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		res := ImportCSV(path)
		warnings = res.Warnings
		catalog, err = res.Catalog(maxWidth, maxHeight)
	case ".xlsx", ".xlsm":
		res := ImportExcel(path)
		warnings = res.Warnings
		catalog, err = res.Catalog(maxWidth, maxHeight)
	case ".yaml", ".yml":
		catalog, err = ImportYAML(path)
	case ".json":
		catalog, err = ImportJSON(path)
	default:
		return nil, nil, fmt.Errorf("%w: unsupported file type %q", ErrImport, filepath.Ext(path))
	}
	if err != nil {
		return nil, warnings, err
	}

	if maxWidth > 0 {
		catalog.MaxWidth = maxWidth
	}
	if maxHeight > 0 {
		catalog.MaxHeight = maxHeight
	}
	if err := catalog.Validate(); err != nil {
		return nil, warnings, err
	}
	return catalog, warnings, nil
}
