package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/piwi3910/GridPlan/internal/export"
	"github.com/piwi3910/GridPlan/internal/model"
)

var formatExtensions = map[string]string{
	"pdf":   ".pdf",
	"dxf":   ".dxf",
	"xlsx":  ".xlsx",
	"cards": "-cards.pdf",
}

func validFormat(format string) error {
	if format == "text" {
		return nil
	}
	if _, ok := formatExtensions[format]; !ok {
		return fmt.Errorf("unknown output format %q (text, pdf, dxf, xlsx, cards)", format)
	}
	return nil
}

func (c *cli) outputFormat() string {
	if c.v.IsSet("format") {
		return c.v.GetString("format")
	}
	if c.app.DefaultFormat != "" {
		return c.app.DefaultFormat
	}
	return "text"
}

// outputPath returns --output, or gridplan-<run>.<ext> in the saved output dir.
func (c *cli) outputPath(format string, result model.Result) string {
	if path := c.v.GetString("output"); path != "" {
		return path
	}
	id := result.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return filepath.Join(c.app.OutputDir, "gridplan-"+id+formatExtensions[format])
}

// writeResult prints the run summary and renders the best packing in the
// requested format. Unsolved results end with errNoSolution.
func (c *cli) writeResult(w io.Writer, format string, result model.Result, catalog *model.Catalog) error {
	opts := c.textOptions()
	if err := export.WriteSummary(w, result, catalog, opts); err != nil {
		return err
	}
	if !result.HasSolution() {
		return errNoSolution
	}

	if format == "text" {
		fmt.Fprintln(w)
		return export.RenderGrid(w, result, catalog, opts)
	}

	path := c.outputPath(format, result)
	var err error
	switch format {
	case "pdf":
		err = export.ExportPDF(path, result, catalog)
	case "dxf":
		err = export.ExportDXF(path, result, catalog)
	case "xlsx":
		err = export.ExportWorkbook(path, result, catalog)
	case "cards":
		err = export.ExportTaskCards(path, result, catalog)
	default:
		err = validFormat(format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", path)
	return nil
}
