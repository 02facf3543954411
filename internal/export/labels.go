package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/GridPlan/internal/model"
)

// CardInfo holds the data encoded into each task card's QR code.
type CardInfo struct {
	RunID   string `json:"run_id"`
	Task    int    `json:"task"`
	Label   string `json:"label"`
	Shape   int    `json:"shape"`
	Day     int    `json:"start_day"`
	Person  int    `json:"first_person"`
	Days    int    `json:"days"`
	Persons int    `json:"persons"`
	Finish  int    `json:"finish"`
}

// Card layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each card cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	cardMarginTop  = 12.7 // mm
	cardMarginLeft = 4.8  // mm
	cardWidth      = 66.7 // mm per card
	cardHeight     = 25.4 // mm per card
	cardCols       = 3
	cardRows       = 10
	cardsPerPage   = cardCols * cardRows
	qrSize         = 20.0 // QR code size in mm
	cardPadding    = 2.0  // mm internal padding
)

// CollectCardInfos lists one card per placed task of the best shape.
func CollectCardInfos(result model.Result, catalog *model.Catalog) ([]CardInfo, error) {
	if !result.HasSolution() {
		return nil, ErrNoSolution
	}
	placements, err := Placements(result.BestShape, catalog)
	if err != nil {
		return nil, err
	}
	cards := make([]CardInfo, len(placements))
	for i, p := range placements {
		cards[i] = CardInfo{
			RunID:   result.RunID,
			Task:    p.Task,
			Label:   p.Label,
			Shape:   p.Shape,
			Day:     p.Day,
			Person:  p.Person,
			Days:    p.Days,
			Persons: p.Persons,
			Finish:  p.Finish,
		}
	}
	return cards, nil
}

// ExportTaskCards generates a PDF of QR-coded cards, one per task, for
// handing out to the crew. Each card shows the task label, its time window
// and persons, and a QR code with the placement as JSON.
func ExportTaskCards(path string, result model.Result, catalog *model.Catalog) error {
	cards, err := CollectCardInfos(result, catalog)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, card := range cards {
		if i%cardsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % cardsPerPage
		col := posOnPage % cardCols
		row := posOnPage / cardCols

		x := cardMarginLeft + float64(col)*cardWidth
		y := cardMarginTop + float64(row)*cardHeight

		if err := renderCard(pdf, x, y, card); err != nil {
			return fmt.Errorf("failed to render card for %q: %w", card.Label, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderCard draws a single card at the given position.
func renderCard(pdf *fpdf.Fpdf, x, y float64, info CardInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, cardWidth, cardHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal card info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_task_%d", info.Task)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + cardWidth - qrSize - cardPadding
	qrY := y + (cardHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + cardPadding
	textW := cardWidth - qrSize - 3*cardPadding

	// Color tab matching the chart
	col := colorFor(info.Task)
	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.Rect(x, y, 1.5, cardHeight, "F")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+cardPadding)

	label := fmt.Sprintf("Task %s", info.Label)
	if pdf.GetStringWidth(label) > textW {
		for len(label) > 0 && pdf.GetStringWidth(label+"...") > textW {
			label = label[:len(label)-1]
		}
		label += "..."
	}
	pdf.CellFormat(textW, 4.5, label, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+cardPadding+5)
	window := fmt.Sprintf("Days %d-%d (finish %d)", info.Day, info.Day+info.Days-1, info.Finish)
	pdf.CellFormat(textW, 3.5, window, "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+cardPadding+9)
	crew := fmt.Sprintf("Persons %d-%d", info.Person, info.Person+info.Persons-1)
	pdf.CellFormat(textW, 3.5, crew, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+cardPadding+13)
	pdf.CellFormat(textW, 3, fmt.Sprintf("Task id %d, shape %d", info.Task, info.Shape), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}
