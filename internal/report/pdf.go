package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

var groupedColumns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 70, "L"},
	{"User", 40, "L"},
	{"Price", 25, "R"},
	{"Count", 20, "R"},
	{"Total", 25, "R"},
}

// WriteGroupedPDF renders one page of the grouped-by-date report.
func WriteGroupedPDF(w io.Writer, rep *GroupedReport, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Orders grouped by date", false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Orders grouped by date")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s  |  page %d of %d", generated.Format("2006-01-02 15:04"), rep.CurrentPage, max(rep.TotalPages, 1)))
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Grand total: Rs. "+ledger.FormatAmount(rep.GrandTotal))
	pdf.Ln(10)

	for _, day := range rep.Days {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, day.Date.Format("Monday, 02 Jan 2006"))
		pdf.Ln(8)

		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)

		for _, c := range groupedColumns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
		}

		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)

		for _, r := range day.Rows {
			cells := []string{
				r.ItemName,
				r.Username,
				ledger.FormatAmount(r.Price),
				strconv.Itoa(r.Count),
				ledger.FormatAmount(r.Total),
			}

			for i, c := range groupedColumns {
				pdf.CellFormat(c.width, 6, cells[i], "1", 0, c.align, false, 0, "")
			}

			pdf.Ln(-1)
		}

		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(155, 7, "Day total", "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, ledger.FormatAmount(day.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(10)
	}

	if len(rep.Days) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 8, "No orders match the selected filters.")
	}

	return pdf.Output(w)
}
