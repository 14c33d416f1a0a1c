package export

import (
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Simplici0/quickestimate/internal/lead"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName       = "Leads"
)

// WriteXLSX writes the same columns as WriteCSV as a single-sheet workbook.
// Estimate figures are numeric cells.
func WriteXLSX(w io.Writer, records []lead.Record) error {
	header, err := csvutil.Header(Row{}, "csv")
	if err != nil {
		return eris.Wrap(err, "xlsx: build header")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}

	for _, row := range Rows(records) {
		r := sheet.AddRow()
		r.AddCell().SetInt64(row.ID)
		for _, s := range []string{row.CreatedAt, row.Name, row.Phone, row.Email, row.Zip, row.ProjectType} {
			r.AddCell().SetString(s)
		}
		for _, v := range []*float64{row.EstimateLow, row.EstimateHigh, row.MaterialsLow, row.MaterialsHigh, row.LaborLow, row.LaborHigh} {
			cell := r.AddCell()
			if v != nil {
				cell.SetFloat(*v)
			}
		}
		r.AddCell().SetString(row.Notes)
		r.AddCell().SetString(row.Photos)
	}

	return eris.Wrap(f.Write(w), "xlsx: write workbook")
}
