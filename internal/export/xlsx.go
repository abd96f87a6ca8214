package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// WriteLeadsXLSX writes delivered leads as a single-sheet workbook with
// the same columns as the CSV export.
func WriteLeadsXLSX(path string, records []model.DeliveryRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	headerRow := sheet.AddRow()
	for _, col := range leadsHeader() {
		headerRow.AddCell().Value = col
	}

	for _, rec := range records {
		row := sheet.AddRow()
		for _, val := range leadRow(rec) {
			row.AddCell().Value = val
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
