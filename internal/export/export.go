// Package export writes delivery records to spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/imcadom/entregas/internal/model"
)

const (
	// SheetName is the name of the only sheet in an export.
	SheetName = "Entregas"
	// Filename is the download name of an export.
	Filename = "entregas.xlsx"
	// ContentType is the MIME type of an export.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Columns is the export header row. Return state is not exported.
var Columns = []string{"Fecha", "Equipo", "Tipo", "IMEI", "Entregado a", "Observaciones"}

// WriteDeliveries writes deliveries as an xlsx workbook to w, one row per
// delivery in the given order.
func WriteDeliveries(w io.Writer, deliveries []model.Delivery) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, d := range deliveries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			d.CreatedAt.Format(model.TimestampLayout),
			d.EquipmentName,
			d.EquipmentType,
			d.IMEI,
			d.RecipientName,
			d.Notes,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("writing delivery %d: %w", d.ID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
