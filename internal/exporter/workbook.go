package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"plrcli/internal/plr"
)

// WriteWorkbook writes biomarkers.xlsx, the biomarker table in a form
// review tools ingest directly. One sheet, frozen header row.
func (w *Writer) WriteWorkbook(results []*plr.Result) error {
	const sheet = "Biomarkers"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := []string{
		"Recording", "Eye", "Latency", "Amplitude (mm)",
		"Avg Velocity (mm/s)", "Peak Velocity (mm/s)", "Time of Max Constriction",
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := 2
	for _, res := range results {
		for _, eye := range plr.Eyes {
			er, ok := res.Eyes[eye]
			if !ok || er.Biomarkers == nil {
				continue
			}
			bm := er.Biomarkers
			values := []interface{}{
				res.RecordingID, eye.String(), bm.Latency, bm.Amplitude,
				bm.AvgVelocity, bm.PeakVelocity, bm.MaxConstrictionTime,
			}
			for i, v := range values {
				cell, err := excelize.CoordinatesToCellName(i+1, row)
				if err != nil {
					return fmt.Errorf("failed to compute cell: %w", err)
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return fmt.Errorf("failed to write row %d: %w", row, err)
				}
			}
			row++
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(w.outputDir, "biomarkers.xlsx")
	slog.Info("Writing biomarker workbook",
		slog.String("file", "biomarkers.xlsx"),
		slog.Int("row_count", row-2))

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
