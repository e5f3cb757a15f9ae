package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"plrcli/internal/plr"
)

// Writer produces the CSV and workbook reports of a batch run, all
// rooted at a single output directory.
type Writer struct {
	outputDir string
}

// NewWriter creates a report writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// RejectedRecording describes a recording that was excluded from
// analysis, kept in the summary so the batch accounts for every input.
type RejectedRecording struct {
	RecordingID string
	DataLoss    float64
	Reason      string
}

// WriteSummary writes pipeline_summary.csv covering analyzed and
// rejected recordings alike.
func (w *Writer) WriteSummary(results []*plr.Result, rejected []RejectedRecording) error {
	headers := []string{
		"recording_id", "status", "dataloss_ratio", "dataloss_elevated",
		"raw_quality", "smooth_quality", "reason",
	}

	var records [][]string
	for _, res := range results {
		records = append(records, []string{
			res.RecordingID,
			"analyzed",
			formatRatio(res.DataLoss),
			strconv.FormatBool(res.DataLossElevated),
			formatValue(res.Quality.Raw),
			formatValue(res.Quality.Smooth),
			"",
		})
	}
	for _, r := range rejected {
		records = append(records, []string{
			r.RecordingID,
			"rejected",
			formatRatio(r.DataLoss),
			"",
			"",
			"",
			r.Reason,
		})
	}

	return w.writeCSV("pipeline_summary.csv", headers, records)
}

// WriteBiomarkers writes biomarkers.csv with one row per analyzed
// (recording, eye). Eyes whose constriction onset was never detected
// are omitted.
func (w *Writer) WriteBiomarkers(results []*plr.Result) error {
	headers := []string{
		"recording_id", "eye", "latency", "amplitude_mm",
		"avg_velocity_mm_s", "peak_velocity_mm_s", "max_constriction_time",
	}

	var records [][]string
	for _, res := range results {
		for _, eye := range plr.Eyes {
			er, ok := res.Eyes[eye]
			if !ok || er.Biomarkers == nil {
				continue
			}
			bm := er.Biomarkers
			records = append(records, []string{
				res.RecordingID,
				eye.String(),
				formatValue(bm.Latency),
				formatValue(bm.Amplitude),
				formatValue(bm.AvgVelocity),
				formatValue(bm.PeakVelocity),
				formatValue(bm.MaxConstrictionTime),
			})
		}
	}

	return w.writeCSV("biomarkers.csv", headers, records)
}

// WriteSeries writes <id>_series.csv, the per-frame derived series of
// one recording. Missing samples become empty cells.
func (w *Writer) WriteSeries(res *plr.Result) error {
	headers := []string{"time", "flash_active"}
	for _, eye := range plr.Eyes {
		prefix := eye.String()
		headers = append(headers,
			prefix+"_pupil_mm",
			prefix+"_smooth_mm",
			prefix+"_openness",
			prefix+"_blink",
		)
	}

	records := make([][]string, 0, len(res.Elapsed))
	for i := range res.Elapsed {
		row := []string{
			formatValue(res.Elapsed[i]),
			strconv.FormatBool(res.FlashActive[i]),
		}
		for _, eye := range plr.Eyes {
			er := res.Eyes[eye]
			row = append(row,
				formatSample(er.PupilMM, i),
				formatSample(er.SmoothMM, i),
				formatSample(er.Openness, i),
				strconv.FormatBool(er.Blink[i]),
			)
		}
		records = append(records, row)
	}

	return w.writeCSV(res.RecordingID+"_series.csv", headers, records)
}

// writeCSV writes a report file under the output directory, with a
// UTF-8 BOM so spreadsheet tools pick up the encoding.
func (w *Writer) writeCSV(name string, headers []string, records [][]string) error {
	fullPath := filepath.Join(w.outputDir, name)

	slog.Info("Writing CSV report",
		slog.String("file", name),
		slog.Int("record_count", len(records)))

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatSample(s plr.Series, i int) string {
	v, ok := s.At(i)
	if !ok {
		return ""
	}
	return formatValue(v)
}
