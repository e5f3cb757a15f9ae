// Package exporter writes batch analysis results to disk.
//
// Three report families are produced per run:
//
// pipeline_summary.csv: one row per recording with its data-loss ratio,
// signal quality scores, and whether it was analyzed or rejected.
//
// biomarkers.csv: one row per (recording, eye) with the extracted
// constriction biomarkers. Eyes without a detected constriction onset
// are omitted rather than zero-filled.
//
// <id>_series.csv: the per-frame derived series of a single recording
// (calibrated pupil size, smoothed trace, openness, blink flags).
//
// A biomarkers.xlsx workbook mirrors the biomarker table for review
// tools that expect Excel input.
//
// Example usage:
//
//	w := exporter.NewWriter(outputDir)
//	err := w.WriteSummary(results, rejected)
package exporter
