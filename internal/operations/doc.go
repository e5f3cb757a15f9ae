// Package operations orchestrates a batch analysis run as a sequence
// of steps: discover recordings, analyze them on a bounded worker
// pool, and export the reports.
//
// Each step implements the Step interface and records its lifecycle in
// a StepState. One failing recording never aborts the batch: the
// compute step isolates per-recording faults, records them as rejected
// or failed, and carries on. A step-level error (unreadable data
// directory, unwritable output directory) does abort the run.
package operations
