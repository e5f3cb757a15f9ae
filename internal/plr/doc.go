// Package plr implements the numeric engine for pupillary-light-reflex
// analysis. It turns per-frame eye landmark coordinates into calibrated
// pupil-size series and clinical constriction biomarkers.
//
// # Pipeline
//
// The engine runs a fixed sequence of pure-compute stages over one
// recording at a time:
//
//  1. Align: re-index frames to elapsed time since flash onset
//  2. MeasureGeometry: landmark-pair distances (pupil, iris, eyelid gaps)
//  3. DetectBlinks: derivative-and-threshold blink mask
//  4. Calibrate: pixel to millimetre conversion via the iris reference
//  5. Smooth: centered weighted moving average
//  6. ScoreSignalQuality: RMS successive-difference quality scores
//  7. ExtractBiomarkers: constriction latency, amplitude and velocities
//
// Calculator ties the stages together for a whole recording; the
// individual stage functions are exported so callers can run or test
// them in isolation.
//
// # Missingness
//
// Every derived value is a Sample carrying an explicit validity flag.
// A frame whose retcode is not "OK", or that falls inside a blink,
// contributes no value to any derived series; arithmetic over missing
// operands yields missing. Nothing in this package produces NaN or Inf.
//
// The package performs no I/O and holds no state across recordings.
package plr
