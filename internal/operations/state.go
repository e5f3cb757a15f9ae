package operations

import (
	"sync"

	"plrcli/internal/exporter"
	"plrcli/internal/plr"
)

// RunState carries the inputs and accumulating outputs of one batch
// run across steps. Step executors mutate it through the locked
// methods only.
type RunState struct {
	RunID     string
	DataDir   string
	OutputDir string
	Workers   int
	Engine    plr.Config

	mu           sync.Mutex
	recordingIDs []string
	results      []*plr.Result
	rejected     []exporter.RejectedRecording
	failed       []error
	stepStates   map[string]*StepState
}

// NewRunState creates the state for a fresh batch run.
func NewRunState(runID, dataDir, outputDir string, workers int, engine plr.Config) *RunState {
	return &RunState{
		RunID:      runID,
		DataDir:    dataDir,
		OutputDir:  outputDir,
		Workers:    workers,
		Engine:     engine,
		stepStates: make(map[string]*StepState),
	}
}

// SetRecordingIDs stores the discovered recording IDs.
func (s *RunState) SetRecordingIDs(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordingIDs = ids
}

// RecordingIDs returns a copy of the discovered recording IDs.
func (s *RunState) RecordingIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.recordingIDs))
	copy(out, s.recordingIDs)
	return out
}

// AddResult records a successfully analyzed recording.
func (s *RunState) AddResult(res *plr.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
}

// Results returns a copy of the analyzed results.
func (s *RunState) Results() []*plr.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*plr.Result, len(s.results))
	copy(out, s.results)
	return out
}

// AddRejected records a recording excluded from analysis.
func (s *RunState) AddRejected(r exporter.RejectedRecording) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, r)
}

// Rejected returns a copy of the rejected recordings.
func (s *RunState) Rejected() []exporter.RejectedRecording {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]exporter.RejectedRecording, len(s.rejected))
	copy(out, s.rejected)
	return out
}

// AddFailure records a recording-scoped failure that was isolated
// rather than aborting the batch.
func (s *RunState) AddFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, err)
}

// Failures returns a copy of the recorded per-recording failures.
func (s *RunState) Failures() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.failed))
	copy(out, s.failed)
	return out
}

// StepState returns the named step state, creating it on first use.
func (s *RunState) StepState(id, name string) *StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stepStates[id]; ok {
		return st
	}
	st := NewStepState(id, name)
	s.stepStates[id] = st
	return st
}
