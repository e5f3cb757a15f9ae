package plr

import (
	"fmt"
	"time"
)

// Protocol event names bounding the stimulus-active interval.
const (
	EventFlashOn  = "FlashOn"
	EventFlashOff = "FlashOff"
)

// TimeUnit selects the unit of the elapsed-time index.
type TimeUnit string

const (
	UnitSeconds      TimeUnit = "seconds"
	UnitMilliseconds TimeUnit = "milliseconds"
)

// Elapsed returns to−from expressed in the unit.
func (u TimeUnit) Elapsed(from, to time.Time) float64 {
	d := to.Sub(from)
	if u == UnitMilliseconds {
		return float64(d) / float64(time.Millisecond)
	}
	return d.Seconds()
}

// MissingStimulusEventError reports a protocol log that lacks the flash
// onset or offset event. The recording has no usable time base and must
// be skipped; the batch continues.
type MissingStimulusEventError struct {
	RecordingID string
	Event       string
}

func (e *MissingStimulusEventError) Error() string {
	return fmt.Sprintf("recording %s: missing stimulus event %q", e.RecordingID, e.Event)
}

// Aligned is a recording re-indexed to elapsed time since flash onset.
// Elapsed and FlashActive are parallel to rec.Frames.
type Aligned struct {
	Recording     *Recording
	Unit          TimeUnit
	Elapsed       []float64
	FlashActive   []bool
	FlashDuration float64
}

// Align locates the FlashOn and FlashOff protocol events and produces
// the elapsed-time index (frame timestamp minus onset, in unit) plus the
// per-frame stimulus-active flag (timestamp within [onset, offset]
// inclusive). Exactly one onset and one offset event must exist.
func Align(rec *Recording, unit TimeUnit) (*Aligned, error) {
	onset, err := singleEvent(rec, EventFlashOn)
	if err != nil {
		return nil, err
	}
	offset, err := singleEvent(rec, EventFlashOff)
	if err != nil {
		return nil, err
	}

	a := &Aligned{
		Recording:     rec,
		Unit:          unit,
		Elapsed:       make([]float64, len(rec.Frames)),
		FlashActive:   make([]bool, len(rec.Frames)),
		FlashDuration: unit.Elapsed(onset, offset),
	}
	for i := range rec.Frames {
		ts := rec.Frames[i].Timestamp
		a.Elapsed[i] = unit.Elapsed(onset, ts)
		a.FlashActive[i] = !ts.Before(onset) && !ts.After(offset)
	}
	return a, nil
}

func singleEvent(rec *Recording, name string) (time.Time, error) {
	var t time.Time
	found := false
	for _, ev := range rec.Events {
		if ev.Name != name {
			continue
		}
		if found {
			return time.Time{}, fmt.Errorf("recording %s: duplicate stimulus event %q", rec.ID, name)
		}
		t = ev.Time
		found = true
	}
	if !found {
		return time.Time{}, &MissingStimulusEventError{RecordingID: rec.ID, Event: name}
	}
	return t, nil
}
