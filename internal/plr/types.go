package plr

import (
	"math"
	"time"
)

// Eye identifies one of the two measured eyes.
type Eye int

const (
	EyeLeft Eye = iota
	EyeRight
)

// Eyes lists both eyes in processing order.
var Eyes = [2]Eye{EyeLeft, EyeRight}

// String returns the lower-case eye name used in file headers and logs.
func (e Eye) String() string {
	if e == EyeLeft {
		return "left"
	}
	return "right"
}

// LandmarkCount is the number of named landmarks recorded per eye.
const LandmarkCount = 27

// RetcodeOK marks a frame whose landmark detection succeeded. Any other
// retcode invalidates every measurement derived from that frame.
const RetcodeOK = "OK"

// Point is a 2-D landmark coordinate in pixels.
type Point struct {
	X float64
	Y float64
}

// Dist returns the Euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Frame is one sampled video frame: an absolute timestamp, a validity
// code, and 27 landmark coordinates per eye. Landmark IDs are 1-based;
// index 0 of the arrays is unused.
type Frame struct {
	Timestamp time.Time
	Retcode   string
	Left      [LandmarkCount + 1]Point
	Right     [LandmarkCount + 1]Point
}

// OK reports whether landmark detection succeeded for this frame.
func (f *Frame) OK() bool {
	return f.Retcode == RetcodeOK
}

// Landmarks returns the landmark array for the given eye.
func (f *Frame) Landmarks(eye Eye) *[LandmarkCount + 1]Point {
	if eye == EyeLeft {
		return &f.Left
	}
	return &f.Right
}

// Event is one named entry of the stimulus protocol log.
type Event struct {
	Time time.Time
	Name string
}

// Recording is one complete PLR acquisition: the ordered frame series
// and the protocol event log. Frames are ordered by acquisition.
type Recording struct {
	ID     string
	Frames []Frame
	Events []Event
}

// DataLoss returns the fraction of frames whose retcode is not OK.
// An empty recording counts as full loss.
func (r *Recording) DataLoss() float64 {
	if len(r.Frames) == 0 {
		return 1
	}
	ok := 0
	for i := range r.Frames {
		if r.Frames[i].OK() {
			ok++
		}
	}
	return 1 - float64(ok)/float64(len(r.Frames))
}
