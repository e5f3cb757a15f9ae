package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"plrcli/internal/plr"
)

const (
	landmarksSuffix = "_plr_landmarks.csv"
	protocolSuffix  = "_plr_protocol.csv"

	// Tracker exports write microsecond wall-clock timestamps.
	timestampLayout = "2006-01-02 15:04:05.000000"
)

// DiscoverRecordings scans dataDir for per-recording subdirectories and
// returns the sorted IDs whose directory holds both the landmarks and
// the protocol file, named after the directory. Directories missing
// either file are reported and skipped rather than failing the scan.
func DiscoverRecordings(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", dataDir, err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		if _, err := os.Stat(filepath.Join(dataDir, id, id+landmarksSuffix)); err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(dataDir, id, id+protocolSuffix)); err != nil {
			slog.Warn("Skipping recording without protocol file",
				slog.String("recording_id", id),
				slog.String("dir", dataDir))
			continue
		}
		ids = append(ids, id)
	}

	sort.Strings(ids)
	return ids, nil
}

// LoadRecording reads the landmark and protocol CSV pair from the
// recording's subdirectory, dataDir/id.
func LoadRecording(dataDir, id string) (*plr.Recording, error) {
	frames, err := loadLandmarks(filepath.Join(dataDir, id, id+landmarksSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to load landmarks for %s: %w", id, err)
	}

	events, err := loadProtocol(filepath.Join(dataDir, id, id+protocolSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to load protocol for %s: %w", id, err)
	}

	return &plr.Recording{ID: id, Frames: frames, Events: events}, nil
}

// landmarkColumns maps every {eye}_lm_{n}_{x|y} header to its position,
// alongside the timestamp and retcode columns.
type landmarkColumns struct {
	timestamp int
	retcode   int
	// coords[eye][landmark] holds the x and y column indices, -1 when
	// the export lacks that landmark.
	coords [2][plr.LandmarkCount + 1][2]int
}

func mapLandmarkHeader(header []string) (*landmarkColumns, error) {
	cols := &landmarkColumns{timestamp: -1, retcode: -1}
	for eye := range cols.coords {
		for lm := range cols.coords[eye] {
			cols.coords[eye][lm] = [2]int{-1, -1}
		}
	}

	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "timestamp":
			cols.timestamp = i
			continue
		case "retcode":
			cols.retcode = i
			continue
		}

		// Remaining columns look like left_lm_12_x or right_lm_3_y.
		parts := strings.Split(name, "_")
		if len(parts) != 4 || parts[1] != "lm" {
			continue
		}
		var eye int
		switch parts[0] {
		case "left":
			eye = 0
		case "right":
			eye = 1
		default:
			continue
		}
		lm, err := strconv.Atoi(parts[2])
		if err != nil || lm < 0 || lm > plr.LandmarkCount {
			continue
		}
		switch parts[3] {
		case "x":
			cols.coords[eye][lm][0] = i
		case "y":
			cols.coords[eye][lm][1] = i
		}
	}

	if cols.timestamp == -1 {
		return nil, fmt.Errorf("landmark header is missing the timestamp column")
	}
	if cols.retcode == -1 {
		return nil, fmt.Errorf("landmark header is missing the retcode column")
	}
	return cols, nil
}

func loadLandmarks(path string) ([]plr.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols, err := mapLandmarkHeader(header)
	if err != nil {
		return nil, err
	}

	var frames []plr.Frame
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line+1, err)
		}
		line++

		frame, err := parseFrame(row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		frames = append(frames, frame)
	}

	return frames, nil
}

func parseFrame(row []string, cols *landmarkColumns) (plr.Frame, error) {
	var frame plr.Frame

	ts, err := parseTimestamp(cell(row, cols.timestamp))
	if err != nil {
		return frame, err
	}
	frame.Timestamp = ts
	frame.Retcode = cell(row, cols.retcode)

	// Coordinates of frames the tracker rejected are meaningless; the
	// retcode alone carries the information.
	if !frame.OK() {
		return frame, nil
	}

	for eye := range cols.coords {
		dst := &frame.Left
		if eye == 1 {
			dst = &frame.Right
		}
		for lm, idx := range cols.coords[eye] {
			if idx[0] == -1 || idx[1] == -1 {
				continue
			}
			x, err := strconv.ParseFloat(strings.TrimSpace(cell(row, idx[0])), 64)
			if err != nil {
				return frame, fmt.Errorf("bad x coordinate for landmark %d: %w", lm, err)
			}
			y, err := strconv.ParseFloat(strings.TrimSpace(cell(row, idx[1])), 64)
			if err != nil {
				return frame, fmt.Errorf("bad y coordinate for landmark %d: %w", lm, err)
			}
			dst[lm] = plr.Point{X: x, Y: y}
		}
	}

	return frame, nil
}

func loadProtocol(path string) ([]plr.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	timeCol, eventCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time", "timestamp":
			timeCol = i
		case "event":
			eventCol = i
		}
	}
	if timeCol == -1 || eventCol == -1 {
		return nil, fmt.Errorf("protocol header must name time and event columns, got %v", header)
	}

	var events []plr.Event
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line+1, err)
		}
		line++

		ts, err := parseTimestamp(cell(row, timeCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		events = append(events, plr.Event{
			Time: ts,
			Name: strings.TrimSpace(cell(row, eventCol)),
		})
	}

	return events, nil
}

// parseTimestamp accepts the standard microsecond layout and, as some
// exports drop the fractional part on whole seconds, the plain one.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(timestampLayout, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return ts, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
