// Package dataprocessing reads PLR recording exports from disk and
// turns them into in-memory recordings for the analysis engine.
//
// Each recording lives in its own subdirectory of the data directory,
// holding a pair of CSV files named after it:
//
//	<id>/<id>_plr_landmarks.csv   per-frame tracker output: timestamp,
//	                              retcode, and one x/y column pair per
//	                              facial landmark and eye
//	<id>/<id>_plr_protocol.csv    stimulus protocol events (FlashOn,
//	                              FlashOff) with their wall-clock times
//
// Column positions are never assumed: the landmark header row is mapped
// by name, so exports with reordered or extra columns still load.
//
// Basic usage:
//
//	ids, err := dataprocessing.DiscoverRecordings(dataDir)
//	for _, id := range ids {
//	    rec, err := dataprocessing.LoadRecording(dataDir, id)
//	    ...
//	}
package dataprocessing
