package seedvol

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Event is one origin record extracted from a volume's event summary.
type Event struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	Depth     float64 // meters
	Magnitude float64
}

// StationRecord is one station summary row. Components lists the
// channel codes recorded at the station.
type StationRecord struct {
	Network    string
	Station    string
	Latitude   float64
	Longitude  float64
	Elevation  float64
	Name       string
	Components []string
}

const eventTimeLayout = "2006/01/02 15:04:05"

// Events parses the extracted event summary file. A missing file means
// the volume carries no event records.
func (v *VolumeAccess) Events() ([]Event, error) {
	data, err := os.ReadFile(filepath.Join(v.workDir, "rdseed.events"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		toks := strings.Split(line, ", ")
		if len(toks) != 9 {
			return nil, fmt.Errorf("event record in unrecognized format: %q", line)
		}

		stamp := strings.SplitN(toks[1], ".", 2)[0]
		t, err := time.Parse(eventTimeLayout, stamp)
		if err != nil {
			return nil, fmt.Errorf("event record %q: %v", line, err)
		}

		var ev Event
		ev.Time = t.UTC()
		fields := []struct {
			dst *float64
			tok string
		}{
			{&ev.Latitude, toks[2]},
			{&ev.Longitude, toks[3]},
			{&ev.Depth, toks[4]},
			{&ev.Magnitude, toks[8]},
		}
		for _, f := range fields {
			*f.dst, err = strconv.ParseFloat(strings.TrimSpace(f.tok), 64)
			if err != nil {
				return nil, fmt.Errorf("event record %q: %v", line, err)
			}
		}
		ev.Depth *= 1000.0 // km to meters

		events = append(events, ev)
	}
	return events, nil
}

// Stations parses the extracted station summary file.
func (v *VolumeAccess) Stations() ([]StationRecord, error) {
	data, err := os.ReadFile(filepath.Join(v.workDir, "rdseed.stations"))
	if err != nil {
		return nil, err
	}
	return parseStationTable(string(data))
}

// parseStationTable tokenizes the station summary: whitespace-separated
// columns where double-quoted strings form single tokens and may contain
// line breaks (descriptions sometimes wrap).
func parseStationTable(data string) ([]StationRecord, error) {
	var stations []StationRecord
	for _, cols := range tokenizeRows(data) {
		if len(cols) < 7 {
			return nil, fmt.Errorf("station record too short: %v", cols)
		}
		rec := StationRecord{
			Station:    cols[0],
			Network:    cols[1],
			Name:       cols[6],
			Components: strings.Fields(cols[5]),
		}
		var err error
		if rec.Latitude, err = strconv.ParseFloat(cols[2], 64); err != nil {
			return nil, fmt.Errorf("station %s: bad latitude %q", rec.Station, cols[2])
		}
		if rec.Longitude, err = strconv.ParseFloat(cols[3], 64); err != nil {
			return nil, fmt.Errorf("station %s: bad longitude %q", rec.Station, cols[3])
		}
		if rec.Elevation, err = strconv.ParseFloat(cols[4], 64); err != nil {
			return nil, fmt.Errorf("station %s: bad elevation %q", rec.Station, cols[4])
		}
		stations = append(stations, rec)
	}
	return stations, nil
}

// tokenizeRows splits the summary text into rows of tokens. Outside
// quotes, any whitespace separates tokens and newlines end rows. Inside
// quotes everything including newlines belongs to the token.
func tokenizeRows(data string) [][]string {
	var rows [][]string
	var cols []string
	var token strings.Builder
	inToken, inQuote := false, false

	endToken := func() {
		cols = append(cols, token.String())
		token.Reset()
	}
	endRow := func() {
		if len(cols) > 0 {
			rows = append(rows, cols)
			cols = nil
		}
	}

	for _, c := range data {
		switch {
		case inQuote:
			if c == '"' {
				endToken()
				inQuote = false
			} else {
				token.WriteRune(c)
			}
		case c == '"':
			inQuote = true
			inToken = false
		case c == ' ' || c == '\t':
			if inToken {
				endToken()
				inToken = false
			}
		case c == '\n' || c == '\r':
			if inToken {
				endToken()
				inToken = false
			}
			endRow()
		default:
			inToken = true
			token.WriteRune(c)
		}
	}
	if inToken || inQuote {
		endToken()
	}
	endRow()

	return rows
}
