// Package chantab loads FDSN channel-level text tables into a metadata
// inventory. The format is one pipe-separated record per line:
//
//	net|sta|loc|cha|lat|lon|elev|depth|azimuth|dip|sensor|scale|
//	scaleFreq|scaleUnits|sampleRate|start|end
//
// with '#' comment lines ignored.
package chantab

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quakehub/stationmeta/pkg/diag"
	"github.com/quakehub/stationmeta/pkg/meta"
)

const fieldCount = 17

// InvalidRecordError reports a line that does not decompose into the
// expected fields or fails type validation.
type InvalidRecordError struct {
	Line string
	Err  error
}

func (e *InvalidRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid record: %q: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("invalid record: %q", e.Line)
}

func (e *InvalidRecordError) Unwrap() error { return e.Err }

// Options controls load behavior.
type Options struct {
	// SkipInvalid records a diagnostic for each malformed line and
	// continues instead of failing the whole load.
	SkipInvalid bool
}

// Load reads a channel table and builds an inventory. With
// Options.SkipInvalid unset, the first malformed record aborts the load.
func Load(r io.Reader, opts Options) (*meta.Inventory, diag.List, error) {
	var diags diag.List

	networks := map[string]*meta.Network{}
	stations := map[[2]string]*meta.Station{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			if opts.SkipInvalid {
				diags.Warnf("skipping %v", err)
				continue
			}
			return nil, diags, err
		}

		network, ok := networks[rec.net]
		if !ok {
			network = &meta.Network{Code: rec.net}
			networks[rec.net] = network
		}

		stationKey := [2]string{rec.net, rec.sta}
		station, ok := stations[stationKey]
		if !ok {
			station = &meta.Station{
				Code:      rec.sta,
				Latitude:  meta.Float{Value: rec.lat},
				Longitude: meta.Float{Value: rec.lon},
				Elevation: &meta.Float{Value: rec.elevation},
			}
			stations[stationKey] = station
		}

		station.Channels = append(station.Channels, rec.channel())
	}
	if err := scanner.Err(); err != nil {
		return nil, diags, fmt.Errorf("reading channel table: %w", err)
	}

	codes := make([]string, 0, len(networks))
	for code := range networks {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	now := time.Now().UTC()
	inv := &meta.Inventory{
		Source:  "created from table input",
		Created: &now,
	}
	for _, code := range codes {
		network := networks[code]
		for key, station := range stations {
			if key[0] == code {
				network.Stations = append(network.Stations, *station)
			}
		}
		sort.Slice(network.Stations, func(i, j int) bool {
			return network.Stations[i].Code < network.Stations[j].Code
		})
		inv.Networks = append(inv.Networks, *network)
	}

	return inv, diags, nil
}

type record struct {
	net, sta, loc, cha string
	lat, lon           float64
	elevation, depth   float64
	azimuth, dip       *float64
	sensorDesc         string
	scale, scaleFreq   *float64
	scaleUnits         string
	sampleRate         *float64
	startDate, endDate *time.Time
}

func parseLine(line string) (*record, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "|")
	if len(fields) != fieldCount {
		return nil, &InvalidRecordError{
			Line: line,
			Err:  fmt.Errorf("got %d fields, expected %d", len(fields), fieldCount),
		}
	}

	rec := &record{
		net:        fields[0],
		sta:        fields[1],
		loc:        strings.TrimSpace(fields[2]),
		cha:        fields[3],
		sensorDesc: fields[10],
		scaleUnits: fields[13],
	}

	var err error
	parse := func(name, value string) float64 {
		if err != nil {
			return 0
		}
		v, convErr := strconv.ParseFloat(value, 64)
		if convErr != nil {
			err = fmt.Errorf("field %s: %v", name, convErr)
		}
		return v
	}
	parseOpt := func(name, value string) *float64 {
		if value == "" {
			return nil
		}
		v := parse(name, value)
		return &v
	}

	rec.lat = parse("latitude", fields[4])
	rec.lon = parse("longitude", fields[5])
	rec.elevation = parse("elevation", fields[6])
	rec.depth = parse("depth", fields[7])
	rec.azimuth = parseOpt("azimuth", fields[8])
	rec.dip = parseOpt("dip", fields[9])
	rec.scale = parseOpt("scale", fields[11])
	rec.scaleFreq = parseOpt("scale frequency", fields[12])
	rec.sampleRate = parseOpt("sample rate", fields[14])
	if err != nil {
		return nil, &InvalidRecordError{Line: line, Err: err}
	}

	if rec.startDate, err = parseTime("start date", fields[15]); err != nil {
		return nil, &InvalidRecordError{Line: line, Err: err}
	}
	if rec.endDate, err = parseTime("end date", fields[16]); err != nil {
		return nil, &InvalidRecordError{Line: line, Err: err}
	}

	return rec, nil
}

func (rec *record) channel() meta.Channel {
	channel := meta.Channel{
		Code:         rec.cha,
		LocationCode: rec.loc,
		Epoch:        meta.Epoch{Start: rec.startDate, End: rec.endDate},
		Latitude:     meta.Float{Value: rec.lat},
		Longitude:    meta.Float{Value: rec.lon},
		Elevation:    &meta.Float{Value: rec.elevation},
		Depth:        &meta.Float{Value: rec.depth},
		SensorDesc:   rec.sensorDesc,
	}
	if rec.azimuth != nil {
		channel.Azimuth = &meta.Float{Value: *rec.azimuth}
	}
	if rec.dip != nil {
		channel.Dip = &meta.Float{Value: *rec.dip}
	}
	if rec.sampleRate != nil {
		channel.SampleRate = &meta.Float{Value: *rec.sampleRate}
	}
	if rec.scale != nil {
		sens := &meta.Sensitivity{Gain: meta.Gain{Value: *rec.scale}}
		if rec.scaleFreq != nil {
			sens.Frequency = *rec.scaleFreq
		}
		if rec.scaleUnits != "" {
			sens.InputUnits = &meta.Units{Name: rec.scaleUnits}
		}
		channel.Response = &meta.Response{InstrumentSensitivity: sens}
	}
	return channel
}

var timeLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05.999999Z07:00",
	"2006-01-02",
}

func parseTime(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("field %s: unparseable time %q", name, value)
}
