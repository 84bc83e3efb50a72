package meta

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/quakehub/stationmeta/pkg/diag"
)

// GeometryPolicy controls how FlatStations treats grouped channels that
// disagree on position.
type GeometryPolicy int

const (
	// GeometryWarn averages the positions (ignoring non-finite
	// components) and records a warning diagnostic.
	GeometryWarn GeometryPolicy = iota
	// GeometryStrict fails with an InconsistentGeometryError instead.
	GeometryStrict
)

// InconsistentGeometryError reports channels of one sensor scope that
// disagree on lat/lon/elevation/depth under GeometryStrict.
type InconsistentGeometryError struct {
	Scope   NSL
	Details string
}

func (e *InconsistentGeometryError) Error() string {
	return fmt.Sprintf(
		"encountered inconsistencies in channel lat/lon/elevation/depth for %s:\n%s",
		e.Scope, e.Details)
}

// FlatChannel is a channel reduced to its code and orientation.
type FlatChannel struct {
	Code    string   `json:"code"`
	Azimuth *float64 `json:"azimuth,omitempty"`
	Dip     *float64 `json:"dip,omitempty"`
}

// FlatStation is one physical sensor site: the channels sharing a
// (network, station, location) scope folded into a single record with a
// representative position. A channel-less station flattens to a record
// with no channels and the location code "*".
type FlatStation struct {
	Network   string        `json:"network"`
	Station   string        `json:"station"`
	Location  string        `json:"location"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Elevation float64       `json:"elevation"`
	Depth     float64       `json:"depth"`
	Name      string        `json:"name,omitempty"`
	Channels  []FlatChannel `json:"channels,omitempty"`
}

// MarshalJSON renders non-finite elevation and depth components as null;
// JSON has no NaN literal.
func (fs FlatStation) MarshalJSON() ([]byte, error) {
	type alias FlatStation
	aux := struct {
		alias
		Elevation *float64 `json:"elevation"`
		Depth     *float64 `json:"depth"`
	}{alias: alias(fs)}
	if !math.IsNaN(fs.Elevation) && !math.IsInf(fs.Elevation, 0) {
		aux.Elevation = &fs.Elevation
	}
	if !math.IsNaN(fs.Depth) && !math.IsInf(fs.Depth, 0) {
		aux.Depth = &fs.Depth
	}
	return json.Marshal(aux)
}

// FlatStations folds the inventory into per-sensor-site records for
// consumption by processing pipelines that work on flat station lists.
func (inv *Inventory) FlatStations(q Query, policy GeometryPolicy) ([]FlatStation, diag.List, error) {
	var out []FlatStation
	var diags diag.List

	for _, se := range inv.matchStations(q) {
		if len(se.station.Channels) == 0 {
			out = append(out, FlatStation{
				Network:   se.network.Code,
				Station:   se.station.Code,
				Location:  "*",
				Latitude:  se.station.Latitude.Value,
				Longitude: se.station.Longitude.Value,
				Elevation: valueOrNaN(se.station.Elevation),
				Depth:     math.NaN(),
				Name:      se.station.Description,
			})
			continue
		}

		locToChannels := map[string][]*Channel{}
		for ci := range se.station.Channels {
			channel := &se.station.Channels[ci]
			if !q.Time.Covers(channel.Epoch) {
				continue
			}
			loc := strings.TrimSpace(channel.LocationCode)
			locToChannels[loc] = append(locToChannels[loc], channel)
		}

		for _, loc := range sortedKeys(locKeySet(locToChannels)) {
			channels := locToChannels[loc]
			nsl := NSL{Network: se.network.Code, Station: se.station.Code, Location: loc}

			if q.Allow != nil {
				var kept []*Channel
				for _, channel := range channels {
					id := NSLC{Network: nsl.Network, Station: nsl.Station, Location: loc, Channel: channel.Code}
					if q.allows(id) {
						kept = append(kept, channel)
					}
				}
				channels = kept
			}
			if len(channels) == 0 {
				continue
			}

			flat, fdiags, err := flattenSensor(nsl, channels, policy)
			diags.Extend(fdiags)
			if err != nil {
				return nil, diags, err
			}
			out = append(out, flat)
		}
	}

	return out, diags, nil
}

func flattenSensor(nsl NSL, channels []*Channel, policy GeometryPolicy) (FlatStation, diag.List, error) {
	var diags diag.List

	if !consistentPositions(channels) {
		var lines []string
		for _, c := range channels {
			lat, lon, ele, dep := c.Position()
			lines = append(lines, fmt.Sprintf("    %s: (%g, %g, %g, %g)", c.Code, lat, lon, ele, dep))
		}
		details := strings.Join(lines, "\n")

		if policy == GeometryStrict {
			return FlatStation{}, diags, &InconsistentGeometryError{Scope: nsl, Details: details}
		}
		diags.Warnf(
			"encountered inconsistencies in channel lat/lon/elevation/depth for %s:\n%s\n -> using mean values",
			nsl, details)
	}

	lat, lon, ele, dep := meanPosition(channels)

	flat := FlatStation{
		Network:   nsl.Network,
		Station:   nsl.Station,
		Location:  nsl.Location,
		Latitude:  lat,
		Longitude: lon,
		Elevation: ele,
		Depth:     dep,
	}
	for _, c := range channels {
		flat.Channels = append(flat.Channels, FlatChannel{
			Code:    c.Code,
			Azimuth: floatValue(c.Azimuth),
			Dip:     floatValue(c.Dip),
		})
	}
	sort.Slice(flat.Channels, func(i, j int) bool { return flat.Channels[i].Code < flat.Channels[j].Code })

	return flat, diags, nil
}

func consistentPositions(channels []*Channel) bool {
	lat0, lon0, ele0, dep0 := channels[0].Position()
	for _, c := range channels[1:] {
		lat, lon, ele, dep := c.Position()
		if lat != lat0 || lon != lon0 || !sameOrBothNaN(ele, ele0) || !sameOrBothNaN(dep, dep0) {
			return false
		}
	}
	return true
}

// meanPosition averages each position component over the channels,
// summing only finite values and dividing by the count of finite values
// for that component. A component with no finite values averages to NaN.
func meanPosition(channels []*Channel) (lat, lon, ele, dep float64) {
	var sums, counts [4]float64
	for _, c := range channels {
		vals := [4]float64{}
		vals[0], vals[1], vals[2], vals[3] = c.Position()
		for i, v := range vals {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			sums[i] += v
			counts[i]++
		}
	}
	means := [4]float64{}
	for i := range means {
		if counts[i] == 0 {
			means[i] = math.NaN()
		} else {
			means[i] = sums[i] / counts[i]
		}
	}
	return means[0], means[1], means[2], means[3]
}

func sameOrBothNaN(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

func floatValue(f *Float) *float64 {
	if f == nil {
		return nil
	}
	v := f.Value
	return &v
}

func locKeySet(m map[string][]*Channel) map[string]bool {
	out := map[string]bool{}
	for k := range m {
		out[k] = true
	}
	return out
}
