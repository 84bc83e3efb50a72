package meta

import (
	"sort"
	"strings"
)

// NSL identifies a station scope: network, station and location code.
type NSL struct {
	Network  string `json:"network"`
	Station  string `json:"station"`
	Location string `json:"location"`
}

func (k NSL) String() string {
	return k.Network + "." + k.Station + "." + k.Location
}

// NSLC is the four-part identity of a channel.
type NSLC struct {
	Network  string `json:"network"`
	Station  string `json:"station"`
	Location string `json:"location"`
	Channel  string `json:"channel"`
}

func (k NSLC) String() string {
	return k.Network + "." + k.Station + "." + k.Location + "." + k.Channel
}

// NSL returns the station scope of the identity.
func (k NSLC) NSL() NSL {
	return NSL{Network: k.Network, Station: k.Station, Location: k.Location}
}

// Query narrows inventory traversals. Empty code fields match
// everything. Location is a pointer because the empty location code is
// itself a valid code: nil matches any location, a non-nil value
// matches the trimmed location code exactly. Time defaults to AnyTime.
// Allow, when non-nil, restricts channel traversals to the listed
// identities.
type Query struct {
	Network  string
	Station  string
	Location *string
	Channel  string
	Time     TimeFilter
	Allow    []NSLC
}

func (q Query) allows(id NSLC) bool {
	if q.Allow == nil {
		return true
	}
	for _, a := range q.Allow {
		if a == id {
			return true
		}
	}
	return false
}

type stationEntry struct {
	network *Network
	station *Station
}

type channelEntry struct {
	network *Network
	station *Station
	channel *Channel
}

func (e channelEntry) id() NSLC {
	return NSLC{
		Network:  e.network.Code,
		Station:  e.station.Code,
		Location: strings.TrimSpace(e.channel.LocationCode),
		Channel:  e.channel.Code,
	}
}

// matchStations returns the (network, station) pairs passing the query's
// code and time constraints.
func (inv *Inventory) matchStations(q Query) []stationEntry {
	var out []stationEntry
	for ni := range inv.Networks {
		network := &inv.Networks[ni]
		if !q.Time.Covers(network.Epoch) {
			continue
		}
		if q.Network != "" && network.Code != q.Network {
			continue
		}
		for si := range network.Stations {
			station := &network.Stations[si]
			if !q.Time.Covers(station.Epoch) {
				continue
			}
			if q.Station != "" && station.Code != q.Station {
				continue
			}
			out = append(out, stationEntry{network: network, station: station})
		}
	}
	return out
}

// matchChannels returns the (network, station, channel) triples passing
// the query.
func (inv *Inventory) matchChannels(q Query) []channelEntry {
	var out []channelEntry
	for _, se := range inv.matchStations(q) {
		for ci := range se.station.Channels {
			channel := &se.station.Channels[ci]
			if !q.Time.Covers(channel.Epoch) {
				continue
			}
			if q.Channel != "" && channel.Code != q.Channel {
				continue
			}
			if q.Location != nil && strings.TrimSpace(channel.LocationCode) != strings.TrimSpace(*q.Location) {
				continue
			}
			entry := channelEntry{network: se.network, station: se.station, channel: channel}
			if !q.allows(entry.id()) {
				continue
			}
			out = append(out, entry)
		}
	}
	return out
}

// NetworkCodes returns the sorted distinct network codes.
func (inv *Inventory) NetworkCodes() []string {
	seen := map[string]bool{}
	for i := range inv.Networks {
		seen[inv.Networks[i].Code] = true
	}
	return sortedKeys(seen)
}

// StationCodes returns the sorted distinct (network, station) pairs as
// dotted strings.
func (inv *Inventory) StationCodes() []string {
	seen := map[string]bool{}
	for ni := range inv.Networks {
		for si := range inv.Networks[ni].Stations {
			seen[inv.Networks[ni].Code+"."+inv.Networks[ni].Stations[si].Code] = true
		}
	}
	return sortedKeys(seen)
}

// ChannelIDs returns the sorted distinct NSLC identities.
func (inv *Inventory) ChannelIDs() []NSLC {
	seen := map[NSLC]bool{}
	for _, e := range inv.matchChannels(Query{}) {
		seen[e.id()] = true
	}
	out := make([]NSLC, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
