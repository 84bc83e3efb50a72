package meta

import (
	"sort"

	"github.com/quakehub/stationmeta/pkg/diag"
)

// ChooseOptions configures best-channel selection.
type ChooseOptions struct {
	// TargetSampleRate, when positive, is the minimum acceptable sample
	// rate. Buckets below target*0.99999 are excluded, and remaining
	// buckets are ranked by ascending rate so the closest rate at or
	// above the target wins. Without a target the highest rate wins.
	TargetSampleRate float64

	// Priority orders; lower index wins, codes not listed rank last.
	PriorityBandCodes       []string
	PriorityUnits           []string
	PriorityInstrumentCodes []string
}

// DefaultChooseOptions returns the standard priorities: broadband-first
// band codes, velocity before acceleration, high-gain before low-gain
// instruments.
func DefaultChooseOptions() ChooseOptions {
	return ChooseOptions{
		PriorityBandCodes:       []string{"H", "B", "M", "L", "V", "E", "S"},
		PriorityUnits:           []string{"M/S", "M/S**2"},
		PriorityInstrumentCodes: []string{"H", "L"},
	}
}

// bucketRank is the composite sort key over candidate buckets. Lowest
// key wins.
type bucketRank struct {
	negCount int
	bandPrio int
	rate     float64
	unitPrio int
	instPrio int
	key      GroupKey
}

func (a bucketRank) less(b bucketRank) bool {
	if a.negCount != b.negCount {
		return a.negCount < b.negCount
	}
	if a.bandPrio != b.bandPrio {
		return a.bandPrio < b.bandPrio
	}
	if a.rate != b.rate {
		return a.rate < b.rate
	}
	if a.unitPrio != b.unitPrio {
		return a.unitPrio < b.unitPrio
	}
	if a.instPrio != b.instPrio {
		return a.instPrio < b.instPrio
	}
	return a.key.String() < b.key.String()
}

// ChooseChannels picks one representative channel set per (network,
// station, location) scope: the channels matched by q are bucketed with
// ChannelGroups, buckets below the target rate are excluded, the rest
// are ranked by member count, band priority, rate, unit priority,
// instrument priority and finally the bucket key itself, and the best
// bucket's channels are returned keyed by their full identity.
func (inv *Inventory) ChooseChannels(q Query, opts ChooseOptions) (map[NSLC]*Channel, diag.List) {
	groups, diags := inv.ChannelGroups(q)

	chosen := map[NSLC]*Channel{}
	for nsl, buckets := range groups {
		var ranks []bucketRank
		for _, key := range sortedGroupKeys(buckets) {
			channels := buckets[key]
			rate := 0.0
			if channels[0].SampleRate != nil {
				rate = channels[0].SampleRate.Value
			}

			if opts.TargetSampleRate > 0 && rate < opts.TargetSampleRate*0.99999 {
				continue
			}

			r := bucketRank{
				negCount: -len(channels),
				bandPrio: priorityIndex(opts.PriorityBandCodes, bandCode(channels[0].Code)),
				unitPrio: priorityIndex(opts.PriorityUnits, key.Unit),
				instPrio: priorityIndex(opts.PriorityInstrumentCodes, instrumentCode(channels[0].Code)),
				key:      key,
			}
			if opts.TargetSampleRate > 0 {
				r.rate = rate
			} else {
				r.rate = -rate
			}
			ranks = append(ranks, r)
		}

		if len(ranks) == 0 {
			continue
		}
		sort.Slice(ranks, func(i, j int) bool { return ranks[i].less(ranks[j]) })

		winner := buckets[ranks[0].key]
		sort.Slice(winner, func(i, j int) bool { return winner[i].Code < winner[j].Code })
		for _, channel := range winner {
			id := NSLC{
				Network:  nsl.Network,
				Station:  nsl.Station,
				Location: nsl.Location,
				Channel:  channel.Code,
			}
			chosen[id] = channel
		}
	}

	return chosen, diags
}

// bandCode returns the frequency-band character of a 3-letter channel
// code, or "" for other lengths.
func bandCode(code string) string {
	if len(code) == 3 {
		return code[:1]
	}
	return ""
}

// instrumentCode returns the sensor-family character of a 3-letter
// channel code, or "" for other lengths.
func instrumentCode(code string) string {
	if len(code) == 3 {
		return code[1:2]
	}
	return ""
}

// priorityIndex ranks a value by its position in a priority list;
// values not listed (including "") rank after every listed value.
func priorityIndex(priorities []string, value string) int {
	if value != "" {
		for i, p := range priorities {
			if p == value {
				return i
			}
		}
	}
	return len(priorities)
}
