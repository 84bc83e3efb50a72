package meta

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quakehub/stationmeta/pkg/diag"
)

// GroupKey buckets channels of one station scope that belong to the
// same physical instrument: same band+instrument code prefix and same
// declared input unit.
type GroupKey struct {
	BandInstrument string `json:"band_instrument"`
	Unit           string `json:"unit"`
}

func (k GroupKey) String() string {
	return k.BandInstrument + "/" + k.Unit
}

// ChannelGroups maps each (network, station, location) scope to its
// candidate channel buckets.
type ChannelGroups map[NSL]map[GroupKey][]*Channel

// ChannelGroups buckets the channels matched by q per scope and group
// key. Buckets whose members disagree on sample rate are dropped
// entirely, with a warning diagnostic naming the offending channel
// codes and rates.
func (inv *Inventory) ChannelGroups(q Query) (ChannelGroups, diag.List) {
	var diags diag.List

	groups := ChannelGroups{}
	for _, e := range inv.matchChannels(q) {
		key := GroupKey{
			BandInstrument: e.channel.BandInstrumentCode(),
			Unit:           e.channel.InputUnitName(),
		}
		nsl := e.id().NSL()
		if groups[nsl] == nil {
			groups[nsl] = map[GroupKey][]*Channel{}
		}
		groups[nsl][key] = append(groups[nsl][key], e.channel)
	}

	// Two-pass filter: collect inconsistent buckets first, then rebuild
	// each scope without them.
	for nsl, buckets := range groups {
		var bad []GroupKey
		for key, channels := range buckets {
			if consistentSampleRates(channels) {
				continue
			}
			codes := make([]string, len(channels))
			rates := make([]string, len(channels))
			for i, c := range channels {
				codes[i] = c.Code
				rates[i] = formatRate(c.SampleRate)
			}
			diags.Warnf(
				"ignoring channels with inconsistent sampling rates (%s.%s: %s)",
				nsl, strings.Join(codes, ","), strings.Join(rates, ", "))
			bad = append(bad, key)
		}
		if len(bad) == 0 {
			continue
		}
		kept := map[GroupKey][]*Channel{}
		for key, channels := range buckets {
			drop := false
			for _, b := range bad {
				if key == b {
					drop = true
					break
				}
			}
			if !drop {
				kept[key] = channels
			}
		}
		groups[nsl] = kept
	}

	return groups, diags
}

// consistentSampleRates reports whether all channels of a bucket declare
// the same sample rate. A mix of declared and missing rates is always
// inconsistent; float comparison is exact.
func consistentSampleRates(channels []*Channel) bool {
	if len(channels) == 0 {
		return true
	}
	first := channels[0].SampleRate
	for _, c := range channels[1:] {
		if (c.SampleRate == nil) != (first == nil) {
			return false
		}
		if first != nil && c.SampleRate.Value != first.Value {
			return false
		}
	}
	return true
}

func formatRate(f *Float) string {
	if f == nil {
		return "unset"
	}
	return fmt.Sprintf("%e", f.Value)
}

// sortedGroupKeys returns the bucket keys of one scope in deterministic
// order.
func sortedGroupKeys(buckets map[GroupKey][]*Channel) []GroupKey {
	keys := make([]GroupKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
