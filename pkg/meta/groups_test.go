package meta

import (
	"reflect"
	"strings"
	"testing"
)

func testChannel(code string, rate float64, inputUnit string) Channel {
	c := Channel{
		Code:       code,
		Latitude:   Float{Value: 48.0},
		Longitude:  Float{Value: 11.0},
		SampleRate: &Float{Value: rate},
	}
	if inputUnit != "" {
		c.Response = &Response{
			InstrumentSensitivity: &Sensitivity{
				Gain:       Gain{Value: 1.0, Frequency: 1.0},
				InputUnits: &Units{Name: inputUnit},
			},
		}
	}
	return c
}

func testInventory(channels ...Channel) *Inventory {
	return &Inventory{Networks: []Network{{
		Code: "GR",
		Stations: []Station{{
			Code:      "FUR",
			Latitude:  Float{Value: 48.0},
			Longitude: Float{Value: 11.0},
			Channels:  channels,
		}},
	}}}
}

func TestBandInstrumentCode(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"BHZ", "BH"},
		{"HHN", "HH"},
		{"Z", ""},
		{"BDF2", "BDF2"},
		{"LH", "LH"},
	}
	for _, tt := range tests {
		c := Channel{Code: tt.code}
		if got := c.BandInstrumentCode(); got != tt.expected {
			t.Errorf("BandInstrumentCode(%q) = %q, expected %q", tt.code, got, tt.expected)
		}
	}
}

func TestChannelGroupsBucketsByKeyAndUnit(t *testing.T) {
	inv := testInventory(
		testChannel("BHZ", 20.0, "M/S"),
		testChannel("BHN", 20.0, "M/S"),
		testChannel("BHE", 20.0, "M/S"),
		testChannel("HHZ", 100.0, "M/S"),
	)

	groups, diags := inv.ChannelGroups(Query{})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	nsl := NSL{Network: "GR", Station: "FUR", Location: ""}
	buckets := groups[nsl]
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, expected 2", len(buckets))
	}
	if got := len(buckets[GroupKey{BandInstrument: "BH", Unit: "M/S"}]); got != 3 {
		t.Errorf("BH bucket has %d members, expected 3", got)
	}
	if got := len(buckets[GroupKey{BandInstrument: "HH", Unit: "M/S"}]); got != 1 {
		t.Errorf("HH bucket has %d members, expected 1", got)
	}
}

// Channels reporting different sample rates within one bucket make the
// whole bucket unusable; the remaining buckets of the scope survive.
func TestChannelGroupsDropsInconsistentRates(t *testing.T) {
	inv := testInventory(
		testChannel("BHZ", 100.0, "M/S"),
		testChannel("BHN", 100.0, "M/S"),
		testChannel("BHE", 50.0, "M/S"),
		testChannel("LHZ", 1.0, "M/S"),
	)

	groups, diags := inv.ChannelGroups(Query{})

	nsl := NSL{Network: "GR", Station: "FUR", Location: ""}
	buckets := groups[nsl]
	if _, ok := buckets[GroupKey{BandInstrument: "BH", Unit: "M/S"}]; ok {
		t.Error("inconsistent BH bucket must be dropped")
	}
	if _, ok := buckets[GroupKey{BandInstrument: "LH", Unit: "M/S"}]; !ok {
		t.Error("consistent LH bucket must survive")
	}

	warnings := diags.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, expected 1: %v", len(warnings), diags)
	}
	msg := warnings[0].Message
	for _, code := range []string{"BHZ", "BHN", "BHE"} {
		if !strings.Contains(msg, code) {
			t.Errorf("diagnostic %q does not name channel %s", msg, code)
		}
	}
	if !strings.Contains(msg, "1.000000e+02") || !strings.Contains(msg, "5.000000e+01") {
		t.Errorf("diagnostic %q does not name the differing rates", msg)
	}
}

func TestChannelGroupsMissingRateMixedIsInconsistent(t *testing.T) {
	withRate := testChannel("BHZ", 20.0, "M/S")
	withoutRate := testChannel("BHN", 0, "M/S")
	withoutRate.SampleRate = nil

	inv := testInventory(withRate, withoutRate)
	groups, diags := inv.ChannelGroups(Query{})

	nsl := NSL{Network: "GR", Station: "FUR", Location: ""}
	if len(groups[nsl]) != 0 {
		t.Error("bucket mixing declared and missing sample rates must be dropped")
	}
	if len(diags.Warnings()) != 1 {
		t.Errorf("expected one warning, got %v", diags)
	}
}

// Regrouping the channels that survived a grouping pass yields the same
// buckets.
func TestChannelGroupsIdempotent(t *testing.T) {
	inv := testInventory(
		testChannel("BHZ", 100.0, "M/S"),
		testChannel("BHN", 50.0, "M/S"),
		testChannel("HHZ", 100.0, "M/S"),
		testChannel("HHN", 100.0, "M/S"),
	)

	first, _ := inv.ChannelGroups(Query{})

	var surviving []Channel
	for _, buckets := range first {
		for _, channels := range buckets {
			for _, c := range channels {
				surviving = append(surviving, *c)
			}
		}
	}

	second, diags := testInventory(surviving...).ChannelGroups(Query{})
	if len(diags) != 0 {
		t.Fatalf("regrouping produced diagnostics: %v", diags)
	}

	nsl := NSL{Network: "GR", Station: "FUR", Location: ""}
	firstKeys := sortedGroupKeys(first[nsl])
	secondKeys := sortedGroupKeys(second[nsl])
	if !reflect.DeepEqual(firstKeys, secondKeys) {
		t.Errorf("regrouping changed buckets: %v vs %v", firstKeys, secondKeys)
	}
	for _, key := range firstKeys {
		if len(first[nsl][key]) != len(second[nsl][key]) {
			t.Errorf("bucket %v changed size: %d vs %d",
				key, len(first[nsl][key]), len(second[nsl][key]))
		}
	}
}

func TestChannelGroupsSeparatesLocations(t *testing.T) {
	a := testChannel("BHZ", 20.0, "M/S")
	a.LocationCode = "00"
	b := testChannel("BHZ", 40.0, "M/S")
	b.LocationCode = "10"

	groups, diags := testInventory(a, b).ChannelGroups(Query{})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(groups) != 2 {
		t.Errorf("got %d scopes, expected 2 (one per location)", len(groups))
	}
}
