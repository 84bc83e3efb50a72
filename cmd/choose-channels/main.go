package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/quakehub/stationmeta/pkg/chantab"
	"github.com/quakehub/stationmeta/pkg/meta"
)

func main() {
	var tablePath, timeStr, bands string
	var targetRate float64
	var skipInvalid bool
	flag.StringVar(&tablePath, "table", "", "FDSN channel table file (required)")
	flag.StringVar(&timeStr, "time", "", "query instant (RFC3339 format, e.g., 2009-07-15T09:22:29Z)")
	flag.Float64Var(&targetRate, "rate", 0, "minimum acceptable sample rate in Hz (0 = prefer highest)")
	flag.StringVar(&bands, "bands", "", "comma-separated band code priority (default H,B,M,L,V,E,S)")
	flag.BoolVar(&skipInvalid, "skip-invalid", false, "skip malformed table records instead of failing")
	flag.Parse()

	if tablePath == "" {
		fmt.Fprintln(os.Stderr, "the -table flag is required")
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(tablePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening table: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	inv, loadDiags, err := chantab.Load(f, chantab.Options{SkipInvalid: skipInvalid})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading table: %v\n", err)
		os.Exit(1)
	}

	q := meta.Query{}
	if timeStr != "" {
		t, err := time.Parse(time.RFC3339, timeStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing time: %v\n", err)
			os.Exit(1)
		}
		q.Time = meta.At(t)
	}

	opts := meta.DefaultChooseOptions()
	opts.TargetSampleRate = targetRate
	if bands != "" {
		opts.PriorityBandCodes = strings.Split(bands, ",")
	}

	chosen, diags := inv.ChooseChannels(q, opts)
	diags = append(loadDiags, diags...)

	ids := make([]meta.NSLC, 0, len(chosen))
	for id := range chosen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	fmt.Printf("Chosen channels (%d):\n", len(ids))
	for _, id := range ids {
		channel := chosen[id]
		rate := "unset"
		if channel.SampleRate != nil {
			rate = fmt.Sprintf("%g Hz", channel.SampleRate.Value)
		}
		unit := channel.InputUnitName()
		if unit == "" {
			unit = "unknown"
		}
		fmt.Printf("  %-20s %10s  %s\n", id, rate, unit)
	}

	if len(diags) > 0 {
		fmt.Printf("Diagnostics (%d):\n", len(diags))
		for _, d := range diags {
			fmt.Printf("  [%s] %s\n", d.Severity, d.Message)
		}
	}
}
