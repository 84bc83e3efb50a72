package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quakehub/stationmeta/pkg/chantab"
	"github.com/quakehub/stationmeta/pkg/meta"
	"github.com/quakehub/stationmeta/pkg/resp"
)

func main() {
	var tablePath, nslcStr, timeStr, inputUnits string
	var fmin, fmax float64
	var n int
	flag.StringVar(&tablePath, "table", "", "FDSN channel table file (required)")
	flag.StringVar(&nslcStr, "nslc", "", "channel identity as NET.STA.LOC.CHA (required)")
	flag.StringVar(&timeStr, "time", "", "query instant (RFC3339 format)")
	flag.StringVar(&inputUnits, "units", "", "requested input units (M, M/S or M/S**2)")
	flag.Float64Var(&fmin, "fmin", 0.001, "lowest frequency in Hz")
	flag.Float64Var(&fmax, "fmax", 100.0, "highest frequency in Hz")
	flag.IntVar(&n, "n", 50, "number of frequency samples")
	flag.Parse()

	if tablePath == "" || nslcStr == "" {
		fmt.Fprintln(os.Stderr, "the -table and -nslc flags are required")
		flag.Usage()
		os.Exit(1)
	}

	parts := strings.Split(nslcStr, ".")
	if len(parts) != 4 {
		fmt.Fprintf(os.Stderr, "Invalid NSLC %q, expected NET.STA.LOC.CHA\n", nslcStr)
		os.Exit(1)
	}
	id := meta.NSLC{Network: parts[0], Station: parts[1], Location: parts[2], Channel: parts[3]}

	tf := meta.AnyTime()
	if timeStr != "" {
		t, err := time.Parse(time.RFC3339, timeStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing time: %v\n", err)
			os.Exit(1)
		}
		tf = meta.At(t)
	}

	f, err := os.Open(tablePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening table: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	inv, _, err := chantab.Load(f, chantab.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading table: %v\n", err)
		os.Exit(1)
	}

	composite, diags, err := inv.LookupResponse(id, tf, inputUnits)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	freqs := resp.LogGrid(fmin, fmax, n)
	values := composite.Evaluate(freqs)
	amps := resp.Amplitudes(values)
	phases := resp.Phases(values)

	fmt.Printf("Composite response for %s (%d terms)\n", id, len(composite.Terms))
	fmt.Printf("%14s %14s %14s\n", "freq [Hz]", "amplitude", "phase [rad]")
	for i := range freqs {
		fmt.Printf("%14.6g %14.6g %14.6g\n", freqs[i], amps[i], phases[i])
	}

	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", d.Severity, d.Message)
	}
}
