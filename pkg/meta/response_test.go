package meta

import (
	"errors"
	"math"
	"math/cmplx"
	"strings"
	"testing"

	"github.com/quakehub/stationmeta/pkg/diag"
	"github.com/quakehub/stationmeta/pkg/resp"
)

func velocitySensitivity() *Sensitivity {
	return &Sensitivity{
		Gain:        Gain{Value: 1.0, Frequency: 1.0},
		InputUnits:  &Units{Name: "M/S"},
		OutputUnits: &Units{Name: "COUNTS"},
	}
}

func laplacePZ(factor, freq float64, poles, zeros []complex128) PolesZeros {
	pz := PolesZeros{
		TransferFunctionType:   PzTypeLaplaceRadians,
		NormalizationFactor:    factor,
		NormalizationFrequency: freq,
	}
	for _, p := range poles {
		pz.Poles = append(pz.Poles, PoleZero{Real: Float{Value: real(p)}, Imaginary: Float{Value: imag(p)}})
	}
	for _, z := range zeros {
		pz.Zeros = append(pz.Zeros, PoleZero{Real: Float{Value: real(z)}, Imaginary: Float{Value: imag(z)}})
	}
	return pz
}

func TestPolesZerosTermUnsupportedConvention(t *testing.T) {
	for _, kind := range []string{PzTypeLaplaceHertz, PzTypeDigitalZ, "SOMETHING ELSE"} {
		pz := laplacePZ(1.0, 1.0, nil, nil)
		pz.TransferFunctionType = kind
		if _, _, err := pz.Term(); err == nil {
			t.Errorf("conversion of %q convention must fail", kind)
		}
	}
}

// A declared normalization factor that disagrees with the assembled
// transfer function by more than 2% fires a diagnostic; the declared
// factor is still used.
func TestNormalizationMismatchDiagnostic(t *testing.T) {
	// One pole placed so that |H(1 Hz)| = 0.95 while the declared factor
	// claims 1.0: computed factor ≈ 1.0526, off by ≈5.26%.
	pole := complex(-1.0/0.95, 2.0*math.Pi)
	pz := laplacePZ(1.0, 1.0, []complex128{pole}, nil)

	term, diags, err := pz.Term()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags.Warnings()) != 1 {
		t.Fatalf("expected one normalization warning, got %v", diags)
	}
	if !strings.Contains(diags[0].Message, "normalization factors differ") {
		t.Errorf("unexpected diagnostic text: %q", diags[0].Message)
	}

	// Declared factor still in effect.
	got := cmplx.Abs(resp.EvaluateOne(term, 1.0))
	if math.Abs(got-0.95) > 1e-9 {
		t.Errorf("|H(1 Hz)| = %g, expected 0.95 using the declared factor", got)
	}
}

func TestNormalizationWithinToleranceIsQuiet(t *testing.T) {
	// A pole-free, zero-free stage evaluates to exactly the declared
	// factor, so computed and declared factors agree.
	pz := laplacePZ(2.5, 1.0, nil, nil)
	_, diags, err := pz.Term()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

func TestStageWithMultiplePolesZerosIsSkipped(t *testing.T) {
	stage := ResponseStage{
		Number: 1,
		PolesZeros: []PolesZeros{
			laplacePZ(1.0, 1.0, nil, nil),
			laplacePZ(2.0, 1.0, nil, nil),
		},
		StageGain: &Gain{Value: 3.0},
	}

	terms, diags, err := stage.Terms(NSLC{Network: "GE", Station: "APE", Channel: "BHZ"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Only the gain term survives; the ambiguous pole-zero descriptions
	// contribute nothing.
	if len(terms) != 1 {
		t.Fatalf("got %d terms, expected 1 (stage gain only)", len(terms))
	}
	if len(diags.Warnings()) != 1 {
		t.Errorf("expected a warning about multiple pole-zero records, got %v", diags)
	}
}

func TestInertStageKindsAreFlagged(t *testing.T) {
	stage := ResponseStage{
		Number: 2,
		FIR:    &FIR{Symmetry: "NONE", Coefficients: []Float{{Value: 1.0}}},
	}

	terms, diags, err := stage.Terms(NSLC{Network: "GE", Station: "APE", Channel: "BHZ"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(terms) != 0 {
		t.Errorf("FIR-only stage must contribute no terms, got %d", len(terms))
	}
	if len(diags) != 1 || diags[0].Severity != diag.Info {
		t.Errorf("expected one info diagnostic about the coverage gap, got %v", diags)
	}
}

// Requesting displacement input for a velocity instrument with no other
// stages appends exactly one first-order integration term.
func TestUnitConversionAppendsIntegration(t *testing.T) {
	r := &Response{InstrumentSensitivity: velocitySensitivity()}
	id := NSLC{Network: "GE", Station: "APE", Channel: "BHZ"}

	composite, diags, err := r.Build(id, "M")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(composite.Terms) != 1 {
		t.Fatalf("got %d terms, expected exactly one conversion term", len(composite.Terms))
	}
	integ, ok := composite.Terms[0].(resp.Integration)
	if !ok || integ.Order != 1 {
		t.Errorf("conversion term = %#v, expected Integration{Order: 1}", composite.Terms[0])
	}
}

func TestUnitConversionIdentityAddsNothing(t *testing.T) {
	r := &Response{InstrumentSensitivity: velocitySensitivity()}
	composite, _, err := r.Build(NSLC{}, "M/S")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(composite.Terms) != 0 {
		t.Errorf("identity conversion must add no terms, got %d", len(composite.Terms))
	}
}

func TestUnitConversionUnknownPairFails(t *testing.T) {
	r := &Response{InstrumentSensitivity: velocitySensitivity()}
	_, _, err := r.Build(NSLC{}, "PA")

	var noResp *NoResponseError
	if !errors.As(err, &noResp) {
		t.Fatalf("expected NoResponseError for unmapped unit pair, got %v", err)
	}
	if !strings.Contains(noResp.Reason, "cannot convert between units") {
		t.Errorf("unexpected reason: %q", noResp.Reason)
	}
}

func TestUnitConversionWithoutDocumentedUnitsFails(t *testing.T) {
	r := &Response{}
	_, _, err := r.Build(NSLC{}, "M")

	var noResp *NoResponseError
	if !errors.As(err, &noResp) {
		t.Fatalf("expected NoResponseError when input units are undocumented, got %v", err)
	}
}

// For any identity and time filter exactly one of {single response,
// no-response error, multiple-response error} holds.
func TestLookupResponseTrichotomy(t *testing.T) {
	withResponse := testChannel("BHZ", 20.0, "M/S")
	withResponse.Response.Stages = []ResponseStage{{
		Number:     1,
		PolesZeros: []PolesZeros{laplacePZ(1.0, 1.0, nil, nil)},
		StageGain:  &Gain{Value: 1500.0},
	}}

	duplicateEpoch := withResponse
	bare := testChannel("EHZ", 100.0, "")

	t.Run("single match", func(t *testing.T) {
		inv := testInventory(withResponse, bare)
		composite, _, err := inv.LookupResponse(
			NSLC{Network: "GR", Station: "FUR", Channel: "BHZ"}, AnyTime(), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := cmplx.Abs(resp.EvaluateOne(composite, 1.0))
		if math.Abs(got-1500.0) > 1e-9 {
			t.Errorf("|H(1 Hz)| = %g, expected 1500", got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		inv := testInventory(bare)
		_, _, err := inv.LookupResponse(
			NSLC{Network: "GR", Station: "FUR", Channel: "BHZ"}, AnyTime(), "")
		var noResp *NoResponseError
		if !errors.As(err, &noResp) {
			t.Fatalf("expected NoResponseError, got %v", err)
		}
	})

	t.Run("channel without response counts as no match", func(t *testing.T) {
		inv := testInventory(bare)
		_, _, err := inv.LookupResponse(
			NSLC{Network: "GR", Station: "FUR", Channel: "EHZ"}, AnyTime(), "")
		var noResp *NoResponseError
		if !errors.As(err, &noResp) {
			t.Fatalf("expected NoResponseError, got %v", err)
		}
	})

	t.Run("multiple matches", func(t *testing.T) {
		inv := testInventory(withResponse, duplicateEpoch)
		_, _, err := inv.LookupResponse(
			NSLC{Network: "GR", Station: "FUR", Channel: "BHZ"}, AnyTime(), "")
		var multi *MultipleResponseError
		if !errors.As(err, &multi) {
			t.Fatalf("expected MultipleResponseError, got %v", err)
		}
		if multi.Count != 2 {
			t.Errorf("Count = %d, expected 2", multi.Count)
		}
	})
}

// The empty location code is a real location, not a wildcard: looking
// up the empty-location channel must not see same-coded channels at
// other locations of the station.
func TestLookupResponseEmptyLocationIsExact(t *testing.T) {
	atRoot := testChannel("BHZ", 20.0, "M/S")
	atRoot.Response.Stages = []ResponseStage{{Number: 1, StageGain: &Gain{Value: 100.0}}}

	atZeroZero := testChannel("BHZ", 20.0, "M/S")
	atZeroZero.LocationCode = "00"
	atZeroZero.Response.Stages = []ResponseStage{{Number: 1, StageGain: &Gain{Value: 200.0}}}

	inv := testInventory(atRoot, atZeroZero)

	composite, _, err := inv.LookupResponse(
		NSLC{Network: "GR", Station: "FUR", Location: "", Channel: "BHZ"}, AnyTime(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := cmplx.Abs(resp.EvaluateOne(composite, 1.0))
	if math.Abs(got-100.0) > 1e-9 {
		t.Errorf("|H| = %g, expected the empty-location gain of 100", got)
	}

	composite, _, err = inv.LookupResponse(
		NSLC{Network: "GR", Station: "FUR", Location: "00", Channel: "BHZ"}, AnyTime(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = cmplx.Abs(resp.EvaluateOne(composite, 1.0))
	if math.Abs(got-200.0) > 1e-9 {
		t.Errorf("|H| = %g, expected location 00's gain of 200", got)
	}
}

func TestLookupResponseTimeFilterDisambiguates(t *testing.T) {
	early := testChannel("BHZ", 20.0, "M/S")
	early.Epoch = Epoch{Start: datePtr(2000, 1, 1), End: datePtr(2010, 1, 1)}
	early.Response.Stages = []ResponseStage{{Number: 1, StageGain: &Gain{Value: 100.0}}}

	late := testChannel("BHZ", 20.0, "M/S")
	late.Epoch = Epoch{Start: datePtr(2010, 1, 2)}
	late.Response.Stages = []ResponseStage{{Number: 1, StageGain: &Gain{Value: 200.0}}}

	inv := testInventory(early, late)
	id := NSLC{Network: "GR", Station: "FUR", Channel: "BHZ"}

	// Without a time filter both epochs match.
	_, _, err := inv.LookupResponse(id, AnyTime(), "")
	var multi *MultipleResponseError
	if !errors.As(err, &multi) {
		t.Fatalf("expected MultipleResponseError without time filter, got %v", err)
	}

	composite, _, err := inv.LookupResponse(id, At(date(2005, 6, 1)), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := cmplx.Abs(resp.EvaluateOne(composite, 1.0))
	if math.Abs(got-100.0) > 1e-9 {
		t.Errorf("|H| = %g, expected the early epoch's gain of 100", got)
	}
}
