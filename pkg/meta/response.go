package meta

import (
	"fmt"
	"math/cmplx"

	"github.com/quakehub/stationmeta/pkg/diag"
	"github.com/quakehub/stationmeta/pkg/resp"
)

// NoResponseError reports that no usable response information exists
// for an identity: zero matching responses, an unconvertible pole-zero
// convention, or a unit conversion with no table entry.
type NoResponseError struct {
	ID     NSLC
	Reason string
}

func (e *NoResponseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("no response information for %s", e.ID)
	}
	return fmt.Sprintf("no response information for %s: %s", e.ID, e.Reason)
}

// MultipleResponseError reports that more than one response matched an
// identity and time filter. This is a data-quality condition the caller
// must resolve; it is never auto-resolved by picking one.
type MultipleResponseError struct {
	ID    NSLC
	Count int
}

func (e *MultipleResponseError) Error() string {
	return fmt.Sprintf("multiple response information for %s (%d matches)", e.ID, e.Count)
}

// unitConversion maps (requested input unit, documented input unit) to
// the transfer-function term that converts between them. Identity pairs
// map to nil; absent pairs cannot be converted.
var unitConversion = map[[2]string]resp.Term{
	{"M", "M"}:           nil,
	{"M/S", "M"}:         resp.Integration{Order: 1},
	{"M/S**2", "M"}:      resp.Integration{Order: 2},
	{"M", "M/S"}:         resp.Differentiation{Order: 1},
	{"M/S", "M/S"}:       nil,
	{"M/S**2", "M/S"}:    resp.Integration{Order: 1},
	{"M", "M/S**2"}:      resp.Differentiation{Order: 2},
	{"M/S", "M/S**2"}:    resp.Differentiation{Order: 1},
	{"M/S**2", "M/S**2"}: nil,
}

// Term converts a pole-zero description to an evaluable term. Only the
// Laplace radians-per-second convention is supported. The declared
// normalization factor is rechecked by evaluating the term at the
// normalization frequency; a mismatch beyond 2% yields a warning
// diagnostic but the declared factor is still used.
func (pz *PolesZeros) Term() (resp.Term, diag.List, error) {
	if pz.TransferFunctionType != PzTypeLaplaceRadians {
		return nil, nil, fmt.Errorf(
			"cannot convert pole-zero response of type %q", pz.TransferFunctionType)
	}

	term := resp.PoleZero{
		Constant: pz.NormalizationFactor,
		Zeros:    poleZeroValues(pz.Zeros),
		Poles:    poleZeroValues(pz.Poles),
	}

	var diags diag.List
	if pz.NormalizationFactor != 0 {
		computed := pz.NormalizationFactor /
			cmplx.Abs(resp.EvaluateOne(term, pz.NormalizationFrequency))
		perc := abs(computed/pz.NormalizationFactor-1.0) * 100
		if perc > 2.0 {
			diags.Warnf(
				"computed and reported normalization factors differ by %.1f%%: computed: %g, reported: %g",
				perc, computed, pz.NormalizationFactor)
		}
	}

	return term, diags, nil
}

// Terms returns the elementary transfer-function terms contributed by
// one stage. A stage with multiple pole-zero descriptions contributes
// none of them; coefficient, FIR, polynomial and tabulated descriptions
// are structurally present but functionally inert.
func (s *ResponseStage) Terms(id NSLC) ([]resp.Term, diag.List, error) {
	var terms []resp.Term
	var diags diag.List

	switch {
	case len(s.PolesZeros) == 1:
		term, tdiags, err := s.PolesZeros[0].Term()
		if err != nil {
			return nil, diags, err
		}
		diags.Extend(tdiags)
		terms = append(terms, term)

	case len(s.PolesZeros) > 1:
		diags.Warnf(
			"multiple poles and zeros records in single response stage (%s)", id)

	case len(s.Coefficients) > 0 || s.ResponseList != nil || s.FIR != nil || s.Polynomial != nil:
		// No conversion is implemented for these description kinds; the
		// composite response may be incomplete without them.
		diags.Infof(
			"stage %d of %s has no convertible response description", s.Number, id)
	}

	if s.StageGain != nil {
		terms = append(terms, resp.Gain{Value: s.StageGain.Value})
	}

	return terms, diags, nil
}

// Build assembles the response into one multiplicative composite term.
// inputUnits, when non-empty and different from the documented input
// units, requests an on-the-fly integration or differentiation term.
func (r *Response) Build(id NSLC, inputUnits string) (resp.Multiply, diag.List, error) {
	var terms []resp.Term
	var diags diag.List

	for i := range r.Stages {
		stageTerms, sdiags, err := r.Stages[i].Terms(id)
		diags.Extend(sdiags)
		if err != nil {
			return resp.Multiply{}, diags, &NoResponseError{ID: id, Reason: err.Error()}
		}
		terms = append(terms, stageTerms...)
	}

	if inputUnits != "" {
		if r.InstrumentSensitivity == nil || r.InstrumentSensitivity.InputUnits == nil {
			return resp.Multiply{}, diags, &NoResponseError{ID: id, Reason: "no input units given"}
		}
		documented := r.InstrumentSensitivity.InputUnits.Name
		conv, ok := unitConversion[[2]string{inputUnits, documented}]
		if !ok {
			return resp.Multiply{}, diags, &NoResponseError{
				ID:     id,
				Reason: fmt.Sprintf("cannot convert between units: %s, %s", inputUnits, documented),
			}
		}
		if conv != nil {
			terms = append(terms, conv)
		}
	}

	return resp.Multiply{Terms: terms}, diags, nil
}

// LookupResponse finds the single response matching id and tf and
// assembles it. Zero matches yield a NoResponseError, more than one a
// MultipleResponseError.
func (inv *Inventory) LookupResponse(id NSLC, tf TimeFilter, inputUnits string) (resp.Multiply, diag.List, error) {
	q := Query{
		Network:  id.Network,
		Station:  id.Station,
		Location: &id.Location,
		Channel:  id.Channel,
		Time:     tf,
	}

	var responses []*Response
	for _, e := range inv.matchChannels(q) {
		if e.channel.Response != nil {
			responses = append(responses, e.channel.Response)
		}
	}

	switch len(responses) {
	case 0:
		return resp.Multiply{}, nil, &NoResponseError{ID: id}
	case 1:
		return responses[0].Build(id, inputUnits)
	default:
		return resp.Multiply{}, nil, &MultipleResponseError{ID: id, Count: len(responses)}
	}
}

func poleZeroValues(roots []PoleZero) []complex128 {
	out := make([]complex128, len(roots))
	for i, r := range roots {
		out[i] = r.Value()
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
