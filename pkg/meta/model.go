// Package meta holds the station metadata model for seismic sensor
// networks and the query algorithms that operate on it: epoch validity
// filtering, channel grouping, best-channel selection and instrument
// response assembly.
//
// The model is built once from parsed input (StationXML-shaped records,
// channel tables or legacy volume extracts) and is read-only afterward,
// so every query is safe to run concurrently.
package meta

import (
	"math"
	"time"
)

// Pole-zero transfer function conventions. Only the Laplace
// radians-per-second convention can be converted to an evaluable term.
const (
	PzTypeLaplaceRadians = "LAPLACE (RADIANS/SECOND)"
	PzTypeLaplaceHertz   = "LAPLACE (HERTZ)"
	PzTypeDigitalZ       = "DIGITAL (Z-TRANSFORM)"
)

// Units documents the physical units of a gain, sensitivity or filter
// port, e.g. "M/S" or "M/S**2".
type Units struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Float is a measured value with optional symmetric or asymmetric
// uncertainty and an optional unit tag.
type Float struct {
	Value      float64  `json:"value"`
	PlusError  *float64 `json:"plus_error,omitempty"`
	MinusError *float64 `json:"minus_error,omitempty"`
	Unit       string   `json:"unit,omitempty"`
}

// PoleZero is a complex root of a pole-zero transfer function.
type PoleZero struct {
	Number    int   `json:"number,omitempty"`
	Real      Float `json:"real"`
	Imaginary Float `json:"imaginary"`
}

// Value returns the root as a complex number.
func (pz PoleZero) Value() complex128 {
	return complex(pz.Real.Value, pz.Imaginary.Value)
}

// Gain is a scalar gain factor valid at a reference frequency. Used
// both for per-stage gains and, via Sensitivity, for the overall
// instrument sensitivity.
type Gain struct {
	Value     float64 `json:"value"`
	Frequency float64 `json:"frequency"`
}

// Sensitivity is the overall instrument sensitivity: a gain plus the
// units of the physical input and the recorded output.
type Sensitivity struct {
	Gain
	InputUnits  *Units `json:"input_units,omitempty"`
	OutputUnits *Units `json:"output_units,omitempty"`
}

// PolesZeros describes one response stage as complex poles and zeros
// with a normalization constant.
type PolesZeros struct {
	Name                   string     `json:"name,omitempty"`
	InputUnits             *Units     `json:"input_units,omitempty"`
	OutputUnits            *Units     `json:"output_units,omitempty"`
	TransferFunctionType   string     `json:"transfer_function_type"`
	NormalizationFactor    float64    `json:"normalization_factor"`
	NormalizationFrequency float64    `json:"normalization_frequency"`
	Zeros                  []PoleZero `json:"zeros,omitempty"`
	Poles                  []PoleZero `json:"poles,omitempty"`
}

// Coefficients describes a stage as rational filter coefficients.
type Coefficients struct {
	Name                 string  `json:"name,omitempty"`
	InputUnits           *Units  `json:"input_units,omitempty"`
	OutputUnits          *Units  `json:"output_units,omitempty"`
	TransferFunctionType string  `json:"transfer_function_type"`
	Numerators           []Float `json:"numerators,omitempty"`
	Denominators         []Float `json:"denominators,omitempty"`
}

// FIR describes a stage as a finite impulse response filter.
type FIR struct {
	Name         string  `json:"name,omitempty"`
	InputUnits   *Units  `json:"input_units,omitempty"`
	OutputUnits  *Units  `json:"output_units,omitempty"`
	Symmetry     string  `json:"symmetry,omitempty"`
	Coefficients []Float `json:"coefficients,omitempty"`
}

// ResponseListElement is one tabulated (frequency, amplitude, phase)
// sample of a measured response.
type ResponseListElement struct {
	Frequency float64 `json:"frequency"`
	Amplitude Float   `json:"amplitude"`
	Phase     Float   `json:"phase"`
}

// ResponseList describes a stage as a tabulated response.
type ResponseList struct {
	Name        string                `json:"name,omitempty"`
	InputUnits  *Units                `json:"input_units,omitempty"`
	OutputUnits *Units                `json:"output_units,omitempty"`
	Elements    []ResponseListElement `json:"elements,omitempty"`
}

// Polynomial describes a stage (or a whole non-linear system) as a
// polynomial approximation.
type Polynomial struct {
	Name                    string  `json:"name,omitempty"`
	InputUnits              *Units  `json:"input_units,omitempty"`
	OutputUnits             *Units  `json:"output_units,omitempty"`
	ApproximationType       string  `json:"approximation_type,omitempty"`
	FrequencyLowerBound     float64 `json:"frequency_lower_bound"`
	FrequencyUpperBound     float64 `json:"frequency_upper_bound"`
	ApproximationLowerBound float64 `json:"approximation_lower_bound"`
	ApproximationUpperBound float64 `json:"approximation_upper_bound"`
	MaximumError            float64 `json:"maximum_error"`
	Coefficients            []Float `json:"coefficients,omitempty"`
}

// Decimation documents the sample-rate reduction performed by a stage.
type Decimation struct {
	InputSampleRate float64 `json:"input_sample_rate"`
	Factor          int     `json:"factor"`
	Offset          int     `json:"offset"`
	Delay           float64 `json:"delay"`
	Correction      float64 `json:"correction"`
}

// ResponseStage is one numbered stage of the calibration pipeline. In
// well-formed metadata exactly one of the descriptive variants carries
// physically meaningful data; multiple simultaneous descriptions are a
// data-quality anomaly rather than a structural error.
type ResponseStage struct {
	Number       int            `json:"number"`
	PolesZeros   []PolesZeros   `json:"poles_zeros,omitempty"`
	Coefficients []Coefficients `json:"coefficients,omitempty"`
	ResponseList *ResponseList  `json:"response_list,omitempty"`
	FIR          *FIR           `json:"fir,omitempty"`
	Polynomial   *Polynomial    `json:"polynomial,omitempty"`
	Decimation   *Decimation    `json:"decimation,omitempty"`
	StageGain    *Gain          `json:"stage_gain,omitempty"`
}

// InputUnits returns the input units of the first descriptive variant
// that declares them.
func (s *ResponseStage) InputUnits() *Units {
	for _, u := range s.portUnits(true) {
		if u != nil {
			return u
		}
	}
	return nil
}

// OutputUnits returns the output units of the first descriptive variant
// that declares them.
func (s *ResponseStage) OutputUnits() *Units {
	for _, u := range s.portUnits(false) {
		if u != nil {
			return u
		}
	}
	return nil
}

func (s *ResponseStage) portUnits(input bool) []*Units {
	var out []*Units
	pick := func(in, outU *Units) *Units {
		if input {
			return in
		}
		return outU
	}
	for i := range s.PolesZeros {
		out = append(out, pick(s.PolesZeros[i].InputUnits, s.PolesZeros[i].OutputUnits))
	}
	for i := range s.Coefficients {
		out = append(out, pick(s.Coefficients[i].InputUnits, s.Coefficients[i].OutputUnits))
	}
	if s.ResponseList != nil {
		out = append(out, pick(s.ResponseList.InputUnits, s.ResponseList.OutputUnits))
	}
	if s.FIR != nil {
		out = append(out, pick(s.FIR.InputUnits, s.FIR.OutputUnits))
	}
	if s.Polynomial != nil {
		out = append(out, pick(s.Polynomial.InputUnits, s.Polynomial.OutputUnits))
	}
	return out
}

// Response is the complete calibration description of one channel.
type Response struct {
	InstrumentSensitivity *Sensitivity    `json:"instrument_sensitivity,omitempty"`
	InstrumentPolynomial  *Polynomial     `json:"instrument_polynomial,omitempty"`
	Stages                []ResponseStage `json:"stages,omitempty"`
}

// Channel is one recorded data stream of a station, equivalent to a
// SEED channel epoch.
type Channel struct {
	Code         string `json:"code"`
	LocationCode string `json:"location_code"`
	Epoch
	Latitude   Float     `json:"latitude"`
	Longitude  Float     `json:"longitude"`
	Elevation  *Float    `json:"elevation,omitempty"`
	Depth      *Float    `json:"depth,omitempty"`
	Azimuth    *Float    `json:"azimuth,omitempty"`
	Dip        *Float    `json:"dip,omitempty"`
	SampleRate *Float    `json:"sample_rate,omitempty"`
	SensorDesc string    `json:"sensor_description,omitempty"`
	Response   *Response `json:"response,omitempty"`
}

// Position returns lat, lon, elevation and depth; elevation and depth
// are NaN when not declared.
func (c *Channel) Position() (lat, lon, elevation, depth float64) {
	return c.Latitude.Value, c.Longitude.Value,
		valueOrNaN(c.Elevation), valueOrNaN(c.Depth)
}

// BandInstrumentCode returns the band+instrument prefix of the channel
// code: the first two characters of a 3-character code, empty for a
// 1-character code, the whole code otherwise.
func (c *Channel) BandInstrumentCode() string {
	switch len(c.Code) {
	case 3:
		return c.Code[:2]
	case 1:
		return ""
	default:
		return c.Code
	}
}

// InputUnitName returns the name of the input units declared by the
// channel's overall sensitivity, or "" when absent.
func (c *Channel) InputUnitName() string {
	if c.Response == nil || c.Response.InstrumentSensitivity == nil {
		return ""
	}
	if u := c.Response.InstrumentSensitivity.InputUnits; u != nil {
		return u.Name
	}
	return ""
}

// Station is one station epoch. It is common to have a single epoch
// spanning the station's whole lifetime. A station with no declared
// channels is itself a single logical channel-less sensor entity.
type Station struct {
	Code string `json:"code"`
	Epoch
	Latitude        Float      `json:"latitude"`
	Longitude       Float      `json:"longitude"`
	Elevation       *Float     `json:"elevation,omitempty"`
	Description     string     `json:"description,omitempty"`
	Site            string     `json:"site,omitempty"`
	CreationDate    *time.Time `json:"creation_date,omitempty"`
	TerminationDate *time.Time `json:"termination_date,omitempty"`
	Channels        []Channel  `json:"channels,omitempty"`
}

// Network is the top layer of the metadata hierarchy. Station codes
// need not be unique across a network, only within sets of overlapping
// epochs.
type Network struct {
	Code string `json:"code"`
	Epoch
	Description string    `json:"description,omitempty"`
	Stations    []Station `json:"stations,omitempty"`
}

// Inventory is the root of a station metadata collection, the Go
// equivalent of a parsed StationXML document or channel table.
type Inventory struct {
	Source   string     `json:"source,omitempty"`
	Sender   string     `json:"sender,omitempty"`
	Created  *time.Time `json:"created,omitempty"`
	Networks []Network  `json:"networks,omitempty"`
}

func valueOrNaN(f *Float) float64 {
	if f == nil {
		return math.NaN()
	}
	return f.Value
}
