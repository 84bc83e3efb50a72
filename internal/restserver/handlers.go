package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/quakehub/stationmeta/pkg/diag"
	"github.com/quakehub/stationmeta/pkg/meta"
	"github.com/quakehub/stationmeta/pkg/resp"
)

// ChosenChannel is one selected channel in a /api/channels payload.
type ChosenChannel struct {
	meta.NSLC
	SampleRate *float64 `json:"sample_rate,omitempty"`
	InputUnits string   `json:"input_units,omitempty"`
}

// ChannelsResult is the /api/channels payload.
type ChannelsResult struct {
	Channels    []ChosenChannel `json:"channels"`
	Diagnostics diag.List       `json:"diagnostics,omitempty"`
}

// ResponsePoint is one sample of an evaluated composite response.
type ResponsePoint struct {
	Frequency float64 `json:"frequency"`
	Real      float64 `json:"real"`
	Imag      float64 `json:"imag"`
	Amplitude float64 `json:"amplitude"`
	Phase     float64 `json:"phase"`
}

// ResponseResult is the /api/response payload.
type ResponseResult struct {
	ID          meta.NSLC       `json:"id"`
	Points      []ResponsePoint `json:"points"`
	Diagnostics diag.List       `json:"diagnostics,omitempty"`
}

// StationsResult is the /api/stations payload.
type StationsResult struct {
	Stations    []meta.FlatStation `json:"stations"`
	Diagnostics diag.List          `json:"diagnostics,omitempty"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func (c *Controller) handleChooseChannels(w http.ResponseWriter, r *http.Request) {
	tf, err := timeFilterFromQuery(r)
	if err != nil {
		c.writeData(w, r, errorPayload{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	opts := meta.DefaultChooseOptions()
	if raw := r.URL.Query().Get("target_rate"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate <= 0 {
			c.writeData(w, r, errorPayload{Error: "target_rate must be a positive number"}, http.StatusBadRequest)
			return
		}
		opts.TargetSampleRate = rate
	}

	q := meta.Query{
		Network: r.URL.Query().Get("network"),
		Station: r.URL.Query().Get("station"),
		Time:    tf,
	}

	chosen, diags := c.inventory.ChooseChannels(q, opts)

	result := ChannelsResult{Diagnostics: diags}
	for id, channel := range chosen {
		cc := ChosenChannel{NSLC: id, InputUnits: channel.InputUnitName()}
		if channel.SampleRate != nil {
			rate := channel.SampleRate.Value
			cc.SampleRate = &rate
		}
		result.Channels = append(result.Channels, cc)
	}
	sort.Slice(result.Channels, func(i, j int) bool {
		return result.Channels[i].NSLC.String() < result.Channels[j].NSLC.String()
	})

	c.writeData(w, r, result, http.StatusOK)
}

func (c *Controller) handleResponse(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := meta.NSLC{
		Network:  vars["net"],
		Station:  vars["sta"],
		Location: vars["loc"],
		Channel:  vars["cha"],
	}
	if id.Location == "-" {
		id.Location = ""
	}

	tf, err := timeFilterFromQuery(r)
	if err != nil {
		c.writeData(w, r, errorPayload{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	fmin, fmax, n := 0.001, 100.0, 100
	if v := r.URL.Query().Get("fmin"); v != "" {
		if fmin, err = strconv.ParseFloat(v, 64); err != nil || fmin <= 0 {
			c.writeData(w, r, errorPayload{Error: "fmin must be a positive number"}, http.StatusBadRequest)
			return
		}
	}
	if v := r.URL.Query().Get("fmax"); v != "" {
		if fmax, err = strconv.ParseFloat(v, 64); err != nil || fmax <= fmin {
			c.writeData(w, r, errorPayload{Error: "fmax must be greater than fmin"}, http.StatusBadRequest)
			return
		}
	}
	if v := r.URL.Query().Get("n"); v != "" {
		if n, err = strconv.Atoi(v); err != nil || n < 2 || n > 100000 {
			c.writeData(w, r, errorPayload{Error: "n must be between 2 and 100000"}, http.StatusBadRequest)
			return
		}
	}

	composite, diags, err := c.inventory.LookupResponse(id, tf, r.URL.Query().Get("input_units"))
	if err != nil {
		status := http.StatusInternalServerError
		var noResp *meta.NoResponseError
		var multi *meta.MultipleResponseError
		switch {
		case errors.As(err, &noResp):
			status = http.StatusNotFound
		case errors.As(err, &multi):
			status = http.StatusConflict
		}
		c.writeData(w, r, errorPayload{Error: err.Error()}, status)
		return
	}

	freqs := resp.LogGrid(fmin, fmax, n)
	values := composite.Evaluate(freqs)
	amps := resp.Amplitudes(values)
	phases := resp.Phases(values)

	result := ResponseResult{ID: id, Diagnostics: diags}
	for i, f := range freqs {
		result.Points = append(result.Points, ResponsePoint{
			Frequency: f,
			Real:      real(values[i]),
			Imag:      imag(values[i]),
			Amplitude: amps[i],
			Phase:     phases[i],
		})
	}

	c.writeData(w, r, result, http.StatusOK)
}

func (c *Controller) handleFlatStations(w http.ResponseWriter, r *http.Request) {
	tf, err := timeFilterFromQuery(r)
	if err != nil {
		c.writeData(w, r, errorPayload{Error: err.Error()}, http.StatusBadRequest)
		return
	}

	policy := meta.GeometryWarn
	if r.URL.Query().Get("strict") == "true" {
		policy = meta.GeometryStrict
	}

	q := meta.Query{
		Network: r.URL.Query().Get("network"),
		Station: r.URL.Query().Get("station"),
		Time:    tf,
	}

	stations, diags, err := c.inventory.FlatStations(q, policy)
	if err != nil {
		c.writeData(w, r, errorPayload{Error: err.Error()}, http.StatusConflict)
		return
	}

	c.writeData(w, r, StationsResult{Stations: stations, Diagnostics: diags}, http.StatusOK)
}

// timeFilterFromQuery builds a time filter from either ?time=RFC3339 or
// ?start=RFC3339&end=RFC3339.
func timeFilterFromQuery(r *http.Request) (meta.TimeFilter, error) {
	instant := r.URL.Query().Get("time")
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	switch {
	case instant != "":
		t, err := time.Parse(time.RFC3339, instant)
		if err != nil {
			return meta.TimeFilter{}, fmt.Errorf("time: %v", err)
		}
		return meta.At(t), nil
	case start != "" && end != "":
		a, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return meta.TimeFilter{}, fmt.Errorf("start: %v", err)
		}
		b, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return meta.TimeFilter{}, fmt.Errorf("end: %v", err)
		}
		if b.Before(a) {
			return meta.TimeFilter{}, fmt.Errorf("end must not be before start")
		}
		return meta.Between(a, b), nil
	case start != "" || end != "":
		return meta.TimeFilter{}, fmt.Errorf("start and end must be given together")
	default:
		return meta.AnyTime(), nil
	}
}
