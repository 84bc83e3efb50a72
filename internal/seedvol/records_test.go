package seedvol

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quakehub/stationmeta/pkg/meta"
	"go.uber.org/zap"
)

func TestTokenizeRows(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected [][]string
	}{
		{
			name:     "plain columns",
			input:    "APE GE 37.07 25.53 620.0\n",
			expected: [][]string{{"APE", "GE", "37.07", "25.53", "620.0"}},
		},
		{
			name:     "quoted token with spaces",
			input:    "APE GE \"Apeiranthos, Naxos\" 620.0\n",
			expected: [][]string{{"APE", "GE", "Apeiranthos, Naxos", "620.0"}},
		},
		{
			name:     "quoted token with line break",
			input:    "APE GE \"Apeiranthos,\nNaxos\" 620.0\n",
			expected: [][]string{{"APE", "GE", "Apeiranthos,\nNaxos", "620.0"}},
		},
		{
			name:     "multiple rows",
			input:    "APE GE 1\nFUR GR 2\n",
			expected: [][]string{{"APE", "GE", "1"}, {"FUR", "GR", "2"}},
		},
		{
			name:     "no trailing newline",
			input:    "APE GE 1",
			expected: [][]string{{"APE", "GE", "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := tokenizeRows(tt.input)
			if len(rows) != len(tt.expected) {
				t.Fatalf("got %d rows, expected %d: %v", len(rows), len(tt.expected), rows)
			}
			for i, row := range rows {
				if len(row) != len(tt.expected[i]) {
					t.Fatalf("row %d: got %v, expected %v", i, row, tt.expected[i])
				}
				for j := range row {
					if row[j] != tt.expected[i][j] {
						t.Errorf("row %d col %d: got %q, expected %q", i, j, row[j], tt.expected[i][j])
					}
				}
			}
		})
	}
}

func TestParseStationTable(t *testing.T) {
	data := "APE GE 37.0689 25.5306 620.0 \"BHZ BHN BHE\" \"GEOFON Station Apeiranthos,\nNaxos\"\n"

	stations, err := parseStationTable(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stations) != 1 {
		t.Fatalf("got %d stations, expected 1", len(stations))
	}
	s := stations[0]
	if s.Station != "APE" || s.Network != "GE" {
		t.Errorf("codes parsed wrong: %+v", s)
	}
	if math.Abs(s.Latitude-37.0689) > 1e-9 || math.Abs(s.Elevation-620.0) > 1e-9 {
		t.Errorf("position parsed wrong: %+v", s)
	}
	if len(s.Components) != 3 || s.Components[0] != "BHZ" {
		t.Errorf("components parsed wrong: %v", s.Components)
	}
	if s.Name != "GEOFON Station Apeiranthos,\nNaxos" {
		t.Errorf("name parsed wrong: %q", s.Name)
	}
}

func TestEventsParsing(t *testing.T) {
	workDir := t.TempDir()
	events := "1, 2009/07/15 09:22:29.0000, 35.78, 25.21, 40.0, 0, 0, 0, 6.2\n"
	if err := os.WriteFile(filepath.Join(workDir, "rdseed.events"), []byte(events), 0o644); err != nil {
		t.Fatal(err)
	}

	v := &VolumeAccess{workDir: workDir, logger: zap.NewNop().Sugar()}
	got, err := v.Events()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, expected 1", len(got))
	}
	ev := got[0]
	expected := time.Date(2009, 7, 15, 9, 22, 29, 0, time.UTC)
	if !ev.Time.Equal(expected) {
		t.Errorf("time = %v, expected %v", ev.Time, expected)
	}
	if ev.Depth != 40000.0 {
		t.Errorf("depth = %g, expected 40000 m (km converted)", ev.Depth)
	}
	if ev.Magnitude != 6.2 {
		t.Errorf("magnitude = %g, expected 6.2", ev.Magnitude)
	}
}

func TestEventsMissingFile(t *testing.T) {
	v := &VolumeAccess{workDir: t.TempDir(), logger: zap.NewNop().Sugar()}
	events, err := v.Events()
	if err != nil || events != nil {
		t.Errorf("missing events file must yield (nil, nil), got (%v, %v)", events, err)
	}
}

func TestEventsMalformedRecord(t *testing.T) {
	workDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(workDir, "rdseed.events"), []byte("1, 2, 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	v := &VolumeAccess{workDir: workDir, logger: zap.NewNop().Sugar()}
	if _, err := v.Events(); err == nil {
		t.Error("expected error for record with wrong field count")
	}
}

func TestRespFilePath(t *testing.T) {
	v := &VolumeAccess{workDir: "/tmp/scratch"}
	id := meta.NSLC{Network: "GE", Station: "APE", Location: "00", Channel: "BHZ"}
	if got := v.RespFile(id); got != "/tmp/scratch/RESP.GE.APE.00.BHZ" {
		t.Errorf("RespFile = %q", got)
	}
}
