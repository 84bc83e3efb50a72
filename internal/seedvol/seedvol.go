// Package seedvol provides access to legacy SEED volume archives by
// driving the external rdseed decoding program. It extracts station and
// event summary records plus per-channel RESP calibration files into a
// scratch directory and parses them into plain records. The core
// metadata packages never depend on it.
package seedvol

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/quakehub/stationmeta/pkg/meta"
	"go.uber.org/zap"
)

// DefaultProgram is the rdseed binary invoked to unpack volumes.
const DefaultProgram = "rdseed"

// VolumeAccess unpacks one SEED volume into a scratch directory and
// serves the extracted records.
type VolumeAccess struct {
	volume  string
	program string
	workDir string
	logger  *zap.SugaredLogger
}

// Open validates the volume path and prepares a scratch directory. Call
// Unpack before reading records, and Close when done.
func Open(volume string, logger *zap.SugaredLogger) (*VolumeAccess, error) {
	info, err := os.Stat(volume)
	if err != nil {
		return nil, fmt.Errorf("seed volume not found: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("seed volume %s is a directory", volume)
	}

	workDir, err := os.MkdirTemp("", "seedvol-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	return &VolumeAccess{
		volume:  volume,
		program: DefaultProgram,
		workDir: workDir,
		logger:  logger,
	}, nil
}

// SetProgram overrides the rdseed binary name or path.
func (v *VolumeAccess) SetProgram(program string) {
	v.program = program
}

// WorkDir returns the scratch directory holding the extracted files.
func (v *VolumeAccess) WorkDir() string {
	return v.workDir
}

// Unpack runs the decoding program to extract event records, station
// summaries and response files into the scratch directory.
func (v *VolumeAccess) Unpack(ctx context.Context) error {
	runs := [][]string{
		{"-f", v.volume, "-e", "-q", v.workDir}, // event records
		{"-f", v.volume, "-S", "-q", v.workDir}, // station summaries
		{"-f", v.volume, "-R", "-q", v.workDir}, // RESP files
	}
	for _, args := range runs {
		if err := v.run(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

func (v *VolumeAccess) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, v.program, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	for _, line := range strings.Split(strings.TrimSpace(stderr.String()), "\n") {
		if line != "" {
			v.logger.Infof("rdseed: %s", line)
		}
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", v.program, strings.Join(args, " "), err)
	}
	return nil
}

// RespFile returns the path of the extracted calibration file for one
// channel identity.
func (v *VolumeAccess) RespFile(id meta.NSLC) string {
	return filepath.Join(v.workDir, fmt.Sprintf("RESP.%s.%s.%s.%s",
		id.Network, id.Station, id.Location, id.Channel))
}

// Close removes the scratch directory and everything extracted into it.
func (v *VolumeAccess) Close() error {
	if v.workDir == "" {
		return nil
	}
	err := os.RemoveAll(v.workDir)
	v.workDir = ""
	return err
}
