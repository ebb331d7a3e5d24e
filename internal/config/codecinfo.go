package config

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/TA2k/hksvrepack/pkg/rtph264"
)

// LoadCodecInfoFile reads a two-line codec-info file: the first line is the
// base64-encoded SPS, the second the base64-encoded PPS.
func LoadCodecInfoFile(path string) (rtph264.CodecInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return rtph264.CodecInfo{}, fmt.Errorf("config: open codec info %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)

	if !scanner.Scan() {
		return rtph264.CodecInfo{}, fmt.Errorf("config: codec info %s is missing sps line", path)
	}
	sps, err := base64.StdEncoding.DecodeString(scanner.Text())
	if err != nil {
		return rtph264.CodecInfo{}, fmt.Errorf("config: codec info %s has invalid sps: %w", path, err)
	}

	if !scanner.Scan() {
		return rtph264.CodecInfo{}, fmt.Errorf("config: codec info %s is missing pps line", path)
	}
	pps, err := base64.StdEncoding.DecodeString(scanner.Text())
	if err != nil {
		return rtph264.CodecInfo{}, fmt.Errorf("config: codec info %s has invalid pps: %w", path, err)
	}

	return rtph264.CodecInfo{SPS: sps, PPS: pps}, nil
}
