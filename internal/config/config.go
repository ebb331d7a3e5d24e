package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// StreamConfig describes one HKSV-facing RTP stream's repacketizer settings.
type StreamConfig struct {
	Name          string
	MaxPacketSize int
	CodecInfoPath string
}

// LoadStreamConfig parses a small key=value descriptor (blank lines and
// lines starting with "#" ignored). Recognized keys: name,
// max_packet_size, codec_info_path.
func LoadStreamConfig(path string) (*StreamConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	cfg := &StreamConfig{MaxPacketSize: 1200}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("config: invalid line %q", line)
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])

		switch key {
		case "name":
			cfg.Name = value
		case "max_packet_size":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("config: invalid max_packet_size %q: %w", value, err)
			}
			cfg.MaxPacketSize = n
		case "codec_info_path":
			cfg.CodecInfoPath = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if cfg.Name == "" {
		return nil, fmt.Errorf("config: name is required")
	}

	return cfg, nil
}
