package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadStreamConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.conf")
	require.NoError(t, os.WriteFile(path, []byte(""+
		"# comment\n"+
		"name=frontdoor\n"+
		"max_packet_size=1100\n"+
		"codec_info_path=/var/lib/hksvrepack/frontdoor.codec\n"), 0o644))

	cfg, err := LoadStreamConfig(path)
	require.NoError(t, err)
	require.Equal(t, "frontdoor", cfg.Name)
	require.Equal(t, 1100, cfg.MaxPacketSize)
	require.Equal(t, "/var/lib/hksvrepack/frontdoor.codec", cfg.CodecInfoPath)
}

func TestLoadStreamConfigDefaultsMaxPacketSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.conf")
	require.NoError(t, os.WriteFile(path, []byte("name=backyard\n"), 0o644))

	cfg, err := LoadStreamConfig(path)
	require.NoError(t, err)
	require.Equal(t, 1200, cfg.MaxPacketSize)
}

func TestLoadStreamConfigRequiresName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.conf")
	require.NoError(t, os.WriteFile(path, []byte("max_packet_size=1100\n"), 0o644))

	_, err := LoadStreamConfig(path)
	require.Error(t, err)
}

func TestLoadCodecInfoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cam1.codec")

	sps := []byte{0x67, 1, 2, 3}
	pps := []byte{0x68, 4, 5}
	content := base64.StdEncoding.EncodeToString(sps) + "\n" + base64.StdEncoding.EncodeToString(pps) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	info, err := LoadCodecInfoFile(path)
	require.NoError(t, err)
	require.Equal(t, sps, info.SPS)
	require.Equal(t, pps, info.PPS)
}

func TestLoadCodecInfoFileMissingPPS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cam1.codec")
	require.NoError(t, os.WriteFile(path, []byte("Z0IAHg==\n"), 0o644))

	_, err := LoadCodecInfoFile(path)
	require.Error(t, err)
}
