package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyStreamConfigOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cam1.conf")
	content := "name=frontdoor\nmax_packet_size=900\ncodec_info_path=/var/lib/hksvrepack/frontdoor.codec\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	opts := &serveOptions{
		configPath:    path,
		streamName:    "stream",
		maxPacketSize: 1200,
	}
	require.NoError(t, applyStreamConfig(opts))

	require.Equal(t, "frontdoor", opts.streamName)
	require.Equal(t, 900, opts.maxPacketSize)
	require.Equal(t, "/var/lib/hksvrepack/frontdoor.codec", opts.codecInfoPath)
}

func TestApplyStreamConfigNoopWithoutPath(t *testing.T) {
	opts := &serveOptions{streamName: "stream", maxPacketSize: 1200}
	require.NoError(t, applyStreamConfig(opts))
	require.Equal(t, "stream", opts.streamName)
	require.Equal(t, 1200, opts.maxPacketSize)
}
