// Package config loads per-stream repacketizer settings and watches the
// codec-info file an operator drops SPS/PPS updates into, so a camera
// firmware change doesn't require a process restart to pick up.
package config
