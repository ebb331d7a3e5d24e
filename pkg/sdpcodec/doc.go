// Package sdpcodec extracts H.264 codec configuration (SPS/PPS) from an
// already-negotiated SDP session description, the way a track's fmtp line
// carries it, without performing SDP offer/answer negotiation itself.
package sdpcodec
