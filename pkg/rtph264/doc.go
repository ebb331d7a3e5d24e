// Package rtph264 repacketizes a stream of RTP/H.264 packets for a
// receiver that imposes its own maximum packet size and cannot tolerate
// SEI NALUs or a missing SPS/PPS ahead of a keyframe.
//
// Specification: https://datatracker.ietf.org/doc/html/rfc6184
package rtph264
