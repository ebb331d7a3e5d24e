// Package h264 provides a small subset of H.264 Annex B / NAL-unit
// utilities: the NAL unit type enumeration and a minimal sequence
// parameter set parser good enough to recover a stream's negotiated
// picture width and height for diagnostics.
package h264
