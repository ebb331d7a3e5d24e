// Package diag wires a stream's non-fatal rtph264.OnWarning callback to
// structured logging and live stats, an ambient layer the core rtph264
// package deliberately has no dependency on.
package diag
