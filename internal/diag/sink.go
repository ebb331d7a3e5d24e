package diag

import (
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Stats is a point-in-time snapshot of one stream's repacketizer counters.
type Stats struct {
	Stream        string `json:"stream"`
	CorrelationID string `json:"correlation_id"`
	PacketsIn     uint64 `json:"packets_in"`
	PacketsOut    uint64 `json:"packets_out"`
	Dropped       uint64 `json:"dropped"`
	ExtraPackets  int32  `json:"extra_packets"`
}

// Sink adapts one stream's rtph264.OnWarning hook to structured logging and
// exposes running counters a websocket feed (see Hub) can broadcast.
type Sink struct {
	logger        zerolog.Logger
	stream        string
	correlationID string

	packetsIn    atomic.Uint64
	packetsOut   atomic.Uint64
	dropped      atomic.Uint64
	extraPackets atomic.Int32

	lastWidth, lastHeight int
}

// NewSink builds a Sink that writes structured log lines to w (typically a
// console writer in the foreground, or an io.MultiWriter that also feeds a
// lumberjack.Logger when running as a daemon).
func NewSink(stream string, w io.Writer) *Sink {
	correlationID := uuid.NewString()
	logger := zerolog.New(w).With().
		Timestamp().
		Str("stream", stream).
		Str("correlation_id", correlationID).
		Logger()

	return &Sink{
		logger:        logger,
		stream:        stream,
		correlationID: correlationID,
	}
}

// OnWarning is suitable for passing directly to (*rtph264.Repacketizer).OnWarning.
func (s *Sink) OnWarning(err error) {
	s.dropped.Add(1)
	s.logger.Warn().Err(err).Msg("repacketizer warning")
}

// RecordIn counts one consumed input packet.
func (s *Sink) RecordIn() {
	s.packetsIn.Add(1)
}

// RecordOut counts n emitted output packets.
func (s *Sink) RecordOut(n int) {
	s.packetsOut.Add(uint64(n))
}

// SetExtraPackets records the repacketizer's current extra_packets offset.
func (s *Sink) SetExtraPackets(v int32) {
	s.extraPackets.Store(v)
}

// LogResolution logs a stream's negotiated picture dimensions the first
// time its SPS is observed and again whenever they differ from the last
// logged ones. Repeated calls with the same dimensions are silently ignored.
func (s *Sink) LogResolution(width, height int) {
	if width == s.lastWidth && height == s.lastHeight {
		return
	}
	s.lastWidth, s.lastHeight = width, height
	s.logger.Info().Int("width", width).Int("height", height).Msg("sps dimensions")
}

// Snapshot returns the current counters.
func (s *Sink) Snapshot() Stats {
	return Stats{
		Stream:        s.stream,
		CorrelationID: s.correlationID,
		PacketsIn:     s.packetsIn.Load(),
		PacketsOut:    s.packetsOut.Load(),
		Dropped:       s.dropped.Load(),
		ExtraPackets:  s.extraPackets.Load(),
	}
}
