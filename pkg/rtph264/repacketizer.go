package rtph264

import (
	"errors"
	"fmt"

	"github.com/pion/rtp"
)

// NAL unit types relevant to RTP/H.264 framing (RFC 6184).
const (
	naluTypeIDR   = 5
	naluTypeSEI   = 6
	naluTypeSPS   = 7
	naluTypePPS   = 8
	naluTypeSTAPA = 24
	naluTypeFUA   = 28

	fuaHeaderSize = 2 // FU indicator + FU header
	stapaMaxNALUs = 9
)

var errMaxPacketSizeTooSmall = errors.New("rtph264: max packet size must be at least 3")

// CodecInfo carries the SPS/PPS pair a Repacketizer splices in front of an
// IDR access unit whose upstream stream omitted codec configuration.
// Either field may be left empty, in which case synthesis is suppressed.
type CodecInfo struct {
	SPS []byte
	PPS []byte
}

func (c CodecInfo) available() bool {
	return len(c.SPS) > 0 && len(c.PPS) > 0
}

// Repacketizer rewrites a stream of RTP/H.264 packets so that every
// emitted packet's payload fits maxPacketSize, SPS/PPS precede every
// IDR as long as the upstream has not sent an SPS, SEI NALUs are stripped, and
// sequence numbers / marker bits stay self-consistent despite the rewrite.
//
// A Repacketizer is owned by a single RTP stream and is not safe for
// concurrent use; each Repacketize call is synchronous and O(payload size).
type Repacketizer struct {
	maxPacketSize int
	fuaMax        int
	codecInfo     CodecInfo

	seenSPS      bool
	extraPackets int32

	pendingFUA   []*rtp.Packet
	pendingSTAPA []*rtp.Packet

	onWarning func(error)
	onSPS     func([]byte)
}

// New creates a Repacketizer. maxPacketSize bounds the payload size of
// every emitted packet and must be at least 3, to leave room for STAP-A
// framing (a 1-byte header plus one 2-byte NALU length).
func New(maxPacketSize int, codecInfo CodecInfo) (*Repacketizer, error) {
	if maxPacketSize < 3 {
		return nil, errMaxPacketSizeTooSmall
	}

	return &Repacketizer{
		maxPacketSize: maxPacketSize,
		fuaMax:        maxPacketSize - fuaHeaderSize,
		codecInfo:     codecInfo,
		onWarning:     func(error) {},
		onSPS:         func([]byte) {},
	}, nil
}

// OnWarning registers a callback invoked for non-fatal stream anomalies:
// a dropped empty, too-short or unknown-type packet, a pending FU-A/STAP-A
// group that failed to reassemble, or an emitted payload over
// maxPacketSize. Dropped SEI NALUs are not reported. It is never used for
// fatal conditions; Repacketize
// always keeps forwarding afterward. Passing nil restores the no-op
// default.
func (r *Repacketizer) OnWarning(fn func(error)) {
	if fn == nil {
		fn = func(error) {}
	}
	r.onWarning = fn
}

// OnSPS registers a callback invoked with the raw SPS NAL unit (header byte
// included) whenever one is observed in the input stream, whether carried
// as a single NALU, a STAP-A member, or reassembled out of FU-A fragments.
// It is never called for the locally synthesized SPS/PPS maybeSendSPSPPS
// emits ahead of an IDR, since that SPS is already known to the caller (it
// came from CodecInfo). The callback must not retain the slice past the
// call. Passing nil restores the no-op default.
func (r *Repacketizer) OnSPS(fn func([]byte)) {
	if fn == nil {
		fn = func([]byte) {}
	}
	r.onSPS = fn
}

func (r *Repacketizer) warn(format string, args ...any) {
	r.onWarning(fmt.Errorf(format, args...))
}

// Repacketize consumes one input RTP packet and returns zero or more
// serialized RTP packets. pkt is borrowed: its header fields are mutated
// transiently while serializing an emission and restored before this
// method returns.
func (r *Repacketizer) Repacketize(pkt *rtp.Packet) [][]byte {
	if len(pkt.Payload) < 1 {
		r.extraPackets--
		r.warn("rtph264: packet with empty payload, dropping")
		return nil
	}

	var out [][]byte

	r.flushOnTimestampMismatch(pkt.Timestamp, &out)

	naluType := pkt.Payload[0] & 0x1F

	switch {
	case naluType == naluTypeFUA:
		r.handleFUA(pkt, &out)
	case naluType == naluTypeSTAPA:
		r.handleSTAPA(pkt, &out)
	case naluType >= 1 && naluType <= 23:
		r.handleSingleNALU(pkt, naluType, &out)
	default:
		r.extraPackets--
		r.warn("rtph264: unknown nal unit type %d", naluType)
	}

	return out
}

// flushOnTimestampMismatch: a new access unit invalidates any in-progress
// aggregation carried over from the previous one, so pending buffers are
// flushed before the new packet is classified.
func (r *Repacketizer) flushOnTimestampMismatch(ts uint32, out *[][]byte) {
	if len(r.pendingFUA) > 0 && r.pendingFUA[0].Timestamp != ts {
		r.flushPendingFUA(out)
	}
	if len(r.pendingSTAPA) > 0 && r.pendingSTAPA[0].Timestamp != ts {
		r.flushPendingSTAPA(out)
	}
}

// handleSingleNALU handles NAL unit types 1-23, carried one-per-packet.
func (r *Repacketizer) handleSingleNALU(pkt *rtp.Packet, naluType byte, out *[][]byte) {
	if len(r.pendingFUA) > 0 {
		r.flushPendingFUA(out)
	}

	if naluType == naluTypeSPS || naluType == naluTypePPS {
		if naluType == naluTypeSPS {
			r.seenSPS = true
			r.onSPS(pkt.Payload)
		}
		r.bufferSTAPA(pkt)
		return
	}

	if len(r.pendingSTAPA) > 0 {
		r.flushPendingSTAPA(out)
	}

	if naluType == naluTypeSEI {
		r.extraPackets--
		return
	}

	if naluType == naluTypeIDR && !r.seenSPS {
		r.maybeSendSPSPPS(pkt, out)
	}

	if len(pkt.Payload) > r.maxPacketSize {
		chunks := r.packetizeFUA(pkt.Payload, false, false)
		r.createRTPPackets(pkt, chunks, pkt.Marker, out)
		return
	}

	r.createRTPPackets(pkt, [][]byte{pkt.Payload}, pkt.Marker, out)
}
