package rtph264

import "github.com/pion/rtp"

// packetizeFUA splits a whole NAL unit (data starts with its NAL header
// byte) into FU-A fragment payloads bounded by fuaMax bytes each. If data
// itself begins with an FU-A header (type 28), it is treated as a single
// fragment the caller wants re-fragmented: the original NAL header is
// reconstructed and noStart/noEnd are derived from that fragment's own
// start/end bits rather than the caller's arguments.
func (r *Repacketizer) packetizeFUA(data []byte, noStart, noEnd bool) [][]byte {
	if len(data) >= 2 && data[0]&0x1F == naluTypeFUA {
		fuHeader := data[1]
		reconstructed := (data[0] & 0xE0) | (fuHeader & 0x1F)
		noStart = fuHeader&0x80 == 0
		noEnd = fuHeader&0x40 == 0
		rest := data[2:]
		data = make([]byte, 0, len(rest)+1)
		data = append(data, reconstructed)
		data = append(data, rest...)
	}

	naluHeader := data[0]
	payload := data[1:]
	payloadSize := len(payload)

	numPackets := (payloadSize + r.fuaMax - 1) / r.fuaMax
	if numPackets < 1 {
		numPackets = 1
	}

	chunkSize := payloadSize / numPackets
	numLarger := payloadSize % numPackets

	out := make([][]byte, 0, numPackets)
	off := 0
	for i := 0; i < numPackets; i++ {
		size := chunkSize
		if i < numLarger {
			size++
		}

		start := i == 0 && !noStart
		end := i == numPackets-1 && !noEnd

		fuIndicator := (naluHeader & 0xE0) | naluTypeFUA
		fuHeader := naluHeader & 0x1F
		if start {
			fuHeader |= 0x80
		}
		if end {
			fuHeader |= 0x40
		}

		frag := make([]byte, 0, fuaHeaderSize+size)
		frag = append(frag, fuIndicator, fuHeader)
		frag = append(frag, payload[off:off+size]...)
		out = append(out, frag)

		off += size
	}

	return out
}

// handleFUA implements the FU-A input path.
func (r *Repacketizer) handleFUA(pkt *rtp.Packet, out *[][]byte) {
	if len(pkt.Payload) < 2 {
		r.extraPackets--
		r.warn("rtph264: fua packet too short, dropping")
		return
	}

	if len(r.pendingSTAPA) > 0 {
		r.flushPendingSTAPA(out)
	}

	fuHeader := pkt.Payload[1]
	isIDRStart := fuHeader&0x1F == naluTypeIDR && fuHeader&0x80 != 0
	if isIDRStart && !r.seenSPS {
		r.maybeSendSPSPPS(pkt, out)
	}

	if len(r.pendingFUA) == 0 {
		if len(pkt.Payload) >= 2*r.maxPacketSize {
			chunks := r.packetizeFUA(pkt.Payload, false, false)
			r.createRTPPackets(pkt, chunks, pkt.Marker, out)
			return
		}
		r.pendingFUA = append(r.pendingFUA, pkt.Clone())
		if fuHeader&0x40 != 0 {
			r.flushPendingFUA(out)
		}
		return
	}

	r.pendingFUA = append(r.pendingFUA, pkt.Clone())
	if fuHeader&0x40 != 0 {
		r.flushPendingFUA(out)
	}
}

// flushPendingFUA reassembles the buffered fragments into their original
// NAL unit and re-fragments it against the current packet size budget.
func (r *Repacketizer) flushPendingFUA(out *[][]byte) {
	pending := r.pendingFUA
	r.pendingFUA = nil
	if len(pending) == 0 {
		return
	}

	originalType := pending[0].Payload[1] & 0x1F
	prevSeq := pending[0].SequenceNumber
	for _, p := range pending[1:] {
		if p.Payload[1]&0x1F != originalType {
			r.warn("rtph264: nal type mismatch")
			return
		}
		if p.SequenceNumber != prevSeq+1 {
			r.warn("rtph264: fua packet is missing. skipping refragmentation.")
			return
		}
		prevSeq = p.SequenceNumber
	}

	first := pending[0]
	last := pending[len(pending)-1]

	hasFuStart := first.Payload[1]&0x80 != 0
	hasFuEnd := last.Payload[1]&0x40 != 0

	reconstructed := (first.Payload[0] & 0xE0) | (first.Payload[1] & 0x1F)

	defrag := make([]byte, 0, len(pending)*len(first.Payload))
	defrag = append(defrag, reconstructed)
	for _, p := range pending {
		defrag = append(defrag, p.Payload[2:]...)
	}

	if hasFuStart && hasFuEnd && originalType == naluTypeSPS {
		r.seenSPS = true
		r.onSPS(defrag)
	}

	chunks := r.packetizeFUA(defrag, !hasFuStart, !hasFuEnd)
	r.createRTPPackets(first, chunks, last.Marker, out)

	r.extraPackets -= int32(len(pending) - 1)
}
