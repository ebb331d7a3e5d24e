package rtph264

import "github.com/pion/rtp"

// depacketizeSTAPA splits a STAP-A payload into its constituent NAL units,
// skipping the aggregation header and reading each NAL behind its 2-byte
// big-endian length prefix.
func depacketizeSTAPA(payload []byte) [][]byte {
	if len(payload) < 1 {
		return nil
	}

	var out [][]byte
	buf := payload[1:]
	for len(buf) >= 2 {
		size := int(buf[0])<<8 | int(buf[1])
		buf = buf[2:]
		if size <= 0 || size > len(buf) {
			break
		}
		out = append(out, buf[:size])
		buf = buf[size:]
	}
	return out
}

// packetizeOneSTAPA consumes NALs from the front of datas to build one
// STAP-A packet bounded by max_packet_size and a 9-NAL cap.
// If the very first remaining NAL alone exceeds the budget, it reports the
// degenerate bug-compatible fallback: the raw NAL is popped and returned
// unframed.
func (r *Repacketizer) packetizeOneSTAPA(datas *[][]byte) (_ []byte, degenerate bool) {
	budget := r.maxPacketSize - 3

	var packed [][]byte
	for len(*datas) > 0 && len(packed) < stapaMaxNALUs {
		nalu := (*datas)[0]
		cost := 2 + len(nalu)
		if cost > budget {
			break
		}
		budget -= cost
		packed = append(packed, nalu)
		*datas = (*datas)[1:]
	}

	if len(packed) == 0 {
		raw := (*datas)[0]
		*datas = (*datas)[1:]
		r.warn("rtph264: stap a packet is too large")
		return raw, true
	}

	stapHeader := byte(naluTypeSTAPA) | (packed[0][0] & 0xE0)
	for _, nalu := range packed {
		stapHeader |= nalu[0] & 0x80
		if nalu[0]&0x60 > stapHeader&0x60 {
			stapHeader = (stapHeader &^ 0x60) | (nalu[0] & 0x60)
		}
	}

	buf := make([]byte, 0, r.maxPacketSize)
	buf = append(buf, stapHeader)
	for _, nalu := range packed {
		buf = append(buf, byte(len(nalu)>>8), byte(len(nalu)))
		buf = append(buf, nalu...)
	}
	return buf, false
}

// packetizeSTAPA repeatedly aggregates datas until exhausted.
func (r *Repacketizer) packetizeSTAPA(datas [][]byte) [][]byte {
	queue := datas
	var out [][]byte
	for len(queue) > 0 {
		one, _ := r.packetizeOneSTAPA(&queue)
		out = append(out, one)
	}
	return out
}

func (r *Repacketizer) bufferSTAPA(pkt *rtp.Packet) {
	r.pendingSTAPA = append(r.pendingSTAPA, pkt.Clone())
}

// handleSTAPA implements the STAP-A input path.
func (r *Repacketizer) handleSTAPA(pkt *rtp.Packet, out *[][]byte) {
	if len(r.pendingFUA) > 0 {
		r.flushPendingFUA(out)
	}

	nalus := depacketizeSTAPA(pkt.Payload)

	remaining := make([][]byte, 0, len(nalus))
	for _, nalu := range nalus {
		if len(nalu) < 1 {
			continue
		}
		naluType := nalu[0] & 0x1F
		if naluType == naluTypeSEI {
			continue
		}
		if naluType == naluTypeSPS {
			r.seenSPS = true
			r.onSPS(nalu)
		}
		remaining = append(remaining, nalu)
	}

	aggregates := r.packetizeSTAPA(remaining)
	r.createRTPPackets(pkt, aggregates, pkt.Marker, out)
}

// flushPendingSTAPA re-aggregates the buffered SPS/PPS payloads and emits
// them as a single packet derived from the first buffered packet's header.
func (r *Repacketizer) flushPendingSTAPA(out *[][]byte) {
	pending := r.pendingSTAPA
	r.pendingSTAPA = nil
	if len(pending) == 0 {
		return
	}

	payloads := make([][]byte, 0, len(pending))
	for _, p := range pending {
		payloads = append(payloads, p.Payload)
	}

	aggregates := r.packetizeSTAPA(payloads)
	if len(aggregates) != 1 {
		r.warn("rtph264: expected only 1 packet for sps/pps stapa")
		return
	}

	first := pending[0]
	r.createRTPPackets(first, aggregates, first.Marker, out)
	r.extraPackets -= int32(len(pending) - 1)
}
