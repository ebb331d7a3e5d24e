package rtph264

import "github.com/pion/rtp"

// createPacket serializes template with payload and marker substituted in,
// rewriting the sequence number by the current extraPackets offset, then
// restores template's original fields. template is borrowed.
func (r *Repacketizer) createPacket(template *rtp.Packet, payload []byte, marker bool) []byte {
	origSeq := template.SequenceNumber
	origMarker := template.Marker
	origPayload := template.Payload

	template.SequenceNumber = uint16(int32(origSeq) + r.extraPackets)
	template.Marker = marker
	template.Payload = payload

	if len(payload) > r.maxPacketSize {
		r.warn("rtph264: packet exceeded max packet size.")
	}

	buf, err := template.Marshal()

	template.SequenceNumber = origSeq
	template.Marker = origMarker
	template.Payload = origPayload

	if err != nil {
		r.warn("rtph264: failed to marshal packet: %w", err)
		return nil
	}
	return buf
}

// createRTPPackets serializes each chunk as its own RTP packet, advancing
// extraPackets for every chunk after the first and placing hadMarker only
// on the final chunk.
func (r *Repacketizer) createRTPPackets(template *rtp.Packet, chunks [][]byte, hadMarker bool, out *[][]byte) {
	for i, chunk := range chunks {
		if i != 0 {
			r.extraPackets++
		}
		marker := hadMarker && i == len(chunks)-1
		if buf := r.createPacket(template, chunk, marker); buf != nil {
			*out = append(*out, buf)
		}
	}
}
