package rtph264

import "github.com/pion/rtp"

// maybeSendSPSPPS synthesizes and emits a STAP-A carrying the configured
// SPS/PPS ahead of an IDR whose stream never sent its own. A
// missing codecInfo is a configuration anomaly, not a fatal error: synthesis
// is silently skipped and the caller keeps forwarding.
func (r *Repacketizer) maybeSendSPSPPS(template *rtp.Packet, out *[][]byte) {
	if !r.codecInfo.available() {
		return
	}

	aggregates := r.packetizeSTAPA([][]byte{r.codecInfo.SPS, r.codecInfo.PPS})
	if len(aggregates) != 1 {
		r.warn("rtph264: expected only 1 packet for sps/pps stapa")
		return
	}

	r.createRTPPackets(template, aggregates, false, out)
	r.extraPackets++
}
