package rtph264

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

func TestOversizedIDRSplitSynthesizesSPSPPS(t *testing.T) {
	sps := make([]byte, 20)
	sps[0] = 0x67
	pps := make([]byte, 20)
	pps[0] = 0x68

	r, err := New(1000, CodecInfo{SPS: sps, PPS: pps})
	require.NoError(t, err)

	payload := make([]byte, 4000)
	payload[0] = 0x65 // IDR

	pkt := &rtp.Packet{Header: testHeader(10, 5000, true), Payload: payload}
	out := r.Repacketize(pkt)

	pkts := unmarshalAll(t, out)
	require.Greater(t, len(pkts), 1) // synthesized STAP-A + N FU-A fragments

	require.EqualValues(t, 10, pkts[0].SequenceNumber)
	nalus := depacketizeSTAPA(pkts[0].Payload)
	require.Equal(t, [][]byte{sps, pps}, nalus)
	require.False(t, pkts[0].Marker)

	for i, p := range pkts[1:] {
		require.EqualValues(t, 11+i, p.SequenceNumber)
		require.Equal(t, byte(naluTypeFUA), p.Payload[0]&0x1F)
		require.LessOrEqual(t, len(p.Payload), 1000)
	}

	last := pkts[len(pkts)-1]
	require.True(t, last.Marker)
	for _, p := range pkts[1 : len(pkts)-1] {
		require.False(t, p.Marker)
	}

	// a synthesized SPS is not an observed one: the next IDR gets SPS/PPS again
	require.False(t, r.seenSPS)
	require.EqualValues(t, len(pkts)-1, r.extraPackets)
}

func TestMaybeSendSPSPPSSkippedWhenCodecInfoAbsent(t *testing.T) {
	r, err := New(1000, CodecInfo{})
	require.NoError(t, err)

	payload := make([]byte, 50)
	payload[0] = 0x65 // IDR

	pkt := &rtp.Packet{Header: testHeader(1, 1, true), Payload: payload}
	out := r.Repacketize(pkt)

	pkts := unmarshalAll(t, out)
	require.Len(t, pkts, 1)
	require.Equal(t, payload, []byte(pkts[0].Payload))
	require.False(t, r.seenSPS)
}

func TestSeenSPSSuppressesResynthesis(t *testing.T) {
	sps := make([]byte, 10)
	sps[0] = 0x67
	pps := make([]byte, 10)
	pps[0] = 0x68

	r, err := New(1000, CodecInfo{SPS: sps, PPS: pps})
	require.NoError(t, err)
	r.seenSPS = true

	payload := make([]byte, 50)
	payload[0] = 0x65

	pkt := &rtp.Packet{Header: testHeader(1, 1, true), Payload: payload}
	out := r.Repacketize(pkt)

	pkts := unmarshalAll(t, out)
	require.Len(t, pkts, 1)
}
