package rtph264

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

// defragment is the test-only inverse of packetizeFUA, used to check the
// P5 round trip property: fragments should recombine into the original NAL.
func defragment(t *testing.T, fragments [][]byte) []byte {
	t.Helper()
	require.NotEmpty(t, fragments)

	first := fragments[0]
	reconstructed := (first[0] & 0xE0) | (first[1] & 0x1F)
	out := []byte{reconstructed}
	for _, f := range fragments {
		out = append(out, f[2:]...)
	}
	return out
}

func TestPacketizeFUARoundTrip(t *testing.T) {
	r, err := New(500, CodecInfo{})
	require.NoError(t, err)

	data := make([]byte, 1995)
	data[0] = 0x65 // IDR, NRI=3
	for i := 1; i < len(data); i++ {
		data[i] = byte(i)
	}

	fragments := r.packetizeFUA(data, false, false)
	require.Equal(t, data, defragment(t, fragments))
}

func TestPacketizeFUAChunkSizingMatchesScenario5(t *testing.T) {
	r, err := New(500, CodecInfo{})
	require.NoError(t, err)

	data := make([]byte, 1995)
	data[0] = 0x65

	fragments := r.packetizeFUA(data, false, false)
	require.Len(t, fragments, 5)

	for i, f := range fragments {
		require.LessOrEqual(t, len(f), r.maxPacketSize)

		start := f[1]&0x80 != 0
		end := f[1]&0x40 != 0
		require.Equal(t, i == 0, start)
		require.Equal(t, i == len(fragments)-1, end)
	}

	// sizes differ by at most one byte across fragments
	min, max := len(fragments[0]), len(fragments[0])
	for _, f := range fragments {
		if len(f) < min {
			min = len(f)
		}
		if len(f) > max {
			max = len(f)
		}
	}
	require.LessOrEqual(t, max-min, 1)
}

func TestPacketizeFUASpecialInputReFragmentsAFragment(t *testing.T) {
	r, err := New(100, CodecInfo{})
	require.NoError(t, err)

	// a single FU-A "start" fragment of an IDR, oversized for maxPacketSize
	frag := make([]byte, 300)
	frag[0] = 0x7C // FU indicator, NRI=3, type=28
	frag[1] = 0x85 // start bit set, original type 5 (IDR)

	out := r.packetizeFUA(frag, false, false)
	require.Greater(t, len(out), 1)
	require.True(t, out[0][1]&0x80 != 0, "start bit carried from original fragment")
	require.True(t, out[len(out)-1][1]&0x40 == 0, "end bit stays clear, as in the original start-only fragment")
}

func TestHandleFUAFatFastPath(t *testing.T) {
	r, err := New(500, CodecInfo{})
	require.NoError(t, err)

	payload := make([]byte, 1100) // >= 2*maxPacketSize
	payload[0] = 0x7C
	payload[1] = 0xA5 // start, original type 5

	pkt := &rtp.Packet{Header: testHeader(1, 1, false), Payload: payload}
	out := r.Repacketize(pkt)

	require.NotEmpty(t, out)
	require.Empty(t, r.pendingFUA, "fat fragment path must not retain state")
}

func TestHandleFUAReassemblesAndReFragments(t *testing.T) {
	r, err := New(500, CodecInfo{})
	require.NoError(t, err)

	mk := func(seq uint16, size int, start, end bool) *rtp.Packet {
		p := make([]byte, size)
		p[0] = 0x7C
		p[1] = 0x05
		if start {
			p[1] |= 0x80
		}
		if end {
			p[1] |= 0x40
		}
		return &rtp.Packet{Header: testHeader(seq, 42, end), Payload: p}
	}

	var out [][]byte
	out = append(out, r.Repacketize(mk(100, 800, true, false))...)
	require.Empty(t, out)
	out = append(out, r.Repacketize(mk(101, 800, false, false))...)
	require.Empty(t, out)
	out = append(out, r.Repacketize(mk(102, 400, false, true))...)
	require.NotEmpty(t, out)

	pkts := unmarshalAll(t, out)
	require.Len(t, pkts, 5)
	require.True(t, pkts[len(pkts)-1].Marker)
	for _, p := range pkts[:len(pkts)-1] {
		require.False(t, p.Marker)
	}
}

func TestOnSPSFiresForReassembledFUA(t *testing.T) {
	r, err := New(500, CodecInfo{})
	require.NoError(t, err)

	var seen []byte
	r.OnSPS(func(sps []byte) { seen = append([]byte(nil), sps...) })

	mk := func(seq uint16, payload []byte, start, end bool) *rtp.Packet {
		p := []byte{0x7C, 0x07} // FU indicator, FU header type=7 (SPS)
		if start {
			p[1] |= 0x80
		}
		if end {
			p[1] |= 0x40
		}
		p = append(p, payload...)
		return &rtp.Packet{Header: testHeader(seq, 9, end), Payload: p}
	}

	r.Repacketize(mk(1, []byte{0x42, 0x00}, true, false))
	require.Nil(t, seen)
	r.Repacketize(mk(2, []byte{0x1E, 0xAA}, false, true))

	require.Equal(t, []byte{0x67, 0x42, 0x00, 0x1E, 0xAA}, seen)
	require.True(t, r.seenSPS)
}

func TestFlushPendingFUADiscardsOnNalTypeMismatch(t *testing.T) {
	r, err := New(500, CodecInfo{})
	require.NoError(t, err)

	mk := func(seq uint16, naluType byte, start bool) *rtp.Packet {
		p := []byte{0x7C, naluType}
		if start {
			p[1] |= 0x80
		}
		return &rtp.Packet{Header: testHeader(seq, 7, false), Payload: append(p, 1, 2, 3)}
	}

	var warned error
	r.OnWarning(func(err error) { warned = err })

	out := r.Repacketize(mk(1, 0x05, true))
	require.Empty(t, out)
	out = r.Repacketize(mk(2, 0x06|0x40, false))
	require.Empty(t, out)
	require.Error(t, warned)
}
