package main

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pion/rtp"
)

// readLengthPrefixed reads one uint32-BE-length-prefixed RTP packet from r,
// a simple framing for capturing raw RTP packets to and from disk.
func readLengthPrefixed(r io.Reader) (*rtp.Packet, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("hksvrepack: short packet read: %w", err)
	}

	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(buf); err != nil {
		return nil, fmt.Errorf("hksvrepack: unmarshal packet: %w", err)
	}
	return pkt, nil
}

// writeLengthPrefixed writes one serialized RTP packet with its uint32-BE
// length prefix.
func writeLengthPrefixed(w io.Writer, buf []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(buf)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(buf)
	return err
}
