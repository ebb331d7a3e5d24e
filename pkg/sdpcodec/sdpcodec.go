package sdpcodec

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"

	"github.com/TA2k/hksvrepack/pkg/rtph264"
)

// ParseCodecInfo extracts {SPS, PPS} for payloadType out of a previously
// negotiated SDP session description, reading the sprop-parameter-sets
// fmtp parameter of the matching H.264 media description.
func ParseCodecInfo(sdp []byte, payloadType uint8) (rtph264.CodecInfo, error) {
	var sd psdp.SessionDescription
	if err := sd.Unmarshal(sdp); err != nil {
		return rtph264.CodecInfo{}, fmt.Errorf("sdpcodec: unmarshal sdp: %w", err)
	}

	want := strconv.FormatUint(uint64(payloadType), 10)

	for _, md := range sd.MediaDescriptions {
		if md.MediaName.Media != "video" {
			continue
		}

		found := false
		for _, f := range md.MediaName.Formats {
			if f == want {
				found = true
				break
			}
		}
		if !found {
			continue
		}

		return codecInfoFromMediaDescription(md, payloadType)
	}

	return rtph264.CodecInfo{}, fmt.Errorf("sdpcodec: no video media description for payload type %d", payloadType)
}

func codecInfoFromMediaDescription(md *psdp.MediaDescription, payloadType uint8) (rtph264.CodecInfo, error) {
	v, ok := md.Attribute("fmtp")
	if !ok {
		return rtph264.CodecInfo{}, fmt.Errorf("sdpcodec: fmtp attribute is missing")
	}

	tmp := strings.SplitN(v, " ", 2)
	if len(tmp) != 2 {
		return rtph264.CodecInfo{}, fmt.Errorf("sdpcodec: invalid fmtp attribute (%v)", v)
	}

	for _, kv := range strings.Split(tmp[1], ";") {
		kv = strings.Trim(kv, " ")
		if kv == "" {
			continue
		}

		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] != "sprop-parameter-sets" {
			continue
		}

		sprops := strings.Split(parts[1], ",")
		if len(sprops) < 2 {
			return rtph264.CodecInfo{}, fmt.Errorf("sdpcodec: invalid sprop-parameter-sets (%v)", v)
		}

		sps, err := base64.StdEncoding.DecodeString(sprops[0])
		if err != nil {
			return rtph264.CodecInfo{}, fmt.Errorf("sdpcodec: invalid sprop-parameter-sets: %w", err)
		}

		pps, err := base64.StdEncoding.DecodeString(sprops[1])
		if err != nil {
			return rtph264.CodecInfo{}, fmt.Errorf("sdpcodec: invalid sprop-parameter-sets: %w", err)
		}

		return rtph264.CodecInfo{SPS: sps, PPS: pps}, nil
	}

	return rtph264.CodecInfo{}, fmt.Errorf("sdpcodec: sprop-parameter-sets is missing for payload type %d", payloadType)
}
