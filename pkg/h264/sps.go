package h264

import "fmt"

// frameCropping is the frame_cropping_flag payload of a SPS.
type frameCropping struct {
	left, right, top, bottom uint32
}

// SPS is a minimal H.264 sequence parameter set, parsed only deep enough
// to recover the coded picture dimensions.
type SPS struct {
	ProfileIdc                uint32
	LevelIdc                  uint32
	ID                        uint32
	PicWidthInMbsMinus1       uint32
	PicHeightInMapUnitsMinus1 uint32
	FrameMbsOnlyFlag          bool
	FrameCropping             *frameCropping
}

// chromaProfiles lists ProfileIdc values whose SPS carries an extra
// chroma-format / bit-depth / scaling-matrix block (Rec. ITU-T H.264
// §7.3.2.1.1).
var chromaProfiles = map[uint32]bool{
	100: true, 110: true, 122: true, 244: true, 44: true, 83: true,
	86: true, 118: true, 128: true, 138: true, 139: true, 134: true, 135: true,
}

// ParseSPS parses a raw SPS NAL unit (header byte included) far enough to
// expose Width/Height. An SPS that carries scaling matrices or uses
// pic_order_cnt_type 1 is rejected with an error; VUI and HRD parameters
// are not read.
func ParseSPS(nalu []byte) (*SPS, error) {
	nalu = removeEmulationPrevention(nalu)

	if len(nalu) < 4 {
		return nil, fmt.Errorf("h264: sps too short")
	}
	if NALUType(nalu[0]&0x1F) != NALUTypeSPS {
		return nil, fmt.Errorf("h264: not a sps")
	}

	s := &SPS{
		ProfileIdc: uint32(nalu[1]),
		LevelIdc:   uint32(nalu[3]),
	}

	buf := nalu[4:]
	pos := 0
	var err error

	s.ID, err = readGolombUnsigned(buf, &pos)
	if err != nil {
		return nil, err
	}

	if chromaProfiles[s.ProfileIdc] {
		chromaFormatIdc, err := readGolombUnsigned(buf, &pos)
		if err != nil {
			return nil, err
		}
		if chromaFormatIdc == 3 {
			if _, err := readFlag(buf, &pos); err != nil { // separate_colour_plane_flag
				return nil, err
			}
		}
		if _, err := readGolombUnsigned(buf, &pos); err != nil { // bit_depth_luma_minus8
			return nil, err
		}
		if _, err := readGolombUnsigned(buf, &pos); err != nil { // bit_depth_chroma_minus8
			return nil, err
		}
		if _, err := readFlag(buf, &pos); err != nil { // qpprime_y_zero_transform_bypass_flag
			return nil, err
		}

		seqScalingMatrixPresentFlag, err := readFlag(buf, &pos)
		if err != nil {
			return nil, err
		}
		if seqScalingMatrixPresentFlag {
			return nil, fmt.Errorf("h264: sps with scaling matrices is not supported")
		}
	}

	if _, err := readGolombUnsigned(buf, &pos); err != nil { // log2_max_frame_num_minus4
		return nil, err
	}

	picOrderCntType, err := readGolombUnsigned(buf, &pos)
	if err != nil {
		return nil, err
	}

	switch picOrderCntType {
	case 0:
		if _, err := readGolombUnsigned(buf, &pos); err != nil { // log2_max_pic_order_cnt_lsb_minus4
			return nil, err
		}
	case 1:
		return nil, fmt.Errorf("h264: sps with pic_order_cnt_type=1 is not supported")
	}

	if _, err := readGolombUnsigned(buf, &pos); err != nil { // max_num_ref_frames
		return nil, err
	}
	if _, err := readFlag(buf, &pos); err != nil { // gaps_in_frame_num_value_allowed_flag
		return nil, err
	}

	s.PicWidthInMbsMinus1, err = readGolombUnsigned(buf, &pos)
	if err != nil {
		return nil, err
	}

	s.PicHeightInMapUnitsMinus1, err = readGolombUnsigned(buf, &pos)
	if err != nil {
		return nil, err
	}

	s.FrameMbsOnlyFlag, err = readFlag(buf, &pos)
	if err != nil {
		return nil, err
	}

	if !s.FrameMbsOnlyFlag {
		if _, err := readFlag(buf, &pos); err != nil { // mb_adaptive_frame_field_flag
			return nil, err
		}
	}

	if _, err := readFlag(buf, &pos); err != nil { // direct_8x8_inference_flag
		return nil, err
	}

	frameCroppingFlag, err := readFlag(buf, &pos)
	if err != nil {
		return nil, err
	}
	if frameCroppingFlag {
		c := &frameCropping{}
		if c.left, err = readGolombUnsigned(buf, &pos); err != nil {
			return nil, err
		}
		if c.right, err = readGolombUnsigned(buf, &pos); err != nil {
			return nil, err
		}
		if c.top, err = readGolombUnsigned(buf, &pos); err != nil {
			return nil, err
		}
		if c.bottom, err = readGolombUnsigned(buf, &pos); err != nil {
			return nil, err
		}
		s.FrameCropping = c
	}

	return s, nil
}

// Width returns the coded picture width in pixels.
func (s SPS) Width() int {
	if s.FrameCropping != nil {
		return int(((s.PicWidthInMbsMinus1 + 1) * 16) - (s.FrameCropping.left+s.FrameCropping.right)*2)
	}
	return int((s.PicWidthInMbsMinus1 + 1) * 16)
}

// Height returns the coded picture height in pixels.
func (s SPS) Height() int {
	f := uint32(0)
	if s.FrameMbsOnlyFlag {
		f = 1
	}

	if s.FrameCropping != nil {
		return int(((2-f)*(s.PicHeightInMapUnitsMinus1+1))*16 -
			(s.FrameCropping.top+s.FrameCropping.bottom)*2)
	}
	return int((2 - f) * (s.PicHeightInMapUnitsMinus1 + 1) * 16)
}
