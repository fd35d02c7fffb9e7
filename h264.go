package rtsa

import (
	"encoding/binary"
	"errors"
)

// H264 NAL unit types
const (
	nalTypeSlice = 1
	nalTypeIDR   = 5
	nalTypeSEI   = 6
	nalTypeSPS   = 7
	nalTypePPS   = 8
	nalTypeAUD   = 9
	nalTypeSTAPA = 24 // Single-time aggregation packet
	nalTypeFUA   = 28 // Fragmentation Unit A
)

var annexBStartCode = []byte{0, 0, 0, 1}

var (
	ErrShortAVCConfig = errors.New("avc decoder configuration record too short")
	ErrBadAVCCLength  = errors.New("avcc nal length exceeds payload")
)

// NALType returns the type of a NAL unit (without start code), or 0.
func NALType(nalu []byte) uint8 {
	if len(nalu) == 0 {
		return 0
	}
	return nalu[0] & 0x1F
}

// SplitAnnexB splits an Annex B byte stream into NAL units. Start codes
// (0x000001 or 0x00000001) are stripped; the returned slices alias data.
func SplitAnnexB(data []byte) [][]byte {
	var nalUnits [][]byte
	start := -1

	for i := 0; i+2 < len(data); i++ {
		if data[i] != 0 || data[i+1] != 0 {
			continue
		}
		var scLen int
		switch {
		case data[i+2] == 1:
			scLen = 3
		case i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1:
			scLen = 4
		default:
			continue
		}
		if start >= 0 {
			nalUnits = appendTrimmedNALU(nalUnits, data[start:i])
		}
		start = i + scLen
		i += scLen - 1
	}

	if start >= 0 {
		nalUnits = appendTrimmedNALU(nalUnits, data[start:])
	}
	return nalUnits
}

// appendTrimmedNALU drops trailing_zero_8bits; a NAL unit never ends in a zero byte.
func appendTrimmedNALU(nalUnits [][]byte, nalu []byte) [][]byte {
	for len(nalu) > 0 && nalu[len(nalu)-1] == 0 {
		nalu = nalu[:len(nalu)-1]
	}
	if len(nalu) == 0 {
		return nalUnits
	}
	return append(nalUnits, nalu)
}

func isVCL(t uint8) bool {
	return t >= nalTypeSlice && t <= nalTypeIDR
}

// firstSliceOfPicture reports whether a VCL NAL starts a new picture:
// first_mb_in_slice is ue(v) coded, so a value of 0 is a single 1 bit.
func firstSliceOfPicture(nalu []byte) bool {
	return len(nalu) > 1 && nalu[1]&0x80 != 0
}

// SplitAccessUnits groups an Annex B stream into access units, each
// re-encoded with four-byte start codes. A new unit starts at an access
// unit delimiter, at parameter sets or SEI following a picture, or at the
// first slice of a new picture.
func SplitAccessUnits(data []byte) [][]byte {
	var (
		units   [][]byte
		cur     []byte
		haveVCL bool
	)
	flush := func() {
		if len(cur) > 0 {
			units = append(units, cur)
		}
		cur = nil
		haveVCL = false
	}

	for _, nalu := range SplitAnnexB(data) {
		t := NALType(nalu)
		switch {
		case t == nalTypeAUD:
			flush()
		case t == nalTypeSPS || t == nalTypePPS || t == nalTypeSEI:
			if haveVCL {
				flush()
			}
		case isVCL(t):
			if haveVCL && firstSliceOfPicture(nalu) {
				flush()
			}
			haveVCL = true
		}
		cur = append(cur, annexBStartCode...)
		cur = append(cur, nalu...)
	}
	flush()
	return units
}

// IsKeyFrame reports whether an Annex B access unit contains an IDR slice.
func IsKeyFrame(au []byte) bool {
	for _, nalu := range SplitAnnexB(au) {
		if NALType(nalu) == nalTypeIDR {
			return true
		}
	}
	return false
}

// AVCDecoderConfig is a parsed AVCDecoderConfigurationRecord, as carried
// in the FLV/MP4 sequence header.
type AVCDecoderConfig struct {
	Profile    uint8
	Level      uint8
	LengthSize int // Bytes in each AVCC NAL length prefix
	SPS        [][]byte
	PPS        [][]byte
}

// ParseAVCDecoderConfig parses an AVCDecoderConfigurationRecord.
func ParseAVCDecoderConfig(rec []byte) (*AVCDecoderConfig, error) {
	if len(rec) < 7 {
		return nil, ErrShortAVCConfig
	}
	cfg := &AVCDecoderConfig{
		Profile:    rec[1],
		Level:      rec[3],
		LengthSize: int(rec[4]&0x03) + 1,
	}

	offset := 5
	numSPS := int(rec[offset] & 0x1F)
	offset++
	for i := 0; i < numSPS; i++ {
		ps, next, err := readParamSet(rec, offset)
		if err != nil {
			return nil, err
		}
		cfg.SPS = append(cfg.SPS, ps)
		offset = next
	}

	if offset >= len(rec) {
		return nil, ErrShortAVCConfig
	}
	numPPS := int(rec[offset])
	offset++
	for i := 0; i < numPPS; i++ {
		ps, next, err := readParamSet(rec, offset)
		if err != nil {
			return nil, err
		}
		cfg.PPS = append(cfg.PPS, ps)
		offset = next
	}
	return cfg, nil
}

func readParamSet(rec []byte, offset int) ([]byte, int, error) {
	if offset+2 > len(rec) {
		return nil, 0, ErrShortAVCConfig
	}
	length := int(binary.BigEndian.Uint16(rec[offset:]))
	offset += 2
	if offset+length > len(rec) {
		return nil, 0, ErrShortAVCConfig
	}
	ps := make([]byte, length)
	copy(ps, rec[offset:offset+length])
	return ps, offset + length, nil
}

// AVCCToAnnexB converts length-prefixed NAL units to an Annex B stream.
// lengthSize is 1, 2 or 4.
func AVCCToAnnexB(avcc []byte, lengthSize int) ([]byte, error) {
	out := make([]byte, 0, len(avcc)+16)
	for offset := 0; offset < len(avcc); {
		if offset+lengthSize > len(avcc) {
			return nil, ErrBadAVCCLength
		}
		var length int
		for i := 0; i < lengthSize; i++ {
			length = length<<8 | int(avcc[offset+i])
		}
		offset += lengthSize
		if length == 0 {
			continue
		}
		if offset+length > len(avcc) {
			return nil, ErrBadAVCCLength
		}
		out = append(out, annexBStartCode...)
		out = append(out, avcc[offset:offset+length]...)
		offset += length
	}
	return out, nil
}

// AnnexB converts one AVCC frame using the record's length size. Key
// frames are prefixed with the parameter sets so a decoder can start there.
func (c *AVCDecoderConfig) AnnexB(avcc []byte, key bool) ([]byte, error) {
	frame, err := AVCCToAnnexB(avcc, c.LengthSize)
	if err != nil {
		return nil, err
	}
	if !key {
		return frame, nil
	}
	var out []byte
	for _, ps := range c.SPS {
		out = append(out, annexBStartCode...)
		out = append(out, ps...)
	}
	for _, ps := range c.PPS {
		out = append(out, annexBStartCode...)
		out = append(out, ps...)
	}
	return append(out, frame...), nil
}
