package rtsa

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/rtp"
)

// rtpHeaderSize is the fixed RTP header without CSRCs or extensions.
const rtpHeaderSize = 12

// H264Frame is one Annex B access unit with its RTP timestamp.
type H264Frame struct {
	Data      []byte
	Key       bool
	Timestamp uint32 // 90 kHz
}

// H264Packetizer splits Annex B access units into RTP packets using single
// NAL unit packets and FU-A fragmentation (RFC 6184, packetization mode 1).
type H264Packetizer struct {
	ssrc        uint32
	payloadType uint8
	mtu         int
	sequencer   rtp.Sequencer
	mu          sync.Mutex
}

// NewH264Packetizer creates a packetizer. mtu <= 0 selects DefaultMTU.
func NewH264Packetizer(ssrc uint32, payloadType uint8, mtu int) *H264Packetizer {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	return &H264Packetizer{
		ssrc:        ssrc,
		payloadType: payloadType,
		mtu:         mtu,
		sequencer:   rtp.NewRandomSequencer(),
	}
}

// Packetize converts one access unit into RTP packets. The marker bit is
// set on the last packet.
func (p *H264Packetizer) Packetize(au []byte, timestamp uint32) ([]*rtp.Packet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(au) == 0 {
		return nil, nil
	}
	nalUnits := SplitAnnexB(au)
	if len(nalUnits) == 0 {
		return nil, fmt.Errorf("no NAL units found in frame")
	}

	var packets []*rtp.Packet
	for i, nalu := range nalUnits {
		isLast := i == len(nalUnits)-1
		if len(nalu) <= p.mtu-rtpHeaderSize {
			packets = append(packets, p.packet(nalu, timestamp, isLast))
			continue
		}
		packets = append(packets, p.fragment(nalu, timestamp, isLast)...)
	}
	return packets, nil
}

func (p *H264Packetizer) packet(payload []byte, timestamp uint32, marker bool) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         marker,
			PayloadType:    p.payloadType,
			SequenceNumber: p.sequencer.NextSequenceNumber(),
			Timestamp:      timestamp,
			SSRC:           p.ssrc,
		},
		Payload: payload,
	}
}

// fragment splits a large NAL unit into FU-A packets.
func (p *H264Packetizer) fragment(nalu []byte, timestamp uint32, isLastNALU bool) []*rtp.Packet {
	nalType := nalu[0] & 0x1F
	nri := nalu[0] & 0x60

	payload := nalu[1:]
	maxPayload := p.mtu - rtpHeaderSize - 2 // FU indicator + FU header

	var packets []*rtp.Packet
	for offset := 0; offset < len(payload); {
		end := min(offset+maxPayload, len(payload))
		isStart := offset == 0
		isEnd := end == len(payload)

		fuHeader := nalType
		if isStart {
			fuHeader |= 0x80
		}
		if isEnd {
			fuHeader |= 0x40
		}

		buf := make([]byte, 2+end-offset)
		buf[0] = nri | nalTypeFUA
		buf[1] = fuHeader
		copy(buf[2:], payload[offset:end])

		packets = append(packets, p.packet(buf, timestamp, isEnd && isLastNALU))
		offset = end
	}
	return packets
}

// SSRC returns the configured SSRC.
func (p *H264Packetizer) SSRC() uint32 { p.mu.Lock(); defer p.mu.Unlock(); return p.ssrc }

// MTU returns the configured MTU.
func (p *H264Packetizer) MTU() int { p.mu.Lock(); defer p.mu.Unlock(); return p.mtu }

var errFUATooShort = errors.New("FU-A packet too short")

// H264Depacketizer reassembles access units from RTP packets. Packets older
// than the frame being assembled are dropped.
type H264Depacketizer struct {
	frameData   []byte
	fuaBuffer   []byte
	fragmenting bool
	started     bool
	timestamp   uint32
	key         bool
	mu          sync.Mutex
}

// NewH264Depacketizer creates a depacketizer.
func NewH264Depacketizer() *H264Depacketizer {
	return &H264Depacketizer{}
}

// Depacketize consumes one packet and returns a complete frame when the
// marker bit closes one, or nil.
func (d *H264Depacketizer) Depacketize(pkt *rtp.Packet) (*H264Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(pkt.Payload) == 0 {
		return nil, nil
	}

	ts := pkt.Header.Timestamp
	if d.started && ts != d.timestamp {
		if IsRTPTimestampOlder(ts, d.timestamp) {
			return nil, nil
		}
		d.reset()
	}
	d.started = true
	d.timestamp = ts

	switch nalType := NALType(pkt.Payload); {
	case nalType >= 1 && nalType <= 23:
		d.appendNALU(pkt.Payload)
	case nalType == nalTypeSTAPA:
		d.depacketizeSTAPA(pkt.Payload)
	case nalType == nalTypeFUA:
		if err := d.depacketizeFUA(pkt.Payload); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported NAL type: %d", nalType)
	}

	if !pkt.Header.Marker || len(d.frameData) == 0 {
		return nil, nil
	}
	frame := &H264Frame{
		Data:      make([]byte, len(d.frameData)),
		Key:       d.key,
		Timestamp: d.timestamp,
	}
	copy(frame.Data, d.frameData)
	d.reset()
	return frame, nil
}

func (d *H264Depacketizer) appendNALU(nalu []byte) {
	if NALType(nalu) == nalTypeIDR {
		d.key = true
	}
	d.frameData = append(d.frameData, annexBStartCode...)
	d.frameData = append(d.frameData, nalu...)
}

func (d *H264Depacketizer) depacketizeSTAPA(payload []byte) {
	for offset := 1; offset+2 <= len(payload); {
		size := int(binary.BigEndian.Uint16(payload[offset:]))
		offset += 2
		if offset+size > len(payload) {
			return
		}
		if size > 0 {
			d.appendNALU(payload[offset : offset+size])
		}
		offset += size
	}
}

func (d *H264Depacketizer) depacketizeFUA(payload []byte) error {
	if len(payload) < 2 {
		return errFUATooShort
	}
	fuIndicator, fuHeader := payload[0], payload[1]
	isStart := fuHeader&0x80 != 0
	isEnd := fuHeader&0x40 != 0

	if isStart {
		d.fuaBuffer = append(d.fuaBuffer[:0], fuIndicator&0xE0|fuHeader&0x1F)
		d.fragmenting = true
	}
	if !d.fragmenting {
		return nil
	}
	d.fuaBuffer = append(d.fuaBuffer, payload[2:]...)
	if isEnd {
		d.appendNALU(d.fuaBuffer)
		d.fuaBuffer = d.fuaBuffer[:0]
		d.fragmenting = false
	}
	return nil
}

func (d *H264Depacketizer) reset() {
	d.frameData = d.frameData[:0]
	d.fuaBuffer = d.fuaBuffer[:0]
	d.fragmenting = false
	d.key = false
}

// DepacketizeBytes parses and consumes one raw RTP packet.
func (d *H264Depacketizer) DepacketizeBytes(data []byte) (*H264Frame, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return nil, err
	}
	return d.Depacketize(&pkt)
}

// Reset clears any partial frame.
func (d *H264Depacketizer) Reset() {
	d.mu.Lock()
	d.reset()
	d.started = false
	d.timestamp = 0
	d.mu.Unlock()
}
