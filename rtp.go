package rtsa

import (
	"errors"
	"sync"
	"time"

	"github.com/pion/rtp"
)

// Default MTU for RTP packets (UDP safe)
const DefaultMTU = 1200

// videoClockRate is the RTP clock for all video payloads.
const videoClockRate = 90000

// IsRTPTimestampOlder returns true if ts1 is older than or equal to ts2,
// handling 32-bit wraparound.
func IsRTPTimestampOlder(ts1, ts2 uint32) bool {
	if ts1 == ts2 {
		return true
	}
	return ts2-ts1 < 0x80000000
}

// RTPWriter accepts RTP packets. *webrtc.TrackLocalStaticRTP satisfies it.
type RTPWriter interface {
	WriteRTP(packet *rtp.Packet) error
}

// ErrUnsupportedPayload is returned by VideoForwarder for non-H.264 frames.
var ErrUnsupportedPayload = errors.New("only H.264 video can be forwarded")

// VideoForwarder turns received H.264 frames (the OnVideoData payload) into
// RTP packets for one remote user. Timestamps follow the local arrival
// clock, since the SDK's 16-bit send timestamp wraps every minute.
type VideoForwarder struct {
	w          RTPWriter
	packetizer *H264Packetizer
	now        func() time.Time

	mu      sync.Mutex
	base    time.Time
	waitKey bool
	frames  uint64
}

// NewVideoForwarder creates a forwarder writing to w. Delta frames are
// discarded until the first key frame arrives.
func NewVideoForwarder(w RTPWriter, ssrc uint32, payloadType uint8) *VideoForwarder {
	return &VideoForwarder{
		w:          w,
		packetizer: NewH264Packetizer(ssrc, payloadType, DefaultMTU),
		now:        time.Now,
		waitKey:    true,
	}
}

// Forward packetizes and writes one frame. data is not retained, so it may
// be the borrowed slice passed to an event handler.
func (f *VideoForwarder) Forward(data []byte, info VideoFrameInfo) error {
	if info.DataType != VideoDataTypeH264 {
		return ErrUnsupportedPayload
	}
	key := info.FrameType == VideoFrameTypeKey || (info.FrameType == VideoFrameTypeAuto && IsKeyFrame(data))

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.waitKey {
		if !key {
			return nil
		}
		f.waitKey = false
	}
	now := f.now()
	if f.base.IsZero() {
		f.base = now
	}
	// Scale in microseconds; only the uint32 result may wrap.
	ts := uint32(uint64(now.Sub(f.base).Microseconds()) * (videoClockRate / 1000) / 1000)

	packets, err := f.packetizer.Packetize(data, ts)
	if err != nil {
		return err
	}
	for _, pkt := range packets {
		if err := f.w.WriteRTP(pkt); err != nil {
			return err
		}
	}
	f.frames++
	return nil
}

// RequestKeyFrame drops delta frames until the next key frame, e.g. after a
// viewer reports loss.
func (f *VideoForwarder) RequestKeyFrame() {
	f.mu.Lock()
	f.waitKey = true
	f.mu.Unlock()
}

// Frames returns the number of frames written.
func (f *VideoForwarder) Frames() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}
