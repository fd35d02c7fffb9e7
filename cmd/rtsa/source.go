package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/thesyncim/rtsa"
)

// frameSource yields H.264 access units in send order.
type frameSource interface {
	Next(ctx context.Context) (*rtsa.H264Frame, error)
	RequestKeyFrame()
	Close() error
}

// fileSource replays an Annex B file at a fixed rate. A key frame request
// skips ahead to the next IDR.
type fileSource struct {
	units   [][]byte
	keys    []bool
	idx     int
	loop    bool
	ticker  *time.Ticker
	wantKey atomic.Bool
	fps     int
	sent    uint64
}

func newFileSource(data []byte, fps int, loop bool) (*fileSource, error) {
	units := rtsa.SplitAccessUnits(data)
	if len(units) == 0 {
		return nil, errors.New("no H.264 access units found")
	}
	keys := make([]bool, len(units))
	hasKey := false
	for i, au := range units {
		keys[i] = rtsa.IsKeyFrame(au)
		hasKey = hasKey || keys[i]
	}
	if !hasKey {
		return nil, errors.New("stream contains no IDR frame")
	}
	if fps <= 0 {
		fps = 30
	}
	return &fileSource{
		units:  units,
		keys:   keys,
		loop:   loop,
		ticker: time.NewTicker(time.Second / time.Duration(fps)),
		fps:    fps,
	}, nil
}

func (s *fileSource) Next(ctx context.Context) (*rtsa.H264Frame, error) {
	if s.idx >= len(s.units) {
		if !s.loop {
			return nil, io.EOF
		}
		s.idx = 0
	}
	if s.wantKey.Swap(false) {
		s.seekKey()
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ticker.C:
	}
	f := &rtsa.H264Frame{
		Data:      s.units[s.idx],
		Key:       s.keys[s.idx],
		Timestamp: uint32(s.sent * 90000 / uint64(s.fps)),
	}
	s.idx++
	s.sent++
	return f, nil
}

// seekKey moves idx to the next key frame, wrapping when looping.
func (s *fileSource) seekKey() {
	for i := s.idx; i < len(s.units); i++ {
		if s.keys[i] {
			s.idx = i
			return
		}
	}
	if s.loop {
		for i := 0; i < len(s.units); i++ {
			if s.keys[i] {
				s.idx = i
				return
			}
		}
	}
}

func (s *fileSource) RequestKeyFrame() { s.wantKey.Store(true) }

func (s *fileSource) Close() error {
	s.ticker.Stop()
	return nil
}

// rtpSource reassembles frames from RTP datagrams. Until the first key
// frame, and after a key frame request, delta frames are skipped since the
// upstream encoder cannot be asked for an IDR.
type rtpSource struct {
	conn    net.PacketConn
	depack  *rtsa.H264Depacketizer
	waitKey atomic.Bool
}

func newRTPSource(addr string) (*rtpSource, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen rtp: %w", err)
	}
	log.Info().Str("addr", conn.LocalAddr().String()).Msg("waiting for RTP")
	s := &rtpSource{conn: conn, depack: rtsa.NewH264Depacketizer()}
	s.waitKey.Store(true)
	return s, nil
}

func (s *rtpSource) Next(ctx context.Context) (*rtsa.H264Frame, error) {
	buf := make([]byte, 1600)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return nil, err
		}
		frame, err := s.depack.DepacketizeBytes(buf[:n])
		if err != nil {
			log.Debug().Err(err).Msg("dropping rtp packet")
			continue
		}
		if frame == nil {
			continue
		}
		if s.waitKey.Load() {
			if !frame.Key {
				continue
			}
			s.waitKey.Store(false)
		}
		return frame, nil
	}
}

func (s *rtpSource) RequestKeyFrame() { s.waitKey.Store(true) }

func (s *rtpSource) Close() error { return s.conn.Close() }
