package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thesyncim/rtsa"
)

var (
	sendLoop    bool
	sendRTPAddr string
)

var sendCmd = &cobra.Command{
	Use:   "send [file.h264]",
	Short: "Stream H.264 into a channel",
	Long: `send joins a channel and streams H.264 video into it.

The source is either an Annex B elementary stream file, paced at the
configured frame rate, or RTP (packetization mode 1) received on --rtp-addr,
for example from:

  ffmpeg -re -i in.mp4 -an -c:v libx264 -bsf:v h264_mp4toannexb \
    -f rtp rtp://127.0.0.1:5004`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	addChannelFlags(sendCmd)
	sendCmd.Flags().BoolVar(&sendLoop, "loop", false, "restart the file when it ends")
	sendCmd.Flags().StringVar(&sendRTPAddr, "rtp-addr", "", "receive H.264 RTP on this UDP address instead of a file")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (sendRTPAddr == "") {
		return errors.New("give either a file or --rtp-addr")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	info, err := cfg.VideoInfo()
	if err != nil {
		return err
	}

	var src frameSource
	if sendRTPAddr != "" {
		src, err = newRTPSource(sendRTPAddr)
	} else {
		var data []byte
		data, err = os.ReadFile(args[0])
		if err == nil {
			src, err = newFileSource(data, int(info.FrameRate), sendLoop)
		}
	}
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	serveMetrics(ctx, cfg.MetricsAddr)

	events := rtsa.NewEventChannel(256, false)
	sess, err := joinFromConfig(cfg, events)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := waitJoined(ctx, events, joinTimeout); err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events.Events():
				logEvent(ev)
				if ev.Kind == rtsa.EventKeyFrameRequest {
					src.RequestKeyFrame()
				}
			}
		}
	}()

	return streamFrames(ctx, sess, src, info)
}

// videoSender is the part of *rtsa.Session used while streaming.
type videoSender interface {
	SendVideoData(data []byte, info rtsa.VideoFrameInfo) error
}

func streamFrames(ctx context.Context, sess videoSender, src frameSource, info rtsa.VideoFrameInfo) error {
	var sent, failed int
	defer func() {
		log.Info().Int("frames", sent).Int("failed", failed).Msg("stream finished")
	}()
	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		fi := info
		fi.FrameType = rtsa.VideoFrameTypeDelta
		if frame.Key {
			fi.FrameType = rtsa.VideoFrameTypeKey
		}
		if err := sess.SendVideoData(frame.Data, fi); err != nil {
			var stateErr *rtsa.StateError
			if errors.As(err, &stateErr) {
				return err
			}
			failed++
			log.Warn().Err(err).Int("bytes", len(frame.Data)).Msg("send failed")
			continue
		}
		sent++
	}
}
