package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/thesyncim/rtsa"
	"github.com/thesyncim/rtsa/config"
)

// channel flags shared by join and send
var (
	channelName string
	channelUID  uint32
	channelTok  string
	joinTimeout time.Duration
)

func addChannelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&channelName, "channel", "", "channel name (overrides config)")
	cmd.Flags().Uint32Var(&channelUID, "uid", 0, "user id (overrides config)")
	cmd.Flags().StringVar(&channelTok, "token", "", "channel token (overrides config)")
	cmd.Flags().DurationVar(&joinTimeout, "join-timeout", 10*time.Second, "how long to wait for the join callback")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if channelName != "" {
		cfg.Channel.Name = channelName
	}
	if channelUID != 0 {
		cfg.Channel.UID = channelUID
	}
	if channelTok != "" {
		cfg.Channel.Token = channelTok
	}
	return cfg, nil
}

// serveMetrics exposes the default registry until ctx is done.
func serveMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

// joinFromConfig initializes, connects and joins. On error the session has
// already been torn down.
func joinFromConfig(cfg *config.Config, events *rtsa.EventChannel) (*rtsa.Session, error) {
	if cfg.Channel.Name == "" {
		return nil, fmt.Errorf("channel name is required (--channel or %sCHANNEL_NAME)", config.EnvPrefix)
	}
	svc, err := cfg.ServiceOptions()
	if err != nil {
		return nil, err
	}
	chOpts, err := cfg.ChannelOptions()
	if err != nil {
		return nil, err
	}
	info, err := cfg.VideoInfo()
	if err != nil {
		return nil, err
	}

	sess, err := rtsa.NewSession(cfg.AppID,
		rtsa.WithLogger(log),
		rtsa.WithEventHandler(events.Handler()),
		rtsa.WithDefaultVideoInfo(info),
	)
	if err != nil {
		return nil, err
	}
	if err := sess.Initialize(svc); err != nil {
		sess.Close()
		return nil, err
	}
	if _, err := sess.CreateConnection(); err != nil {
		sess.Close()
		return nil, err
	}
	if err := sess.JoinChannel(cfg.Channel.Name, cfg.Channel.UID, cfg.Channel.Token, chOpts); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// waitJoined consumes events until the join callback arrives.
func waitJoined(ctx context.Context, events *rtsa.EventChannel, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("no join confirmation after %s", timeout)
		case ev := <-events.Events():
			logEvent(ev)
			switch ev.Kind {
			case rtsa.EventJoinChannelSuccess:
				return nil
			case rtsa.EventError:
				return &rtsa.NativeError{Op: "join_channel", Code: ev.Code}
			}
		}
	}
}

func logEvent(ev rtsa.Event) {
	e := log.Info()
	switch ev.Kind {
	case rtsa.EventError, rtsa.EventConnectionLost:
		e = log.Error()
	case rtsa.EventUserOffline, rtsa.EventTokenPrivilegeWillExpire:
		e = log.Warn()
	case rtsa.EventAudioData, rtsa.EventMixedAudioData, rtsa.EventVideoData:
		e = log.Debug().Int("bytes", len(ev.Data))
	}
	e = e.Stringer("event", ev.Kind).Uint32("conn_id", ev.ConnID)
	switch ev.Kind {
	case rtsa.EventJoinChannelSuccess, rtsa.EventRejoinChannelSuccess, rtsa.EventUserJoined:
		e = e.Uint32("uid", ev.UID).Dur("elapsed", ev.Elapsed)
	case rtsa.EventError:
		e = e.Int32("code", int32(ev.Code)).Str("msg", ev.Message)
		if known := rtsa.KnownErrorMessage(ev.Code); known != "" {
			e = e.Str("reason", known)
		}
	case rtsa.EventUserOffline:
		e = e.Uint32("uid", ev.UID).Stringer("reason", ev.Reason)
	case rtsa.EventUserMuteAudio, rtsa.EventUserMuteVideo:
		e = e.Uint32("uid", ev.UID).Bool("muted", ev.Muted)
	case rtsa.EventTargetBitrateChanged:
		e = e.Uint32("target_bps", ev.TargetBps)
	case rtsa.EventKeyFrameRequest:
		e = e.Uint32("uid", ev.UID).Stringer("stream", ev.Stream)
	}
	e.Msg("event")
}
