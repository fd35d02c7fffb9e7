package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thesyncim/rtsa"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a channel and log events until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runJoin,
}

func init() {
	addChannelFlags(joinCmd)
	rootCmd.AddCommand(joinCmd)
}

func runJoin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	serveMetrics(ctx, cfg.MetricsAddr)

	events := rtsa.NewEventChannel(256, false)
	sess, err := joinFromConfig(cfg, events)
	if err != nil {
		return err
	}
	defer sess.Close()

	log.Info().
		Str("channel", sess.Channel()).
		Uint32("uid", sess.UID()).
		Msg("joined, waiting for events")

	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("dropped_events", events.Dropped()).Msg("leaving")
			return nil
		case ev := <-events.Events():
			logEvent(ev)
		}
	}
}
