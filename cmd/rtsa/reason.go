package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/thesyncim/rtsa"
)

var reasonAskSDK bool

var reasonCmd = &cobra.Command{
	Use:   "reason <code>",
	Short: "Explain an SDK status code",
	Long: `reason prints the message for a status code. Codes that point at a
configuration mistake are known locally; with --sdk the SDK is initialized
with the configured app id and asked for its own text.`,
	Args: cobra.ExactArgs(1),
	RunE: runReason,
}

func init() {
	reasonCmd.Flags().BoolVar(&reasonAskSDK, "sdk", false, "ask the SDK (requires app id and library)")
	rootCmd.AddCommand(reasonCmd)
}

func runReason(cmd *cobra.Command, args []string) error {
	n, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid code %q: %w", args[0], err)
	}
	code := rtsa.ErrorCode(n)

	if !reasonAskSDK {
		msg := rtsa.KnownErrorMessage(code)
		if msg == "" {
			msg = "unknown (try --sdk)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", code, msg)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := cfg.ServiceOptions()
	if err != nil {
		return err
	}
	sess, err := rtsa.NewSession(cfg.AppID, rtsa.WithLogger(log))
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Initialize(opts); err != nil {
		return err
	}
	msg, err := sess.ErrorReason(code)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", code, msg)
	return nil
}
