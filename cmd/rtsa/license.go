package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thesyncim/rtsa"
)

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "License certificate tools",
}

var licenseVerifyCmd = &cobra.Command{
	Use:   "verify <certificate-file>",
	Short: "Check a license certificate against the SDK",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cert, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read certificate: %w", err)
		}
		if err := rtsa.VerifyLicense(cert); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "license ok")
		return nil
	},
}

func init() {
	licenseCmd.AddCommand(licenseVerifyCmd)
	rootCmd.AddCommand(licenseCmd)
}
