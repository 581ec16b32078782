package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/simulator"
)

var signFlags struct {
	secret string
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Print the X-Webhook-Signature of a body read from stdin",
	RunE:  runSign,
}

func init() {
	signCmd.Flags().StringVar(&signFlags.secret, "secret", "", "webhook secret (required)")
	_ = signCmd.MarkFlagRequired("secret")
}

func runSign(cmd *cobra.Command, _ []string) error {
	body, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), simulator.SignPayload(body, signFlags.secret))
	return nil
}
