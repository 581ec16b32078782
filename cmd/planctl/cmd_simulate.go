package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/app/repository"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/simulator"
)

const cliAccount = "planctl@localhost"

var simulateFlags struct {
	eventFlags
	endpoint string
	secret   string
	timeout  time.Duration
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "POST a simulated webhook to an endpoint",
	RunE:  runSimulate,
}

func init() {
	simulateFlags.register(simulateCmd)
	f := simulateCmd.Flags()
	f.StringVar(&simulateFlags.endpoint, "endpoint", "", "receiver URL (required)")
	f.StringVar(&simulateFlags.secret, "secret", "", "sign the body with this webhook secret")
	f.DurationVar(&simulateFlags.timeout, "timeout", simulator.DefaultTimeout, "delivery timeout")

	_ = simulateCmd.MarkFlagRequired("endpoint")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	p, k, mapping, err := simulateFlags.parse()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store := repository.NewMemoryStore()
	if err := store.SaveEndpointConfig(ctx, cliAccount, models.EndpointConfig{Endpoint: simulateFlags.endpoint}); err != nil {
		return err
	}
	if err := store.SavePlanMappings(ctx, cliAccount, []models.PlanMapping{mapping}); err != nil {
		return err
	}
	if simulateFlags.secret != "" {
		if err := store.SaveIntegrations(ctx, cliAccount, []models.Integration{
			{Provider: p, Connected: true, WebhookSecret: simulateFlags.secret},
		}); err != nil {
			return err
		}
	}

	sim := simulator.New(store, simulator.Config{Timeout: simulateFlags.timeout, RecordDelay: 0})
	res, err := sim.Simulate(ctx, cliAccount, simulator.Request{
		Provider:      p,
		CustomerEmail: simulateFlags.email,
		Kind:          k,
		CheckoutID:    mapping.CheckoutID,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.Attempted {
		fmt.Fprintf(out, "Skipped:   %s is not an http(s) URL\n", simulateFlags.endpoint)
	} else if res.DeliveryError != nil {
		fmt.Fprintf(out, "Delivery:  failed (%v)\n", res.DeliveryError)
	} else {
		fmt.Fprintf(out, "Delivery:  HTTP %d\n", res.StatusCode)
	}
	fmt.Fprintf(out, "Event:     %s\n", res.Entry.ID)
	fmt.Fprintf(out, "Status:    %s\n", res.Entry.SubStatus)
	if res.Entry.ExpiryDate != nil {
		fmt.Fprintf(out, "Expires:   %s\n", res.Entry.ExpiryDate.Format(time.RFC3339))
	} else {
		fmt.Fprintf(out, "Expires:   unlimited\n")
	}
	if res.DeliveryError != nil {
		return res.DeliveryError
	}
	return nil
}
