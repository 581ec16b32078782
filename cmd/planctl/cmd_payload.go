package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/providers"
)

// eventFlags are shared by payload and simulate.
type eventFlags struct {
	provider   string
	event      string
	email      string
	checkoutID string
	plan       string
	oneTime    bool
}

func (f *eventFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.provider, "provider", "custom", "kirvano, cakto, kiwify or custom")
	fl.StringVar(&f.event, "event", "approved", "approved, canceled or expired")
	fl.StringVar(&f.email, "email", "customer@example.com", "customer e-mail")
	fl.StringVar(&f.checkoutID, "checkout-id", models.DefaultCheckoutID, "provider checkout/product id")
	fl.StringVar(&f.plan, "plan", models.DefaultPlanName, "plan name")
	fl.BoolVar(&f.oneTime, "one-time", false, "treat the plan as a one-time purchase")
}

func (f *eventFlags) parse() (models.Provider, models.EventKind, models.PlanMapping, error) {
	p, err := models.ParseProvider(f.provider)
	if err != nil {
		return "", "", models.PlanMapping{}, err
	}
	k, err := models.ParseEventKind(f.event)
	if err != nil {
		return "", "", models.PlanMapping{}, err
	}
	return p, k, models.PlanMapping{CheckoutID: f.checkoutID, PlanName: f.plan, IsRecurring: !f.oneTime}, nil
}

var payloadFlags eventFlags

var payloadCmd = &cobra.Command{
	Use:   "payload",
	Short: "Print the webhook body a provider would send",
	RunE:  runPayload,
}

func init() {
	payloadFlags.register(payloadCmd)
}

func runPayload(cmd *cobra.Command, _ []string) error {
	p, k, mapping, err := payloadFlags.parse()
	if err != nil {
		return err
	}
	body := providers.BuildPayload(p, providers.PayloadInput{
		Kind:          k,
		CustomerEmail: payloadFlags.email,
		Mapping:       mapping,
		Now:           time.Now(),
	})
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}
