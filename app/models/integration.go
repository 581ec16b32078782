package models

import (
	"fmt"
	"strings"
)

// Provider identifies a checkout platform that emits webhooks.
type Provider string

const (
	ProviderKirvano Provider = "kirvano"
	ProviderCakto   Provider = "cakto"
	ProviderKiwify  Provider = "kiwify"
	ProviderCustom  Provider = "custom"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{ProviderKirvano, ProviderCakto, ProviderKiwify, ProviderCustom}

// ParseProvider accepts the provider id case-insensitively. An empty value
// means the generic custom webhook.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ProviderCustom, nil
	}
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// Integration is the stored connection state of one provider for an account.
type Integration struct {
	Provider      Provider `json:"provider"`
	Connected     bool     `json:"connected"`
	WebhookSecret string   `json:"webhook_secret,omitempty"`
	APIToken      string   `json:"api_token,omitempty"`
}

// DisconnectedIntegrations returns one disconnected entry per provider.
func DisconnectedIntegrations() []Integration {
	out := make([]Integration, 0, len(Providers))
	for _, p := range Providers {
		out = append(out, Integration{Provider: p})
	}
	return out
}

// EndpointConfig is the destination simulated events are POSTed to.
type EndpointConfig struct {
	Endpoint string `json:"endpoint" validate:"omitempty,max=2048"`
	APIKey   string `json:"api_key" validate:"max=512"`
}

// PlanMapping associates a provider-side checkout/product id with a local plan.
type PlanMapping struct {
	CheckoutID  string `json:"checkout_id" validate:"required,max=191"`
	PlanName    string `json:"plan_name" validate:"required,max=100"`
	IsRecurring bool   `json:"is_recurring"`
}

const (
	DefaultCheckoutID = "prod_default"
	DefaultPlanName   = "VIP"
	// FallbackLogPlan is recorded on log entries when the account has no mappings.
	FallbackLogPlan = "Default Plan"
)

// DefaultPlanMapping is used by the simulator when no mapping is configured.
func DefaultPlanMapping() PlanMapping {
	return PlanMapping{CheckoutID: DefaultCheckoutID, PlanName: DefaultPlanName, IsRecurring: true}
}
