package providers

import "github.com/ManuelReschke/PlanAutomator/app/models"

// Info describes a provider for display.
type Info struct {
	Provider     models.Provider `json:"provider"`
	Name         string          `json:"name"`
	Logo         string          `json:"logo"`
	DashboardURL string          `json:"dashboard_url,omitempty"`
}

var catalog = map[models.Provider]Info{
	models.ProviderKirvano: {
		Provider:     models.ProviderKirvano,
		Name:         "Kirvano",
		Logo:         "https://www.google.com/s2/favicons?domain=kirvano.com&sz=128",
		DashboardURL: "https://app.kirvano.com/",
	},
	models.ProviderCakto: {
		Provider:     models.ProviderCakto,
		Name:         "Cakto",
		Logo:         "https://www.google.com/s2/favicons?domain=cakto.com.br&sz=128",
		DashboardURL: "https://cakto.com.br/",
	},
	models.ProviderKiwify: {
		Provider:     models.ProviderKiwify,
		Name:         "Kiwify",
		Logo:         "https://www.google.com/s2/favicons?domain=kiwify.com.br&sz=128",
		DashboardURL: "https://dashboard.kiwify.com.br/",
	},
	models.ProviderCustom: {
		Provider: models.ProviderCustom,
		Name:     "Custom Webhook",
		Logo:     "https://cdn-icons-png.flaticon.com/512/2165/2165004.png",
	},
}

// Catalog returns all providers in display order.
func Catalog() []Info {
	out := make([]Info, 0, len(models.Providers))
	for _, p := range models.Providers {
		out = append(out, catalog[p])
	}
	return out
}

// Lookup returns the display info, falling back to the custom webhook.
func Lookup(p models.Provider) Info {
	if info, ok := catalog[p]; ok {
		return info
	}
	return catalog[models.ProviderCustom]
}
