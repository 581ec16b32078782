package providers

import (
	"sync"
	"time"

	"github.com/ManuelReschke/PlanAutomator/app/models"
)

// PayloadInput carries what every provider needs to shape a webhook body.
type PayloadInput struct {
	Kind          models.EventKind
	CustomerEmail string
	Mapping       models.PlanMapping
	Now           time.Time
}

// BuildFunc turns a logical lifecycle event into a provider-shaped body.
type BuildFunc func(in PayloadInput) any

var (
	mu       sync.RWMutex
	builders = map[models.Provider]BuildFunc{
		models.ProviderKiwify:  buildKiwify,
		models.ProviderKirvano: buildKirvano,
		models.ProviderCakto:   buildCakto,
		models.ProviderCustom:  buildCustom,
	}
)

// Register installs or replaces the builder of a provider.
func Register(p models.Provider, fn BuildFunc) {
	mu.Lock()
	defer mu.Unlock()
	builders[p] = fn
}

// BuildPayload shapes the event for the provider; unknown providers get the
// provider-agnostic custom shape.
func BuildPayload(p models.Provider, in PayloadInput) any {
	mu.RLock()
	fn, ok := builders[p]
	mu.RUnlock()
	if !ok {
		fn = buildCustom
	}
	return fn(in)
}

// pick returns the word of the vocabulary matching the event kind.
func pick(kind models.EventKind, approved, canceled, expired string) string {
	switch kind {
	case models.EventApproved:
		return approved
	case models.EventCanceled:
		return canceled
	default:
		return expired
	}
}

type kiwifyPayload struct {
	OrderStatus    string `json:"order_status"`
	CustomerEmail  string `json:"customer_email"`
	ProductID      string `json:"product_id"`
	SubscriptionID string `json:"subscription_id"`
	WebhookEvent   string `json:"webhook_event"`
}

func buildKiwify(in PayloadInput) any {
	return kiwifyPayload{
		OrderStatus:    pick(in.Kind, "paid", "canceled", "expired"),
		CustomerEmail:  in.CustomerEmail,
		ProductID:      in.Mapping.CheckoutID,
		SubscriptionID: "sub_kiwify_8822",
		WebhookEvent:   pick(in.Kind, "ORDER_PAID", "SUBSCRIPTION_CANCELED", "SUBSCRIPTION_EXPIRED"),
	}
}

type kirvanoPayload struct {
	Event string      `json:"event"`
	Data  kirvanoData `json:"data"`
}

type kirvanoData struct {
	Customer     kirvanoCustomer      `json:"customer"`
	Product      kirvanoProduct       `json:"product"`
	Subscription *kirvanoSubscription `json:"subscription"`
}

type kirvanoCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type kirvanoProduct struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type kirvanoSubscription struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func buildKirvano(in PayloadInput) any {
	p := kirvanoPayload{
		Event: pick(in.Kind, "order.approved", "subscription.canceled", "subscription.expired"),
		Data: kirvanoData{
			Customer: kirvanoCustomer{Email: in.CustomerEmail, Name: "Kirvano Customer"},
			Product:  kirvanoProduct{ID: in.Mapping.CheckoutID, Name: in.Mapping.PlanName},
		},
	}
	if in.Kind != models.EventApproved {
		p.Data.Subscription = &kirvanoSubscription{Status: string(in.Kind), ID: "sub_kir_99"}
	}
	return p
}

type caktoPayload struct {
	Event              string `json:"event"`
	Email              string `json:"email"`
	ProductID          string `json:"product_id"`
	SubscriptionStatus string `json:"subscription_status"`
}

func buildCakto(in PayloadInput) any {
	return caktoPayload{
		Event:              pick(in.Kind, "order_approved", "subscription_canceled", "subscription_expired"),
		Email:              in.CustomerEmail,
		ProductID:          in.Mapping.CheckoutID,
		SubscriptionStatus: pick(in.Kind, "active", "canceled", "expired"),
	}
}

type customPayload struct {
	Status    string `json:"status"`
	Email     string `json:"email"`
	Plan      string `json:"plan"`
	Timestamp string `json:"timestamp"`
}

func buildCustom(in PayloadInput) any {
	return customPayload{
		Status:    string(in.Kind),
		Email:     in.CustomerEmail,
		Plan:      in.Mapping.PlanName,
		Timestamp: in.Now.UTC().Format(time.RFC3339),
	}
}
