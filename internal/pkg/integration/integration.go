// Package integration manages provider connections, the delivery endpoint
// and plan mappings of an account.
package integration

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/app/repository"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/constants"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/providers"
)

var (
	ErrInvalidEndpoint   = errors.New("endpoint must be an http or https URL")
	ErrInvalidMapping    = errors.New("every plan mapping needs a checkout id and a plan name")
	ErrDuplicateCheckout = errors.New("checkout ids must be unique")
)

// View is a provider card: catalog info merged with the stored connection.
type View struct {
	providers.Info
	Connected     bool   `json:"connected"`
	HasSecret     bool   `json:"has_secret"`
	WebhookSecret string `json:"webhook_secret"`
	APIToken      string `json:"api_token"`
	WebhookURL    string `json:"webhook_url,omitempty"`
}

// ConnectInput updates one provider. A nil secret or token keeps the stored
// value; an empty string clears it.
type ConnectInput struct {
	Connected     bool    `json:"connected"`
	WebhookSecret *string `json:"webhook_secret"`
	APIToken      *string `json:"api_token"`
}

type Service struct {
	store     repository.RecordStore
	publicURL string
}

// NewService creates the service. publicURL is the base of the per-provider
// webhook URLs shown to the user; it may be empty.
func NewService(store repository.RecordStore, publicURL string) *Service {
	return &Service{store: store, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *Service) List(ctx context.Context, account string) ([]View, error) {
	stored, err := s.store.GetIntegrations(ctx, account)
	if err != nil {
		return nil, err
	}
	byProvider := make(map[models.Provider]models.Integration, len(stored))
	for _, in := range stored {
		byProvider[in.Provider] = in
	}

	views := make([]View, 0, len(models.Providers))
	for _, info := range providers.Catalog() {
		in := byProvider[info.Provider]
		v := View{
			Info:          info,
			Connected:     in.Connected,
			HasSecret:     in.WebhookSecret != "",
			WebhookSecret: in.WebhookSecret,
			APIToken:      in.APIToken,
		}
		if s.publicURL != "" {
			v.WebhookURL = fmt.Sprintf("%s/%s/%s", s.publicURL, constants.WebhooksPath, info.Provider)
		}
		views = append(views, v)
	}
	return views, nil
}

// Connect stores the connection of one provider, keeping the others.
func (s *Service) Connect(ctx context.Context, account string, p models.Provider, in ConnectInput) error {
	list, err := s.store.GetIntegrations(ctx, account)
	if err != nil {
		return err
	}
	idx := -1
	for i := range list {
		if list[i].Provider == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		list = append(list, models.Integration{Provider: p})
		idx = len(list) - 1
	}

	next := &list[idx]
	next.Connected = in.Connected
	if in.WebhookSecret != nil {
		next.WebhookSecret = strings.TrimSpace(*in.WebhookSecret)
	}
	if in.APIToken != nil {
		next.APIToken = strings.TrimSpace(*in.APIToken)
	}
	if err := s.store.SaveIntegrations(ctx, account, list); err != nil {
		return err
	}
	logger.Get().Info("integration updated",
		zap.String("account", account),
		zap.String("provider", string(p)),
		zap.Bool("connected", in.Connected))
	return nil
}

func (s *Service) Endpoint(ctx context.Context, account string) (models.EndpointConfig, error) {
	return s.store.GetEndpointConfig(ctx, account)
}

// SaveEndpoint stores the delivery target. An empty endpoint is allowed and
// disables simulation until set.
func (s *Service) SaveEndpoint(ctx context.Context, account string, cfg models.EndpointConfig) error {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if err := models.Validator().Struct(cfg); err != nil {
		return ErrInvalidEndpoint
	}
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidEndpoint
		}
	}
	return s.store.SaveEndpointConfig(ctx, account, cfg)
}

func (s *Service) PlanMappings(ctx context.Context, account string) ([]models.PlanMapping, error) {
	return s.store.GetPlanMappings(ctx, account)
}

// SavePlanMappings replaces the account's mapping list.
func (s *Service) SavePlanMappings(ctx context.Context, account string, mappings []models.PlanMapping) error {
	seen := make(map[string]struct{}, len(mappings))
	for i := range mappings {
		mappings[i].CheckoutID = strings.TrimSpace(mappings[i].CheckoutID)
		mappings[i].PlanName = strings.TrimSpace(mappings[i].PlanName)
		if err := models.Validator().Struct(mappings[i]); err != nil {
			return ErrInvalidMapping
		}
		if _, dup := seen[mappings[i].CheckoutID]; dup {
			return ErrDuplicateCheckout
		}
		seen[mappings[i].CheckoutID] = struct{}{}
	}
	return s.store.SavePlanMappings(ctx, account, mappings)
}
