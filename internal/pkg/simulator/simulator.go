// Package simulator fires provider-shaped test webhooks at an account's own
// endpoint and records the resulting lifecycle event in the account's log.
package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/app/repository"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/providers"
)

const (
	SubscriptionTerm = 30 * 24 * time.Hour
	GracePeriod      = 7 * 24 * time.Hour
	// ExpiredBackdate places the expiry of an expired event in the past.
	ExpiredBackdate = time.Hour

	DefaultRecordDelay   = 800 * time.Millisecond
	DefaultTimeout       = 10 * time.Second
	DefaultCustomerEmail = "customer@example.com"

	SimulationHeader = "X-Simulation-Mode"
	SignatureHeader  = "X-Webhook-Signature"
)

var (
	ErrNoEndpoint     = errors.New("configure your endpoint first")
	ErrDeliveryFailed = errors.New("check that your URL accepts POST and is online")
)

// Config configures a Simulator. A zero Timeout or a negative RecordDelay
// picks the default.
type Config struct {
	Timeout     time.Duration
	RecordDelay time.Duration
	HTTPClient  *http.Client
	Now         func() time.Time
}

// Request is one simulation triggered by the user.
type Request struct {
	Provider      models.Provider  `json:"provider"`
	CustomerEmail string           `json:"customer_email"`
	Kind          models.EventKind `json:"event"`
	CheckoutID    string           `json:"checkout_id,omitempty"`
}

// Result reports what was sent and what was recorded. DeliveryError is set
// for network-level failures only; HTTP status codes are not judged.
type Result struct {
	Entry         models.LogEntry `json:"entry"`
	Payload       any             `json:"payload"`
	Attempted     bool            `json:"attempted"`
	StatusCode    int             `json:"status_code,omitempty"`
	DeliveryError error           `json:"-"`
}

type Simulator struct {
	store  repository.RecordStore
	client *http.Client
	delay  time.Duration
	now    func() time.Time
}

func New(store repository.RecordStore, cfg Config) *Simulator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RecordDelay < 0 {
		cfg.RecordDelay = DefaultRecordDelay
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Simulator{
		store:  store,
		client: cfg.HTTPClient,
		delay:  cfg.RecordDelay,
		now:    cfg.Now,
	}
}

// Simulate delivers the payload (when the endpoint is an http(s) URL) and,
// independently of the delivery outcome, prepends a log entry after the
// record delay.
func (s *Simulator) Simulate(ctx context.Context, account string, req Request) (*Result, error) {
	endpoint, err := s.store.GetEndpointConfig(ctx, account)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(endpoint.Endpoint) == "" {
		return nil, ErrNoEndpoint
	}
	if req.Provider == "" {
		req.Provider = models.ProviderCustom
	}
	if strings.TrimSpace(req.CustomerEmail) == "" {
		req.CustomerEmail = DefaultCustomerEmail
	}

	mappings, err := s.store.GetPlanMappings(ctx, account)
	if err != nil {
		return nil, err
	}
	mapping, planName := SelectMapping(mappings, req.CheckoutID)

	secret, err := s.webhookSecret(ctx, account, req.Provider)
	if err != nil {
		return nil, err
	}

	payload := providers.BuildPayload(req.Provider, providers.PayloadInput{
		Kind:          req.Kind,
		CustomerEmail: req.CustomerEmail,
		Mapping:       mapping,
		Now:           s.now(),
	})
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	res := &Result{Payload: payload}
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))

	if isHTTPURL(endpoint.Endpoint) {
		res.Attempted = true
		deliverCtx, cancel := context.WithTimeout(ctx, s.client.Timeout+time.Second)
		g.Go(func() error {
			defer cancel()
			res.StatusCode, res.DeliveryError = s.deliver(deliverCtx, endpoint.Endpoint, body, secret)
			return nil
		})
	}

	g.Go(func() error {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-gctx.Done():
			return gctx.Err()
		}
		res.Entry = NewEntry(req, mapping, planName, s.now())
		return s.store.PrependEvent(gctx, account, res.Entry)
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("record simulated event: %w", err)
	}

	log := logger.Get().With(
		zap.String("account", account),
		zap.String("provider", string(req.Provider)),
		zap.String("event", string(req.Kind)),
	)
	if res.DeliveryError != nil {
		log.Warn("simulated webhook delivery failed", zap.Error(res.DeliveryError))
	} else {
		log.Info("simulated webhook", zap.Bool("attempted", res.Attempted), zap.Int("status", res.StatusCode))
	}
	return res, nil
}

func (s *Simulator) deliver(ctx context.Context, url string, body []byte, secret string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SimulationHeader, "true")
	if sig := SignPayload(body, secret); sig != "" {
		req.Header.Set(SignatureHeader, sig)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	return resp.StatusCode, nil
}

func (s *Simulator) webhookSecret(ctx context.Context, account string, p models.Provider) (string, error) {
	integrations, err := s.store.GetIntegrations(ctx, account)
	if err != nil {
		return "", err
	}
	for _, in := range integrations {
		if in.Provider == p && in.Connected {
			return in.WebhookSecret, nil
		}
	}
	return "", nil
}

func isHTTPURL(raw string) bool {
	u := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// SelectMapping picks the mapping for the checkout id, else the first one,
// else the default. The second value is the plan name recorded on the log.
func SelectMapping(mappings []models.PlanMapping, checkoutID string) (models.PlanMapping, string) {
	if len(mappings) == 0 {
		return models.DefaultPlanMapping(), models.FallbackLogPlan
	}
	if id := strings.TrimSpace(checkoutID); id != "" {
		for _, m := range mappings {
			if m.CheckoutID == id {
				return m, m.PlanName
			}
		}
	}
	return mappings[0], mappings[0].PlanName
}

// NewEntry derives the log entry of a simulated event at time now.
func NewEntry(req Request, mapping models.PlanMapping, planName string, now time.Time) models.LogEntry {
	e := models.LogEntry{
		ID:        "evt_" + uuid.NewString(),
		Timestamp: now,
		Provider:  req.Provider,
		UserEmail: req.CustomerEmail,
		Plan:      planName,
		Status:    models.LogStatusSuccess,
	}

	var expiry time.Time
	switch req.Kind {
	case models.EventApproved:
		if !mapping.IsRecurring {
			e.SubStatus = models.SubscriptionOneTimePurchase
			return e
		}
		e.SubStatus = models.SubscriptionActive
		expiry = now.Add(SubscriptionTerm)
	case models.EventCanceled:
		e.SubStatus = models.SubscriptionCanceled
		expiry = now.Add(GracePeriod)
	default:
		e.SubStatus = models.SubscriptionExpired
		expiry = now.Add(-ExpiredBackdate)
	}
	e.ExpiryDate = &expiry
	return e
}
