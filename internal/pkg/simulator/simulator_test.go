package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/app/repository"
)

const account = "owner@example.com"

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type captured struct {
	mu      sync.Mutex
	headers http.Header
	body    map[string]any
	calls   int
}

func newReceiver(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.calls++
		c.headers = r.Header.Clone()
		c.body = map[string]any{}
		_ = json.Unmarshal(raw, &c.body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func newSimulator(t *testing.T, endpoint string) (*Simulator, repository.RecordStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.SaveEndpointConfig(ctx, account, models.EndpointConfig{Endpoint: endpoint}))
	sim := New(store, Config{
		Timeout:     2 * time.Second,
		RecordDelay: 0,
		Now:         func() time.Time { return fixedNow },
	})
	return sim, store
}

func TestSimulateRequiresEndpoint(t *testing.T) {
	sim, store := newSimulator(t, "")

	_, err := sim.Simulate(context.Background(), account, Request{Provider: models.ProviderKiwify, Kind: models.EventApproved})
	assert.ErrorIs(t, err, ErrNoEndpoint)

	entries, err := store.GetEventLog(context.Background(), account)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSimulateDeliversAndRecords(t *testing.T) {
	srv, got := newReceiver(t, http.StatusOK)
	sim, store := newSimulator(t, srv.URL)
	ctx := context.Background()
	require.NoError(t, store.SavePlanMappings(ctx, account, []models.PlanMapping{
		{CheckoutID: "prod_gold", PlanName: "Gold", IsRecurring: true},
	}))

	res, err := sim.Simulate(ctx, account, Request{
		Provider:      models.ProviderKiwify,
		CustomerEmail: "buyer@example.com",
		Kind:          models.EventApproved,
	})
	require.NoError(t, err)
	assert.True(t, res.Attempted)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NoError(t, res.DeliveryError)

	got.mu.Lock()
	assert.Equal(t, 1, got.calls)
	assert.Equal(t, "true", got.headers.Get(SimulationHeader))
	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	assert.Empty(t, got.headers.Get(SignatureHeader))
	assert.Equal(t, "ORDER_PAID", got.body["webhook_event"])
	assert.Equal(t, "prod_gold", got.body["product_id"])
	got.mu.Unlock()

	entries, err := store.GetEventLog(ctx, account)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	expiry := fixedNow.Add(SubscriptionTerm)
	want := models.LogEntry{
		Timestamp:  fixedNow,
		Provider:   models.ProviderKiwify,
		UserEmail:  "buyer@example.com",
		Plan:       "Gold",
		Status:     models.LogStatusSuccess,
		SubStatus:  models.SubscriptionActive,
		ExpiryDate: &expiry,
	}
	if diff := cmp.Diff(want, entries[0], cmpopts.IgnoreFields(models.LogEntry{}, "ID")); diff != "" {
		t.Errorf("recorded entry mismatch (-want +got):\n%s", diff)
	}
	assert.Regexp(t, `^evt_`, entries[0].ID)
}

func TestSimulateRecordsWhenDeliveryFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	sim, store := newSimulator(t, url)
	res, err := sim.Simulate(context.Background(), account, Request{Provider: models.ProviderCakto, Kind: models.EventCanceled})
	require.NoError(t, err)
	assert.True(t, errors.Is(res.DeliveryError, ErrDeliveryFailed))

	entries, err := store.GetEventLog(context.Background(), account)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.SubscriptionCanceled, entries[0].SubStatus)
	assert.Equal(t, models.FallbackLogPlan, entries[0].Plan)
	assert.Equal(t, DefaultCustomerEmail, entries[0].UserEmail)
}

func TestSimulateNonHTTPEndpointSkipsDelivery(t *testing.T) {
	sim, store := newSimulator(t, "ftp://example.com/hook")

	res, err := sim.Simulate(context.Background(), account, Request{Kind: models.EventExpired})
	require.NoError(t, err)
	assert.False(t, res.Attempted)

	entries, err := store.GetEventLog(context.Background(), account)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ProviderCustom, entries[0].Provider)
}

func TestSimulateErrorStatusIsNotAFailure(t *testing.T) {
	srv, _ := newReceiver(t, http.StatusInternalServerError)
	sim, _ := newSimulator(t, srv.URL)

	res, err := sim.Simulate(context.Background(), account, Request{Provider: models.ProviderCustom, Kind: models.EventApproved})
	require.NoError(t, err)
	assert.NoError(t, res.DeliveryError)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestSimulateSignsWithConnectedSecret(t *testing.T) {
	srv, got := newReceiver(t, http.StatusOK)
	sim, store := newSimulator(t, srv.URL)
	ctx := context.Background()

	integrations := models.DisconnectedIntegrations()
	for i := range integrations {
		if integrations[i].Provider == models.ProviderKirvano {
			integrations[i].Connected = true
			integrations[i].WebhookSecret = "whsec_test"
		}
	}
	require.NoError(t, store.SaveIntegrations(ctx, account, integrations))

	_, err := sim.Simulate(ctx, account, Request{Provider: models.ProviderKirvano, Kind: models.EventApproved})
	require.NoError(t, err)

	got.mu.Lock()
	defer got.mu.Unlock()
	sig := got.headers.Get(SignatureHeader)
	assert.Regexp(t, `^sha256=[0-9a-f]{64}$`, sig)
}

func TestSelectMapping(t *testing.T) {
	mappings := []models.PlanMapping{
		{CheckoutID: "a", PlanName: "Alpha", IsRecurring: true},
		{CheckoutID: "b", PlanName: "Beta"},
	}

	m, plan := SelectMapping(mappings, "b")
	assert.Equal(t, "Beta", plan)
	assert.False(t, m.IsRecurring)

	_, plan = SelectMapping(mappings, "missing")
	assert.Equal(t, "Alpha", plan)

	m, plan = SelectMapping(nil, "")
	assert.Equal(t, models.FallbackLogPlan, plan)
	assert.Equal(t, models.DefaultPlanMapping(), m)
}

func TestNewEntryExpiryRules(t *testing.T) {
	recurring := models.PlanMapping{CheckoutID: "x", PlanName: "VIP", IsRecurring: true}

	approved := NewEntry(Request{Kind: models.EventApproved}, recurring, "VIP", fixedNow)
	require.NotNil(t, approved.ExpiryDate)
	assert.Equal(t, fixedNow.Add(30*24*time.Hour), *approved.ExpiryDate)

	oneTime := NewEntry(Request{Kind: models.EventApproved}, models.PlanMapping{PlanName: "Ebook"}, "Ebook", fixedNow)
	assert.Equal(t, models.SubscriptionOneTimePurchase, oneTime.SubStatus)
	assert.Nil(t, oneTime.ExpiryDate)

	canceled := NewEntry(Request{Kind: models.EventCanceled}, recurring, "VIP", fixedNow)
	assert.Equal(t, fixedNow.Add(7*24*time.Hour), *canceled.ExpiryDate)

	expired := NewEntry(Request{Kind: models.EventExpired}, recurring, "VIP", fixedNow)
	assert.True(t, expired.IsExpiredAt(fixedNow))
}

func TestSignature(t *testing.T) {
	body := []byte(`{"status":"approved"}`)
	assert.Empty(t, SignPayload(body, "  "))

	sig := SignPayload(body, "secret")
	assert.True(t, VerifySignature(body, sig, "secret"))
	assert.False(t, VerifySignature(body, sig, "other"))
	assert.False(t, VerifySignature([]byte(`{}`), sig, "secret"))
	assert.False(t, VerifySignature(body, "md5=abc", "secret"))
}
