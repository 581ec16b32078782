package settings

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/app/repository"
)

func seed(t *testing.T) (repository.RecordStore, *models.Account) {
	t.Helper()
	store := repository.NewMemoryStore()
	account, err := models.NewAccount("Ana", "ana@example.com", "(11) 98888-7777", "s3cret")
	require.NoError(t, err)
	account.HasSeenOnboarding = true
	require.NoError(t, store.CreateAccount(context.Background(), account))
	return store, account
}

func TestUpdateProfile(t *testing.T) {
	store, account := seed(t)
	svc := NewService(store)

	updated, err := svc.UpdateProfile(context.Background(), account.Email, ProfileInput{Name: " Ana Maria ", Phone: "(21) 97777-6666"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, "21977776666", updated.Phone)

	stored, err := store.GetAccount(context.Background(), account.Email)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", stored.Name)
	assert.True(t, stored.HasSeenOnboarding)
	assert.True(t, stored.CheckPassword("s3cret"))
}

func TestChangePassword(t *testing.T) {
	store, account := seed(t)
	svc := NewService(store)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, account.Email, PasswordInput{CurrentPassword: "wrong", NewPassword: "next"})
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	require.NoError(t, svc.ChangePassword(ctx, account.Email, PasswordInput{CurrentPassword: "s3cret", NewPassword: "next"}))
	stored, err := store.GetAccount(ctx, account.Email)
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("next"))
	assert.False(t, stored.CheckPassword("s3cret"))
}

func TestChangePasswordRejectsOverlongPassword(t *testing.T) {
	store, account := seed(t)
	svc := NewService(store)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, account.Email, PasswordInput{CurrentPassword: "s3cret", NewPassword: strings.Repeat("x", 73)})
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	stored, err := store.GetAccount(ctx, account.Email)
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("s3cret"))

	require.NoError(t, svc.ChangePassword(ctx, account.Email, PasswordInput{CurrentPassword: "s3cret", NewPassword: strings.Repeat("x", 72)}))
}

func TestResetOperationalData(t *testing.T) {
	store, account := seed(t)
	svc := NewService(store)
	ctx := context.Background()
	other := "other@example.com"

	for _, email := range []string{account.Email, other} {
		require.NoError(t, store.PrependEvent(ctx, email, models.LogEntry{ID: "evt_1"}))
		require.NoError(t, store.SaveIntegrations(ctx, email, models.DisconnectedIntegrations()))
		require.NoError(t, store.SaveEndpointConfig(ctx, email, models.EndpointConfig{Endpoint: "https://x.test"}))
		require.NoError(t, store.SavePlanMappings(ctx, email, []models.PlanMapping{models.DefaultPlanMapping()}))
	}

	assert.ErrorIs(t, svc.ResetOperationalData(ctx, account.Email, "delete me"), ErrConfirmationMismatch)
	require.NoError(t, svc.ResetOperationalData(ctx, account.Email, "delete"))

	entries, err := store.GetEventLog(ctx, account.Email)
	require.NoError(t, err)
	assert.Empty(t, entries)
	integrations, err := store.GetIntegrations(ctx, account.Email)
	require.NoError(t, err)
	assert.Empty(t, integrations)
	cfg, err := store.GetEndpointConfig(ctx, account.Email)
	require.NoError(t, err)
	assert.Empty(t, cfg.Endpoint)
	mappings, err := store.GetPlanMappings(ctx, account.Email)
	require.NoError(t, err)
	assert.Empty(t, mappings)

	stored, err := store.GetAccount(ctx, account.Email)
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("s3cret"))
	assert.Equal(t, "Ana", stored.Name)

	otherEntries, err := store.GetEventLog(ctx, other)
	require.NoError(t, err)
	assert.Len(t, otherEntries, 1)
	otherCfg, err := store.GetEndpointConfig(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "https://x.test", otherCfg.Endpoint)
}
