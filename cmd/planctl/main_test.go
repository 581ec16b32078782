package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/simulator"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPayloadCommand(t *testing.T) {
	out, err := execute(t, "", "payload", "--provider", "kiwify", "--event", "canceled", "--email", "a@x.com")
	require.NoError(t, err)
	assert.Contains(t, out, `"webhook_event": "SUBSCRIPTION_CANCELED"`)
	assert.Contains(t, out, `"customer_email": "a@x.com"`)

	_, err = execute(t, "", "payload", "--provider", "hotmart")
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(simulator.SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	out, err := execute(t, "", "simulate", "--endpoint", srv.URL, "--provider", "cakto", "--event", "approved", "--secret", "whsec")
	require.NoError(t, err)
	assert.Contains(t, out, "HTTP 202")
	assert.Contains(t, out, "Status:    active")
	assert.True(t, simulator.VerifySignature(gotBody, gotSig, "whsec"))
}

func TestSignCommand(t *testing.T) {
	out, err := execute(t, `{"status":"approved"}`, "sign", "--secret", "s")
	require.NoError(t, err)
	assert.Equal(t, simulator.SignPayload([]byte(`{"status":"approved"}`), "s")+"\n", out)
}
