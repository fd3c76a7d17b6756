package stripeclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ikkim/provider-portal-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return newClient(config.StripeConfig{
		SecretKey:         "sk_test_123",
		IdentityReturnURL: "http://localhost/identity",
		ConnectReturnURL:  "http://localhost/return",
		ConnectRefreshURL: "http://localhost/refresh",
	}, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestCreateIdentitySession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/identity/verification_sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "document", r.PostForm.Get("type"))
		assert.Equal(t, "7", r.PostForm.Get("metadata[business_id]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"vs_123","object":"identity.verification_session","status":"requires_input","url":"https://verify.stripe.com/start/x"}`))
	})

	session, err := c.CreateIdentitySession(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "vs_123", session.ID)
	assert.Equal(t, "requires_input", session.Status)
	assert.NotEmpty(t, session.URL)
}

func TestGetAccount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/acct_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"acct_1","object":"account","details_submitted":true,"payouts_enabled":true}`))
	})

	status, err := c.GetAccount(context.Background(), "acct_1")
	require.NoError(t, err)
	assert.True(t, status.PayoutsEnabled)
	assert.True(t, status.DetailsSubmitted)
}

func TestCreateAccountLink_ErrorCarriesStripeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such account: 'acct_x'"}}`))
	})

	_, err := c.CreateAccountLink(context.Background(), "acct_x")
	require.Error(t, err)

	var stripeErr *stripe.Error
	require.ErrorAs(t, err, &stripeErr)
	assert.Equal(t, "No such account: 'acct_x'", stripeErr.Msg)
}
