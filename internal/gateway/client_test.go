package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinelabs/boutiq/pkg/config"
	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/avelinelabs/boutiq/pkg/logger"
)

type staticTokens struct {
	token string
}

func (s *staticTokens) Token() string {
	return s.token
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func newTestClient(t *testing.T, handler http.Handler, cfg config.APIConfig) (*Client, *staticTokens, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	cfg.BaseURL = server.URL

	tokens := &staticTokens{}
	client, err := NewClient(Params{
		Config: cfg,
		Tokens: tokens,
		Logger: testLogger(),
	})
	require.NoError(t, err)
	return client, tokens, server.Close
}

func TestBearerTokenInjection(t *testing.T) {
	var sawAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Profile{ID: "u-1", Username: "demo"})
	})
	client, tokens, cleanup := newTestClient(t, handler, config.APIConfig{})
	defer cleanup()

	// Unauthenticated: no header at all.
	_, err := client.CurrentProfile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sawAuth)

	tokens.token = "tok-1"
	_, err = client.CurrentProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", sawAuth)
}

func TestAuthenticateAcceptsAnyTokenField(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"token", `{"token":"tok-1"}`},
		{"accessToken", `{"accessToken":"tok-1"}`},
		{"jwt", `{"jwt":"tok-1"}`},
		{"first match wins", `{"token":"tok-1","jwt":"other"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, pathLogin, r.URL.Path)
				w.Write([]byte(tc.body))
			})
			client, _, cleanup := newTestClient(t, handler, config.APIConfig{})
			defer cleanup()

			token, err := client.Authenticate(context.Background(), "demo", "secret123")
			require.NoError(t, err)
			assert.Equal(t, "tok-1", token)
		})
	}
}

func TestAuthenticateRejectsUnknownTokenShape(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sessionKey":"tok-1"}`))
	})
	client, _, cleanup := newTestClient(t, handler, config.APIConfig{})
	defer cleanup()

	_, err := client.Authenticate(context.Background(), "demo", "secret123")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeMalformedResponse))
}

func TestAuthExpiredHookFiresOn401(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"AUTH_EXPIRED","message":"token is not valid"}}`))
	})
	client, tokens, cleanup := newTestClient(t, handler, config.APIConfig{})
	defer cleanup()
	tokens.token = "tok-stale"

	expired := 0
	client.SetAuthExpiredHook(func() { expired++ })

	_, err := client.CurrentProfile(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAuthExpired))
	assert.Equal(t, 1, expired)
	// The backend's message is surfaced.
	assert.Contains(t, pkgerrors.UserMessage(err), "token is not valid")
}

func TestLogin401IsRejectionNotExpiry(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid username or password"}`))
	})
	client, _, cleanup := newTestClient(t, handler, config.APIConfig{})
	defer cleanup()

	expired := 0
	client.SetAuthExpiredHook(func() { expired++ })

	_, err := client.Authenticate(context.Background(), "demo", "wrong")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAuthRejected))
	assert.Equal(t, 0, expired, "a login rejection must not clear the session")
}

func TestNetworkErrorCode(t *testing.T) {
	client, _, cleanup := newTestClient(t, http.NotFoundHandler(), config.APIConfig{})
	cleanup() // server already down

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNetwork))
}

func TestListProductsAcceptsEnvelopedPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":1,"name":"Mug","price":"18"}]`, 1},
		{"data envelope", `{"data":[{"id":"a","name":"Mug","price":18},{"id":"b","name":"Tote","price":24.9}]}`, 2},
		{"unrecognized shape", `{"products":"nope"}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			client, _, cleanup := newTestClient(t, handler, config.APIConfig{})
			defer cleanup()

			products, err := client.ListProducts(context.Background())
			require.NoError(t, err)
			assert.Len(t, products, tc.want)
		})
	}
}

func TestCreateOrderAcceptsNumericAndStringIDs(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"string id", `{"id":"order-1"}`, "order-1"},
		{"numeric id", `{"id":42}`, "42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			client, _, cleanup := newTestClient(t, handler, config.APIConfig{})
			defer cleanup()

			ref, err := client.CreateOrder(context.Background(), OrderInput{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ref.ID.String())
		})
	}
}

func TestCreateOrderWithoutIDIsMalformed(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pending"}`))
	})
	client, _, cleanup := newTestClient(t, handler, config.APIConfig{})
	defer cleanup()

	_, err := client.CreateOrder(context.Background(), OrderInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeMalformedResponse))
}

func TestConfirmPaymentUsesConfiguredPath(t *testing.T) {
	var sawPath string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawPath = r.URL.Path
		w.Write([]byte(`{}`))
	})

	t.Run("default spelling", func(t *testing.T) {
		client, _, cleanup := newTestClient(t, handler, config.APIConfig{})
		defer cleanup()
		require.NoError(t, client.ConfirmPayment(context.Background(), "pay-1"))
		assert.Equal(t, "/api/payments/pay-1/comfirm", sawPath)
	})

	t.Run("corrected spelling", func(t *testing.T) {
		client, _, cleanup := newTestClient(t, handler, config.APIConfig{
			PaymentConfirmPath: "/api/payments/{id}/confirm",
		})
		defer cleanup()
		require.NoError(t, client.ConfirmPayment(context.Background(), "pay-1"))
		assert.Equal(t, "/api/payments/pay-1/confirm", sawPath)
	})
}

func TestEmptyBodyWithExpectedPayloadIsMalformed(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client, _, cleanup := newTestClient(t, handler, config.APIConfig{})
	defer cleanup()

	_, err := client.CurrentProfile(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeMalformedResponse))
}

func TestServerErrorsMapToCodes(t *testing.T) {
	cases := []struct {
		status int
		want   pkgerrors.Code
	}{
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusInternalServerError, pkgerrors.CodeNetwork},
		{http.StatusBadGateway, pkgerrors.CodeNetwork},
	}
	for _, tc := range cases {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(`{"message":"nope"}`))
		})
		client, _, cleanup := newTestClient(t, handler, config.APIConfig{})

		_, err := client.ListProducts(context.Background())
		require.Error(t, err)
		assert.True(t, pkgerrors.Is(err, tc.want), "status %d should map to %s", tc.status, tc.want)
		cleanup()
	}
}
