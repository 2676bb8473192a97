package mockapi

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinelabs/boutiq/internal/gateway"
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

func newTestClient(t *testing.T) (*gateway.Client, *staticTokens, func()) {
	t.Helper()

	logg := testLogger()
	server, err := NewServer(logg, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(server)
	tokens := &staticTokens{}
	client, err := gateway.NewClient(gateway.Params{
		Config: config.APIConfig{BaseURL: ts.URL},
		Tokens: tokens,
		Logger: logg,
	})
	require.NoError(t, err)

	return client, tokens, ts.Close
}

func TestLoginReturnsUsableToken(t *testing.T) {
	client, tokens, cleanup := newTestClient(t)
	defer cleanup()
	ctx := context.Background()

	token, err := client.Authenticate(ctx, "demo", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	tokens.token = token
	profile, err := client.CurrentProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "demo", profile.Username)
	assert.Equal(t, "demo@example.com", profile.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	client, _, cleanup := newTestClient(t)
	defer cleanup()

	_, err := client.Authenticate(context.Background(), "demo", "wrong")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAuthRejected))
}

func TestProfileRequiresValidToken(t *testing.T) {
	client, tokens, cleanup := newTestClient(t)
	defer cleanup()

	tokens.token = "not-a-real-token"
	_, err := client.CurrentProfile(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAuthExpired))
}

func TestCreateAccountThenLogin(t *testing.T) {
	client, _, cleanup := newTestClient(t)
	defer cleanup()
	ctx := context.Background()

	err := client.CreateAccount(ctx, gateway.AccountInput{
		Username:  "newbie",
		Password:  "hunter22",
		FirstName: "New",
		LastName:  "Client",
		Email:     "newbie@example.com",
	})
	require.NoError(t, err)

	// Duplicate usernames are rejected.
	err = client.CreateAccount(ctx, gateway.AccountInput{
		Username:  "newbie",
		Password:  "hunter22",
		FirstName: "New",
		LastName:  "Client",
		Email:     "newbie@example.com",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	token, err := client.Authenticate(ctx, "newbie", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestCatalogAndPromos(t *testing.T) {
	client, _, cleanup := newTestClient(t)
	defer cleanup()
	ctx := context.Background()

	products, err := client.ListProducts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)

	one, err := client.GetProduct(ctx, products[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, products[0].Name, one.Name)

	_, err = client.GetProduct(ctx, "missing-id")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	promos, err := client.ListPromoCodes(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 2)
	assert.Equal(t, "WELCOME10", promos[0].Code)
}

func TestOrderAndPaymentFlow(t *testing.T) {
	client, tokens, cleanup := newTestClient(t)
	defer cleanup()
	ctx := context.Background()

	token, err := client.Authenticate(ctx, "demo", "secret123")
	require.NoError(t, err)
	tokens.token = token

	products, err := client.ListProducts(ctx)
	require.NoError(t, err)

	order, err := client.CreateOrder(ctx, gateway.OrderInput{
		Items:           []gateway.OrderItem{{ProductID: products[0].ID.String(), Quantity: 2}},
		Total:           products[0].Price.Mul(decimal.NewFromInt(2)),
		ShippingAddress: "12 Rue des Lilas, Lyon",
	})
	require.NoError(t, err)
	require.NotEmpty(t, order.ID.String())

	err = client.SubmitPayment(ctx, gateway.PaymentInput{
		OrderID:     order.ID.String(),
		Amount:      products[0].Price.Mul(decimal.NewFromInt(2)),
		CardDetails: gateway.CardDetails{Number: "4242424242424242", Expiry: "12/27", CVC: "123"},
	})
	require.NoError(t, err)

	// The confirmation route is served under the backend's misspelling.
	err = client.ConfirmPayment(ctx, order.ID.String())
	require.NoError(t, err)
}

func TestPaymentDeclines(t *testing.T) {
	client, tokens, cleanup := newTestClient(t)
	defer cleanup()
	ctx := context.Background()

	token, err := client.Authenticate(ctx, "demo", "secret123")
	require.NoError(t, err)
	tokens.token = token

	products, err := client.ListProducts(ctx)
	require.NoError(t, err)

	order, err := client.CreateOrder(ctx, gateway.OrderInput{
		Items:           []gateway.OrderItem{{ProductID: products[0].ID.String(), Quantity: 1}},
		Total:           products[0].Price,
		ShippingAddress: "12 Rue des Lilas, Lyon",
	})
	require.NoError(t, err)

	err = client.SubmitPayment(ctx, gateway.PaymentInput{
		OrderID:     order.ID.String(),
		Amount:      products[0].Price,
		CardDetails: gateway.CardDetails{Number: declinedCard},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.UserMessage(err), "declined")

	err = client.SubmitPayment(ctx, gateway.PaymentInput{
		OrderID:     order.ID.String(),
		Amount:      decimal.Zero,
		CardDetails: gateway.CardDetails{Number: "4242424242424242"},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestLogoutRevokesToken(t *testing.T) {
	client, tokens, cleanup := newTestClient(t)
	defer cleanup()
	ctx := context.Background()

	token, err := client.Authenticate(ctx, "demo", "secret123")
	require.NoError(t, err)
	tokens.token = token

	require.NoError(t, client.EndSession(ctx))

	_, err = client.CurrentProfile(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAuthExpired))
}
