package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avelinelabs/boutiq/pkg/config"
	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/avelinelabs/boutiq/pkg/logger"
	"github.com/avelinelabs/boutiq/pkg/metrics"
	"github.com/google/uuid"
)

const maxResponseBytes = 1 << 20

// TokenSource supplies the current bearer token, empty when unauthenticated.
type TokenSource interface {
	Token() string
}

// Client is the HTTP gateway to the storefront backend. Every authenticated
// call carries the current bearer token; a 401 on any such call fires the
// auth-expired hook so the session is cleared in exactly one place.
type Client struct {
	http          *http.Client
	baseURL       string
	confirmPath   string
	tokens        TokenSource
	onAuthExpired func()
	logg          *logger.Logger
	metrics       *metrics.GatewayMetrics
}

// Params bundles the dependencies required to build a gateway client.
type Params struct {
	Config     config.APIConfig
	Tokens     TokenSource
	Logger     *logger.Logger
	Metrics    *metrics.GatewayMetrics
	HTTPClient *http.Client
}

// NewClient constructs a gateway client with the provided dependencies.
func NewClient(params Params) (*Client, error) {
	if params.Config.BaseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: params.Config.Timeout}
	}
	confirmPath := params.Config.PaymentConfirmPath
	if confirmPath == "" {
		confirmPath = "/api/payments/{id}/comfirm"
	}
	return &Client{
		http:        httpClient,
		baseURL:     strings.TrimRight(params.Config.BaseURL, "/"),
		confirmPath: confirmPath,
		tokens:      params.Tokens,
		logg:        params.Logger,
		metrics:     params.Metrics,
	}, nil
}

// SetAuthExpiredHook registers the callback fired when an authenticated call
// is rejected with 401. The hook must be idempotent.
func (c *Client) SetAuthExpiredHook(fn func()) {
	c.onAuthExpired = fn
}

// Authenticate exchanges credentials for a bearer token. The token is
// accepted under any of the known field names, first match wins.
func (c *Client) Authenticate(ctx context.Context, identifier, secret string) (string, error) {
	payload := map[string]string{"username": identifier, "password": secret}

	var raw map[string]any
	if err := c.do(ctx, opLogin, http.MethodPost, pathLogin, payload, &raw, false); err != nil {
		return "", err
	}

	for _, field := range tokenFields {
		if value, ok := raw[field].(string); ok && value != "" {
			return value, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeMalformedResponse, "login response carries no recognized token field").
		WithDetails(map[string]any{"expected_one_of": tokenFields})
}

// CurrentProfile resolves the profile behind the current bearer token.
func (c *Client) CurrentProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, opCurrentProfile, http.MethodGet, pathClientMe, nil, &profile, true); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateAccount registers a new client account. It does not authenticate.
func (c *Client) CreateAccount(ctx context.Context, input AccountInput) error {
	return c.do(ctx, opCreateAccount, http.MethodPost, pathClientCreate, input, nil, false)
}

// ListProducts fetches the full catalog. A payload that is not a product
// array yields an empty catalog rather than an error.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, opListProducts, http.MethodGet, pathProductsAll, nil, &raw, false); err != nil {
		return nil, err
	}

	var products []Product
	if err := json.Unmarshal(raw, &products); err == nil {
		return products, nil
	}

	var envelope struct {
		Data []Product `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}
	return []Product{}, nil
}

// GetProduct fetches a single catalog entry.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var product Product
	path := fmt.Sprintf(pathProductByID, id)
	if err := c.do(ctx, opGetProduct, http.MethodGet, path, nil, &product, false); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateOrder submits the order payload and returns the created order ref.
func (c *Client) CreateOrder(ctx context.Context, input OrderInput) (*OrderRef, error) {
	var raw map[string]any
	if err := c.do(ctx, opCreateOrder, http.MethodPost, pathOrderCreate, input, &raw, true); err != nil {
		return nil, err
	}
	id := parseID(raw["id"])
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMalformedResponse, "order response carries no id")
	}
	return &OrderRef{ID: ID(id)}, nil
}

// CancelOrder voids a previously created order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	path := fmt.Sprintf(pathOrderCancel, orderID)
	return c.do(ctx, opCancelOrder, http.MethodPost, path, nil, nil, true)
}

// SubmitPayment charges the given order.
func (c *Client) SubmitPayment(ctx context.Context, input PaymentInput) error {
	return c.do(ctx, opSubmitPayment, http.MethodPost, pathPaymentCreate, input, nil, true)
}

// ConfirmPayment hits the configurable payment confirmation route.
func (c *Client) ConfirmPayment(ctx context.Context, paymentID string) error {
	path := strings.ReplaceAll(c.confirmPath, "{id}", paymentID)
	return c.do(ctx, opConfirmPayment, http.MethodPost, path, nil, nil, true)
}

// ListPromoCodes fetches the published discount codes.
func (c *Client) ListPromoCodes(ctx context.Context) ([]PromoCode, error) {
	var codes []PromoCode
	if err := c.do(ctx, opListPromos, http.MethodGet, pathPromoAll, nil, &codes, false); err != nil {
		return nil, err
	}
	return codes, nil
}

// EndSession tells the backend the session is over. Callers treat failures
// as best-effort.
func (c *Client) EndSession(ctx context.Context) error {
	return c.do(ctx, opLogout, http.MethodPost, pathLogout, nil, nil, true)
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out any, authenticated bool) error {
	start := time.Now()
	ctx = c.logg.WithRequestID(ctx, uuid.NewString())
	ctx = c.logg.WithField(ctx, "operation", operation)

	err := c.roundTrip(ctx, method, path, body, out, authenticated)
	c.metrics.ObserveDuration(operation, time.Since(start))
	if err != nil {
		code := pkgerrors.CodeInternal
		if typed := pkgerrors.As(err); typed != nil {
			code = typed.Code()
		}
		c.metrics.IncFailure(operation, string(code))
		c.logg.Warn(c.logg.WithField(ctx, "error_code", string(code)), "backend call failed")
		return err
	}
	c.metrics.IncSuccess(operation)
	c.logg.Debug(ctx, "backend call completed")
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "backend unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := pkgerrors.FromStatus(resp.StatusCode, authenticated)
		if code == pkgerrors.CodeAuthExpired && c.onAuthExpired != nil {
			c.onAuthExpired()
		}
		message := errorMessage(payload)
		if message == "" {
			message = pkgerrors.MetadataFor(code).PublicMessage
		}
		return pkgerrors.New(code, message).WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return pkgerrors.New(pkgerrors.CodeMalformedResponse, "empty response body")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeMalformedResponse, err, "decode response")
	}
	return nil
}

// errorMessage digs a human-readable message out of a backend error payload,
// accepting both the bare and enveloped shapes.
func errorMessage(payload []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return ""
	}
	if envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return envelope.Message
}
