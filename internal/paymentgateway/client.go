package paymentgateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/frahmantamala/rti-filing/internal/core/common/validation"
	gatewaytypes "github.com/frahmantamala/rti-filing/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/rti-filing/internal/observability"
)

const (
	defaultBaseURL  = "https://api.razorpay.com"
	defaultCurrency = "INR"
	defaultTimeout  = 15 * time.Second

	ordersPath = "/v1/orders"
)

var tracer = otel.Tracer("github.com/frahmantamala/rti-filing/internal/paymentgateway")

// ErrConfiguration is returned when the client has no credentials.
var ErrConfiguration = errors.New("payment gateway is not configured")

// GatewayError describes a failed call to the provider. StatusCode is zero
// when the request never got a reply.
type GatewayError struct {
	StatusCode  int
	Code        string
	Description string
	Cause       error
}

func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Cause != nil:
		return fmt.Sprintf("payment gateway unreachable: %v", e.Cause)
	case e.Code != "":
		return fmt.Sprintf("payment gateway returned %d %s: %s", e.StatusCode, e.Code, e.Description)
	default:
		return fmt.Sprintf("payment gateway returned %d", e.StatusCode)
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

type Config struct {
	KeyID      string
	KeySecret  string
	BaseURL    string
	Currency   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the Razorpay orders API and verifies checkout signatures.
type Client struct {
	keyID      string
	keySecret  string
	baseURL    string
	currency   string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	currency := strings.ToUpper(config.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		keyID:      config.KeyID,
		keySecret:  config.KeySecret,
		baseURL:    baseURL,
		currency:   currency,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) IsConfigured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// KeyID is the public key handed to the browser checkout.
func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) Currency() string {
	return c.currency
}

// CreateOrder registers an order with the provider. It is never retried:
// a second attempt could create a second chargeable order.
func (c *Client) CreateOrder(ctx context.Context, req gatewaytypes.OrderRequest) (*gatewaytypes.Order, error) {
	if !c.IsConfigured() {
		return nil, ErrConfiguration
	}

	if appErr := validation.ValidateAmountMinorUnits(req.Amount); appErr != nil {
		return nil, appErr
	}
	if req.Currency == "" {
		req.Currency = c.currency
	}

	ctx, span := tracer.Start(ctx, "paymentgateway.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("payment.amount", req.Amount),
		attribute.String("payment.currency", req.Currency),
		attribute.String("payment.receipt", req.Receipt),
	)

	start := time.Now()
	order, err := c.createOrder(ctx, req)
	observability.GatewayLatency.WithLabelValues("create_order").Observe(time.Since(start).Seconds())
	observability.GatewayRequests.WithLabelValues("create_order", observability.ResultLabel(err == nil)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order failed")
		c.logger.Error("payment gateway order creation failed",
			"receipt", req.Receipt,
			"amount", req.Amount,
			"error", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("payment.order_id", order.ID))
	c.logger.Info("payment gateway order created",
		"order_id", order.ID,
		"receipt", order.Receipt,
		"amount", order.Amount,
		"currency", order.Currency)

	return order, nil
}

func (c *Client) createOrder(ctx context.Context, req gatewaytypes.OrderRequest) (*gatewaytypes.Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		var errResp gatewaytypes.ErrorResponse
		if json.Unmarshal(payload, &errResp) == nil {
			gwErr.Code = errResp.Error.Code
			gwErr.Description = errResp.Error.Description
		}
		return nil, gwErr
	}

	var order gatewaytypes.Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Cause: fmt.Errorf("failed to decode order: %w", err)}
	}
	if order.ID == "" {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Description: "order response has no id"}
	}

	return &order, nil
}

// VerifySignature checks the checkout signature for an order/payment pair.
// A mismatch is reported as false with a nil error.
func (c *Client) VerifySignature(orderID, paymentID, signature string) (bool, error) {
	if c.keySecret == "" {
		return false, ErrConfiguration
	}

	expected := Sign(c.keySecret, orderID, paymentID)
	ok := hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
	observability.GatewayRequests.WithLabelValues("verify_signature", observability.ResultLabel(ok)).Inc()

	if !ok {
		c.logger.Warn("payment signature mismatch",
			"order_id", orderID,
			"payment_id", paymentID)
	}

	return ok, nil
}

// Sign returns hex(HMAC_SHA256(secret, orderID + "|" + paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
