package orderservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/skipit/redemption/internal/domain/order"
)

// Service is the slice of the order service API the redemption flows consume.
type Service interface {
	MyOrders(ctx context.Context) ([]*order.Order, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*order.Order, error)
	Claim(ctx context.Context, orderID string, items []order.ClaimItem) (*order.Order, error)
	OrderByID(ctx context.Context, orderID string) (*order.Order, error)
}

// Sentinel errors mapped from well-known response statuses.
var (
	ErrUnauthorized = errors.New("order service: unauthorized")
)

// ClaimRejectedError indicates the service refused a claim, typically because
// it would exceed a line's remaining quantity. The service is the final
// arbiter; the client never second-guesses a rejection.
type ClaimRejectedError struct {
	OrderID string
	Message string
}

func (e *ClaimRejectedError) Error() string {
	return fmt.Sprintf("claim rejected for order %s: %s", e.OrderID, e.Message)
}

// StatusError is returned for unexpected response statuses.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("order service: unexpected status %d: %s", e.Status, e.Message)
}

var _ Service = (*Client)(nil)

// ClientConfig configures the order service HTTP client.
type ClientConfig struct {
	// BaseURL is the root of the order service API, e.g. "https://api.example.com".
	BaseURL string
	// Token is the bearer token of the authenticated user. Empty means no
	// user session; callers decide how to degrade (the store returns empty
	// order lists rather than erroring).
	Token string
	// HTTPClient overrides the underlying client; defaults to http.DefaultTransport
	// wrapped with otelhttp instrumentation.
	HTTPClient *http.Client
}

// Client talks to the order service over HTTP.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient validates the base URL and builds an instrumented client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("invalid base url %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{base: base, token: cfg.Token, http: hc}, nil
}

// Authenticated reports whether the client carries a user session.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// MyOrders fetches the authenticated user's order history, newest first.
func (c *Client) MyOrders(ctx context.Context) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := c.do(ctx, http.MethodGet, "/orders/my-history", nil, &dtos); err != nil {
		return nil, err
	}
	orders := make([]*order.Order, len(dtos))
	for i, d := range dtos {
		orders[i] = d.ToDomain()
	}
	return orders, nil
}

// CreateOrder submits a new purchase and returns the created order with its
// server-assigned id and zeroed claimed counters.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*order.Order, error) {
	var dto OrderDTO
	if err := c.do(ctx, http.MethodPost, "/orders/", req, &dto); err != nil {
		return nil, err
	}
	return dto.ToDomain(), nil
}

// Claim submits a partial or full redemption for the order and returns the
// service's updated order, the authoritative source for claimed counts and
// status.
func (c *Client) Claim(ctx context.Context, orderID string, items []order.ClaimItem) (*order.Order, error) {
	body := ClaimRequest{Items: ClaimItemsToDTO(items)}
	var dto OrderDTO
	err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/claim", body, &dto)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Status == http.StatusConflict || se.Status == http.StatusUnprocessableEntity) {
			return nil, &ClaimRejectedError{OrderID: orderID, Message: se.Message}
		}
		return nil, err
	}
	return dto.ToDomain(), nil
}

// OrderByID fetches a single order, as the scanning side does before claiming.
func (c *Client) OrderByID(ctx context.Context, orderID string) (*order.Order, error) {
	var dto OrderDTO
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &dto); err != nil {
		return nil, err
	}
	return dto.ToDomain(), nil
}

// do performs one request/response cycle: marshal body, set auth headers,
// map non-2xx statuses to typed errors, decode the response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, method+" "+path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFrom(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// errorFrom maps an error response to a typed error. The body is read with a
// cap so a misbehaving server cannot balloon memory.
func (c *Client) errorFrom(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	msg := strings.TrimSpace(string(raw))
	var er ErrorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Message != "" {
		msg = er.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return order.ErrOrderNotFound
	default:
		return &StatusError{Status: resp.StatusCode, Message: msg}
	}
}
