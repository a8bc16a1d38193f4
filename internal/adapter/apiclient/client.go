// Package apiclient is the HTTP/JSON client of the storefront backing
// service.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.APIGateway = (*Client)(nil)

const (
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 512
)

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type Opt func(*Client) error

// HTTPClientOpt replaces the underlying [*http.Client].
func HTTPClientOpt(c *http.Client) Opt {
	return func(cl *Client) error {
		if c == nil {
			return errors.New("http client is nil")
		}
		cl.http = c
		return nil
	}
}

func TimeoutOpt(d time.Duration) Opt {
	return func(cl *Client) error {
		if d < 0 {
			return errors.New("timeout is negative")
		}
		cl.http.Timeout = d
		return nil
	}
}

func New(baseURL string, opts ...Opt) (*Client, error) {
	const op = "apiclient.New"

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: unsupported scheme %q", op, u.Scheme)
	}

	cl := &Client{baseURL: u, http: &http.Client{Timeout: 5 * time.Second}}
	for _, opt := range opts {
		if err := opt(cl); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return cl, nil
}

func (c *Client) GetProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "Client.GetProducts"

	var ps []Product
	if err := c.do(ctx, op, http.MethodGet, "/products", nil, &ps); err != nil {
		return nil, err
	}

	vs := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		v, err := p.toDomain()
		if err != nil {
			return nil, c.decodeErr(op, err)
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func (c *Client) AddProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	const op = "Client.AddProduct"
	return c.sendProduct(ctx, op, http.MethodPost, "/products", p)
}

func (c *Client) UpdateProduct(
	ctx context.Context, id string, p domain.Product,
) (domain.Product, error) {
	const op = "Client.UpdateProduct"
	return c.sendProduct(ctx, op, http.MethodPut, "/products/"+url.PathEscape(id), p)
}

func (c *Client) sendProduct(
	ctx context.Context, op, method, path string, p domain.Product,
) (domain.Product, error) {
	var echo Product
	if err := c.do(ctx, op, method, path, productFromDomain(p), &echo); err != nil {
		return domain.Product{}, err
	}
	v, err := echo.toDomain()
	if err != nil {
		return domain.Product{}, c.decodeErr(op, err)
	}
	return v, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	const op = "Client.DeleteProduct"
	return c.do(ctx, op, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

func (c *Client) GetCustomers(ctx context.Context) ([]domain.Customer, error) {
	const op = "Client.GetCustomers"

	var cs []Customer
	if err := c.do(ctx, op, http.MethodGet, "/customers", nil, &cs); err != nil {
		return nil, err
	}

	vs := make([]domain.Customer, 0, len(cs))
	for _, v := range cs {
		vs = append(vs, v.toDomain())
	}
	return vs, nil
}

func (c *Client) AddCustomer(ctx context.Context, v domain.Customer) (domain.Customer, error) {
	const op = "Client.AddCustomer"

	var echo Customer
	err := c.do(ctx, op, http.MethodPost, "/customers", customerFromDomain(v), &echo)
	if err != nil {
		return domain.Customer{}, err
	}
	return echo.toDomain(), nil
}

func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	const op = "Client.DeleteCustomer"
	return c.do(ctx, op, http.MethodDelete, "/customers/"+url.PathEscape(id), nil, nil)
}

// Login maps 401 and 403 responses to [domain.ErrInvalidCredentials].
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.Role, error) {
	const op = "Client.Login"

	req := LoginRequest{Username: creds.Username, Password: creds.Password}
	var res LoginResponse
	err := c.do(ctx, op, http.MethodPost, "/login", req, &res)
	if err != nil {
		var terr *domain.TransportError
		if errors.As(err, &terr) &&
			(terr.Status == http.StatusUnauthorized || terr.Status == http.StatusForbidden) {
			return domain.RoleUnset, fmt.Errorf("%s: %w", op, domain.ErrInvalidCredentials)
		}
		return domain.RoleUnset, err
	}

	role, err := domain.ParseRole(res.Role)
	if err != nil {
		return domain.RoleUnset, fmt.Errorf("%s: %w", op, err)
	}
	return role, nil
}

func (c *Client) do(
	ctx context.Context, op, method, path string, in, out any,
) error {
	log := slog.With("op", op)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		log.Error("request failed", "requestID", reqID, "err", err)
		return &domain.TransportError{Op: op, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		if err := res.Body.Close(); err != nil {
			log.Warn("failed to close response body", "err", err)
		}
	}()

	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		text := strings.TrimSpace(string(msg))
		if text == "" {
			text = http.StatusText(res.StatusCode)
		}
		log.Warn("unexpected status",
			"requestID", reqID, "status", res.StatusCode)
		return &domain.TransportError{
			Op:     op,
			Status: res.StatusCode,
			Err:    errors.New(text),
		}
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}

	if !isJSON(res.Header.Get("Content-Type")) {
		return c.decodeErr(op, fmt.Errorf("invalid media type %q",
			res.Header.Get("Content-Type")))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return c.decodeErr(op, err)
	}
	return nil
}

func (c *Client) decodeErr(op string, err error) error {
	return &domain.TransportError{
		Op:  op,
		Err: fmt.Errorf("failed to decode response: %w", err),
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}
