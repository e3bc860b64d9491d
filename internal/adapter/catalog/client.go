// Package catalog is the HTTP client of the upstream product catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/internal/core/port"
)

var _ port.CatalogSource = (*Client)(nil)

var (
	ErrNotFound         = port.ErrProductNotFound
	ErrUnexpectedStatus = errors.New("unexpected status")
)

const (
	DefaultBaseURL = "https://dummyjson.com"
	DefaultLimit   = 200
	defaultTimeout = 10 * time.Second
	maxBodySize    = 16 << 20
)

// Observer is notified about every upstream round trip.
type Observer interface {
	ObserveUpstream(endpoint string, status int, err error, elapsed time.Duration)
}

type Opt func(*Client)

func WithHTTPClient(c *http.Client) Opt {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithLimit(limit int) Opt {
	return func(cl *Client) {
		if limit > 0 {
			cl.limit = limit
		}
	}
}

func WithTimeout(d time.Duration) Opt {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

func WithObserver(o Observer) Opt {
	return func(cl *Client) {
		cl.observer = o
	}
}

type Client struct {
	baseURL  *url.URL
	http     *http.Client
	limit    int
	observer Observer
}

func New(baseURL string, opts ...Opt) (*Client, error) {
	const op = "catalog.New"

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: base url %q must be absolute", op, baseURL)
	}

	cl := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: defaultTimeout},
		limit:   DefaultLimit,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	const op = "Client.Categories"

	var raw []json.RawMessage
	if err := c.getJSON(ctx, "categories", "/products/categories", nil, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return parseCategories(raw), nil
}

// Products fetches the whole catalog in one page of c.limit items.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	const op = "Client.Products"

	q := url.Values{"limit": {strconv.Itoa(c.limit)}}
	var page productsPage
	if err := c.getJSON(ctx, "products", "/products", q, &page); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps := make([]domain.Product, 0, len(page.Products))
	for _, p := range page.Products {
		ps = append(ps, p.toDomain())
	}
	return ps, nil
}

func (c *Client) Product(ctx context.Context, id int) (domain.Product, error) {
	const op = "Client.Product"

	if id <= 0 {
		return domain.Product{}, fmt.Errorf("%s: %w: id %d", op, ErrNotFound, id)
	}

	var p product
	path := "/products/" + strconv.Itoa(id)
	if err := c.getJSON(ctx, "product", path, nil, &p); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p.toDomain(), nil
}

func (c *Client) getJSON(
	ctx context.Context, endpoint, path string, q url.Values, v any,
) (err error) {
	u := *c.baseURL
	u.Path += path
	u.RawQuery = q.Encode()

	start := time.Now()
	status := 0
	defer func() {
		if c.observer != nil {
			c.observer.ObserveUpstream(endpoint, status, err, time.Since(start))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(resp.Body)

	status = resp.StatusCode
	switch {
	case status == http.StatusNotFound:
		return ErrNotFound
	case status < 200 || status > 299:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	}

	return json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(v)
}

func (c *Client) closeBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxBodySize))
	if err := body.Close(); err != nil {
		slog.Debug("failed to close response body", "op", "Client.closeBody", "err", err)
	}
}
