// internal/gateway/gateway.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/javajoker/storefront/internal/apperrors"
	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/models"
)

// TokenSource returns the current bearer token, or the empty string when no
// session is active. It is consulted on every request.
type TokenSource func() string

// Client is the thin request/response mapper to the remote storefront API.
// It holds no domain state; retries and caching belong to its callers.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	limiter        *rate.Limiter
	token          TokenSource
	onUnauthorized func()
	log            *logrus.Logger
}

// New builds a gateway client. onUnauthorized, when non-nil, is invoked once
// per 401-class response so the owning application can invalidate the session.
func New(cfg config.APIConfig, token TokenSource, onUnauthorized func(), log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		token:          token,
		onUnauthorized: onUnauthorized,
		log:            log,
	}
}

// Auth endpoints

func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	var out models.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/users/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Product endpoints

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAvailable(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, "/products/available", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListBySeller(ctx context.Context, sellerID int64) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/seller/%d", sellerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchProducts(ctx context.Context, name string) ([]models.Product, error) {
	var out []models.Product
	path := "/products/search?name=" + url.QueryEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, req *models.ProductCreateRequest) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, http.MethodPost, "/products", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, req *models.ProductUpdateRequest) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil)
}

// do performs one request against the remote API: rate limit, encode, attach
// bearer token, classify failures, decode into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperrors.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	if resp.StatusCode >= 400 {
		apiErr := c.apiError(resp)
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Error("request failed")
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) apiError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	// Body decode is best effort; the status code alone is enough to classify.
	json.NewDecoder(resp.Body).Decode(&payload)

	message := payload.Message
	if message == "" {
		message = payload.Error
	}
	return &apperrors.APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
