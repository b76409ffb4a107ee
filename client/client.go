// Package client is a Go consumer of the storefront API. It owns the
// concerns a frontend data layer would own: a persistent session,
// bearer-token injection, a global logout on any 401, and
// tag-invalidated caching of product reads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	httpc   *http.Client
	session *Session
	cache   *tagCache
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = newTagCache(ttl) }
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   http.DefaultClient,
		session: session,
		cache:   newTagCache(0),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Pagination struct {
	CurrentPage int `json:"current_page"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
	LastPage    int `json:"last_page"`
}

type ProductPage struct {
	Items      []Product
	Pagination Pagination
}

// APIError carries the decoded error envelope of a non-2xx response.
// Errors is populated for 422 validation failures, keyed by field.
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}

	return fmt.Sprintf("api: request failed (status %d)", e.StatusCode)
}

const productsTag = "products"

type RegisterInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type CreateProductInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

type UpdateProductInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
}

type authResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type userResponse struct {
	Status string `json:"status"`
	User   User   `json:"user"`
}

type productResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Data    Product `json:"data"`
}

type productListResponse struct {
	Status     string     `json:"status"`
	Data       []Product  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (User, error) {
	var res authResponse

	if err := c.do(ctx, http.MethodPost, "/api/register", in, &res); err != nil {
		return User{}, err
	}

	if err := c.session.Save(res.Token, res.User); err != nil {
		return User{}, fmt.Errorf("save session: %w", err)
	}

	return res.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	body := map[string]string{"email": email, "password": password}

	var res authResponse

	if err := c.do(ctx, http.MethodPost, "/api/login", body, &res); err != nil {
		return User{}, err
	}

	if err := c.session.Save(res.Token, res.User); err != nil {
		return User{}, fmt.Errorf("save session: %w", err)
	}

	return res.User, nil
}

func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var res userResponse

	if err := c.do(ctx, http.MethodGet, "/api/user", nil, &res); err != nil {
		return User{}, err
	}

	return res.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/logout", struct{}{}, nil); err != nil {
		return err
	}

	return c.session.Clear()
}

func (c *Client) ListProducts(ctx context.Context, page int) (ProductPage, error) {
	if page < 1 {
		page = 1
	}

	key := fmt.Sprintf("products:list:%d", page)

	if v, ok := c.cache.Get(key); ok {
		if cached, ok := v.(ProductPage); ok {
			return cached, nil
		}
	}

	var res productListResponse

	path := fmt.Sprintf("/api/products?page=%d", page)

	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return ProductPage{}, err
	}

	result := ProductPage{Items: res.Data, Pagination: res.Pagination}

	c.cache.Set(key, result, productsTag)

	return result, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (Product, error) {
	key := fmt.Sprintf("products:id:%d", id)

	if v, ok := c.cache.Get(key); ok {
		if cached, ok := v.(Product); ok {
			return cached, nil
		}
	}

	var res productResponse

	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil, &res); err != nil {
		return Product{}, err
	}

	c.cache.Set(key, res.Data, productsTag)

	return res.Data, nil
}

func (c *Client) CreateProduct(ctx context.Context, in CreateProductInput) (Product, error) {
	var res productResponse

	if err := c.do(ctx, http.MethodPost, "/api/products", in, &res); err != nil {
		return Product{}, err
	}

	c.cache.InvalidateTag(productsTag)

	return res.Data, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, in UpdateProductInput) (Product, error) {
	var res productResponse

	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/products/%d", id), in, &res); err != nil {
		return Product{}, err
	}

	c.cache.InvalidateTag(productsTag)

	return res.Data, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, nil); err != nil {
		return err
	}

	c.cache.InvalidateTag(productsTag)

	return nil
}

// do runs one request/response cycle. Any 401, from any endpoint,
// invalidates the session and fires its observers before the error is
// returned to the caller.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)

		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)

	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")

	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)

	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.session.invalidate()
			c.cache.Clear()
		}

		apiErr := &APIError{StatusCode: resp.StatusCode}

		var envelope struct {
			Message string              `json:"message"`
			Errors  map[string][]string `json:"errors"`
		}

		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Message = envelope.Message
			apiErr.Errors = envelope.Errors
		}

		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
