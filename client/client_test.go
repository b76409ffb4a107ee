package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// stubAPI serves the storefront envelopes and counts hits per path so
// tests can observe which calls were answered from the client cache.
type stubAPI struct {
	t    *testing.T
	hits map[string]int
}

func newStubAPI(t *testing.T) (*stubAPI, *httptest.Server) {
	s := &stubAPI{t: t, hits: make(map[string]int)}
	srv := httptest.NewServer(s)

	t.Cleanup(srv.Close)

	return s, srv
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.hits[r.Method+" "+r.URL.Path]++

	w.Header().Set("Content-Type", "application/json")

	writeJSON := func(status int, body any) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	authed := r.Header.Get("Authorization") == "Bearer "+testToken

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/register":
		writeJSON(http.StatusCreated, map[string]any{
			"status":  "success",
			"message": "User registered successfully",
			"user":    map[string]any{"id": 1, "name": "Jane", "email": "jane@example.com"},
			"token":   testToken,
		})

	case r.Method == http.MethodPost && r.URL.Path == "/api/login":
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)

		if creds["password"] != "secret-password" {
			writeJSON(http.StatusUnauthorized, map[string]any{
				"status": "error", "message": "Invalid credentials",
			})
			return
		}

		writeJSON(http.StatusOK, map[string]any{
			"status":  "success",
			"message": "Logged in successfully",
			"user":    map[string]any{"id": 1, "name": "Jane", "email": "jane@example.com"},
			"token":   testToken,
		})

	case r.Method == http.MethodGet && r.URL.Path == "/api/user":
		if !authed {
			writeJSON(http.StatusUnauthorized, map[string]any{
				"status": "error", "message": "Unauthenticated",
			})
			return
		}

		writeJSON(http.StatusOK, map[string]any{
			"status": "success",
			"user":   map[string]any{"id": 1, "name": "Jane", "email": "jane@example.com"},
		})

	case r.Method == http.MethodPost && r.URL.Path == "/api/logout":
		if !authed {
			writeJSON(http.StatusUnauthorized, map[string]any{
				"status": "error", "message": "Unauthenticated",
			})
			return
		}

		writeJSON(http.StatusOK, map[string]any{
			"status": "success", "message": "Logged out successfully",
		})

	case r.Method == http.MethodGet && r.URL.Path == "/api/products":
		writeJSON(http.StatusOK, map[string]any{
			"status": "success",
			"data": []map[string]any{
				{"id": 1, "name": "Widget", "price": 9.99, "stock": 3},
			},
			"pagination": map[string]any{
				"current_page": 1, "total": 1, "per_page": 10, "last_page": 1,
			},
		})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/products/"):
		writeJSON(http.StatusOK, map[string]any{
			"status": "success",
			"data":   map[string]any{"id": 1, "name": "Widget", "price": 9.99, "stock": 3},
		})

	case r.Method == http.MethodPost && r.URL.Path == "/api/products":
		if !authed {
			writeJSON(http.StatusUnauthorized, map[string]any{
				"status": "error", "message": "Unauthenticated",
			})
			return
		}

		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)

		if in["name"] == "" || in["name"] == nil {
			writeJSON(http.StatusUnprocessableEntity, map[string]any{
				"message": "Product name is required.",
				"errors":  map[string][]string{"name": {"Product name is required."}},
			})
			return
		}

		writeJSON(http.StatusCreated, map[string]any{
			"status":  "success",
			"message": "Product created successfully",
			"data":    map[string]any{"id": 2, "name": in["name"], "price": in["price"], "stock": in["stock"]},
		})

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/products/"):
		if !authed {
			writeJSON(http.StatusUnauthorized, map[string]any{
				"status": "error", "message": "Unauthenticated",
			})
			return
		}

		writeJSON(http.StatusOK, map[string]any{
			"status": "success", "message": "Product deleted successfully",
		})

	default:
		writeJSON(http.StatusNotFound, map[string]any{
			"status": "error", "message": "Not found",
		})
	}
}

func newTestClient(t *testing.T, baseURL string) (*Client, *Session) {
	session := NewSession(filepath.Join(t.TempDir(), "session.json"))

	return New(baseURL, session, WithCacheTTL(time.Minute)), session
}

func TestRegisterSavesSession(t *testing.T) {
	_, srv := newStubAPI(t)
	c, session := newTestClient(t, srv.URL)

	u, err := c.Register(context.Background(), RegisterInput{
		Name: "Jane", Email: "jane@example.com",
		Password: "secret-password", PasswordConfirmation: "secret-password",
	})
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, testToken, session.Token())
}

func TestLoginSavesSession(t *testing.T) {
	_, srv := newStubAPI(t)
	c, session := newTestClient(t, srv.URL)

	u, err := c.Login(context.Background(), "jane@example.com", "secret-password")
	require.NoError(t, err)

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, testToken, session.Token())

	stored, ok := session.User()
	require.True(t, ok)
	assert.Equal(t, "Jane", stored.Name)
}

func TestLoginRejected(t *testing.T) {
	_, srv := newStubAPI(t)
	c, session := newTestClient(t, srv.URL)

	_, err := c.Login(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)

	assert.Empty(t, session.Token())
}

func TestUnauthorizedInvalidatesSessionAndCache(t *testing.T) {
	_, srv := newStubAPI(t)
	c, session := newTestClient(t, srv.URL)

	require.NoError(t, session.Save("stale-token", User{ID: 1}))

	_, err := c.ListProducts(context.Background(), 1)
	require.NoError(t, err)

	var fired int
	session.OnUnauthenticated(func() { fired++ })

	// the server rejects the stale token; the client must drop the
	// session, empty the cache and notify, exactly once per 401
	_, err = c.CurrentUser(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	assert.Equal(t, 1, fired)
	assert.Empty(t, session.Token())

	_, ok := c.cache.Get("products:list:1")
	assert.False(t, ok)
}

func TestListProductsCached(t *testing.T) {
	api, srv := newStubAPI(t)
	c, _ := newTestClient(t, srv.URL)

	first, err := c.ListProducts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	assert.Equal(t, 10, first.Pagination.PerPage)

	second, err := c.ListProducts(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, api.hits["GET /api/products"], "second read must come from cache")
}

func TestMutationInvalidatesProductCache(t *testing.T) {
	api, srv := newStubAPI(t)
	c, session := newTestClient(t, srv.URL)

	require.NoError(t, session.Save(testToken, User{ID: 1}))

	_, err := c.ListProducts(context.Background(), 1)
	require.NoError(t, err)

	_, err = c.GetProduct(context.Background(), 1)
	require.NoError(t, err)

	_, err = c.CreateProduct(context.Background(), CreateProductInput{
		Name: "Gadget", Price: 4.5, Stock: 2,
	})
	require.NoError(t, err)

	_, err = c.ListProducts(context.Background(), 1)
	require.NoError(t, err)

	_, err = c.GetProduct(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, api.hits["GET /api/products"])
	assert.Equal(t, 2, api.hits["GET /api/products/1"])
}

func TestValidationErrorsExposed(t *testing.T) {
	_, srv := newStubAPI(t)
	c, session := newTestClient(t, srv.URL)

	require.NoError(t, session.Save(testToken, User{ID: 1}))

	_, err := c.CreateProduct(context.Background(), CreateProductInput{Price: 4.5})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "Product name is required.", apiErr.Message)
	assert.Equal(t, []string{"Product name is required."}, apiErr.Errors["name"])
}

func TestLogoutClearsSessionQuietly(t *testing.T) {
	_, srv := newStubAPI(t)
	c, session := newTestClient(t, srv.URL)

	_, err := c.Login(context.Background(), "jane@example.com", "secret-password")
	require.NoError(t, err)

	var fired int
	session.OnUnauthenticated(func() { fired++ })

	require.NoError(t, c.Logout(context.Background()))

	assert.Empty(t, session.Token())
	assert.Zero(t, fired, "a deliberate logout is not an auth failure")
}

func TestDeleteProduct(t *testing.T) {
	api, srv := newStubAPI(t)
	c, session := newTestClient(t, srv.URL)

	require.NoError(t, session.Save(testToken, User{ID: 1}))

	require.NoError(t, c.DeleteProduct(context.Background(), 1))
	assert.Equal(t, 1, api.hits[fmt.Sprintf("DELETE /api/products/%d", 1)])
}
