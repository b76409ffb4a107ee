package handlers_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quintalabs/storefront/internal/domain/product"
	"github.com/quintalabs/storefront/internal/http/handlers"

	"github.com/gin-gonic/gin"
)

type fakeProductStore struct {
	createFn func(ctx context.Context, req product.CreateProductRequest) (product.Product, error)
	listFn   func(ctx context.Context, page int) ([]product.Product, int, error)
	getFn    func(ctx context.Context, id int64) (product.Product, error)
	updateFn func(ctx context.Context, id int64, req product.UpdateProductRequest) (product.Product, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (f *fakeProductStore) Create(ctx context.Context, req product.CreateProductRequest) (product.Product, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}

	return product.Product{ID: 1, Name: req.Name, Price: *req.Price, Stock: *req.Stock}, nil
}

func (f *fakeProductStore) List(ctx context.Context, page int) ([]product.Product, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, page)
	}

	return []product.Product{}, 0, nil
}

func (f *fakeProductStore) GetByID(ctx context.Context, id int64) (product.Product, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return product.Product{}, product.ErrNotFound
}

func (f *fakeProductStore) Update(ctx context.Context, id int64, req product.UpdateProductRequest) (product.Product, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}

	return product.Product{ID: id, Name: "unchanged"}, nil
}

func (f *fakeProductStore) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}

	return nil
}

func productsRouter(repo handlers.ProductStore) *gin.Engine {
	h := handlers.NewProductsHandler(repo, nil, testLogger())

	r := gin.New()
	r.GET("/api/products", h.List)
	r.GET("/api/products/:id", h.Get)
	r.POST("/api/products", h.Create)
	r.PUT("/api/products/:id", h.Update)
	r.DELETE("/api/products/:id", h.Delete)

	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request

	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestCreateProductValidation(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantStatusCode int
		wantField      string
		wantMessage    string
	}{
		{
			name:           "success",
			body:           `{"name": "Keyboard", "description": "mechanical", "price": 49.99, "stock": 12}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "minimum_price_accepted",
			body:           `{"name": "Sticker", "price": 0.01, "stock": 0}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing_name",
			body:           `{"price": 49.99, "stock": 12}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantField:      "name",
			wantMessage:    "Product name is required.",
		},
		{
			name:           "zero_price",
			body:           `{"name": "Keyboard", "price": 0, "stock": 12}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantField:      "price",
			wantMessage:    "Price must be greater than 0.",
		},
		{
			name:           "negative_price",
			body:           `{"name": "Keyboard", "price": -5, "stock": 12}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantField:      "price",
			wantMessage:    "Price must be greater than 0.",
		},
		{
			name:           "negative_stock",
			body:           `{"name": "Keyboard", "price": 49.99, "stock": -1}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantField:      "stock",
			wantMessage:    "Stock cannot be negative.",
		},
		{
			name:           "missing_price",
			body:           `{"name": "Keyboard", "stock": 12}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantField:      "price",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := productsRouter(&fakeProductStore{})

			w := doJSON(r, http.MethodPost, "/api/products", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantField == "" {
				return
			}

			body := decodeBody(t, w)

			errs, ok := body["errors"].(map[string]any)
			if !ok {
				t.Fatalf("expected errors map, body=%s", w.Body.String())
			}

			msgs, ok := errs[tt.wantField].([]any)
			if !ok || len(msgs) == 0 {
				t.Fatalf("expected error for %q, got %v", tt.wantField, errs)
			}

			if tt.wantMessage != "" && msgs[0] != tt.wantMessage {
				t.Errorf("message = %v, want %q", msgs[0], tt.wantMessage)
			}
		})
	}
}

func TestUpdateProductPartial(t *testing.T) {
	var captured *product.UpdateProductRequest

	repo := &fakeProductStore{
		updateFn: func(ctx context.Context, id int64, req product.UpdateProductRequest) (product.Product, error) {
			captured = &req
			return product.Product{ID: id, Name: "Keyboard", Stock: 99}, nil
		},
	}

	r := productsRouter(repo)

	// no name supplied: partial update must still pass validation
	w := doJSON(r, http.MethodPut, "/api/products/5", `{"stock": 99}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	if captured == nil {
		t.Fatal("repo was not called")
	}

	if captured.Name != nil || captured.Price != nil {
		t.Errorf("unexpected fields set: %+v", captured)
	}

	if captured.Stock == nil || *captured.Stock != 99 {
		t.Errorf("stock not applied: %+v", captured.Stock)
	}
}

func TestUpdateProductInvalidPrice(t *testing.T) {
	r := productsRouter(&fakeProductStore{})

	w := doJSON(r, http.MethodPut, "/api/products/5", `{"price": 0}`)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, want 422, body=%s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)

	if body["message"] != "Price must be greater than 0." {
		t.Errorf("message = %v", body["message"])
	}
}

func TestGetProduct(t *testing.T) {
	desc := "mechanical"
	now := time.Now().UTC()

	repo := &fakeProductStore{
		getFn: func(ctx context.Context, id int64) (product.Product, error) {
			if id == 1 {
				return product.Product{ID: 1, Name: "Keyboard", Description: &desc, Price: 49.99, Stock: 12, CreatedAt: now, UpdatedAt: now}, nil
			}

			return product.Product{}, product.ErrNotFound
		},
	}

	r := productsRouter(repo)

	tests := []struct {
		name           string
		path           string
		wantStatusCode int
	}{
		{"found", "/api/products/1", http.StatusOK},
		{"missing", "/api/products/999", http.StatusNotFound},
		{"non_numeric_id", "/api/products/abc", http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, tt.path, "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusNotFound {
				body := decodeBody(t, w)

				if body["message"] != "Product not found" {
					t.Errorf("message = %v", body["message"])
				}
			}
		})
	}
}

func TestDeleteProduct(t *testing.T) {
	repo := &fakeProductStore{
		deleteFn: func(ctx context.Context, id int64) error {
			if id == 1 {
				return nil
			}

			return product.ErrNotFound
		},
	}

	r := productsRouter(repo)

	w := doJSON(r, http.MethodDelete, "/api/products/1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)

	if body["message"] != "Product deleted successfully" {
		t.Errorf("message = %v", body["message"])
	}

	w = doJSON(r, http.MethodDelete, "/api/products/2", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404, body=%s", w.Code, w.Body.String())
	}
}

func TestListProductsPagination(t *testing.T) {
	makeItems := func(n int) []product.Product {
		items := make([]product.Product, n)

		for i := range items {
			items[i] = product.Product{ID: int64(i + 1), Name: fmt.Sprintf("P%d", i+1), Price: 1.50}
		}

		return items
	}

	tests := []struct {
		name         string
		path         string
		items        int
		total        int
		wantPage     int
		wantLastPage int
	}{
		{"first_page_full", "/api/products", 10, 25, 1, 3},
		{"explicit_page", "/api/products?page=3", 5, 25, 3, 3},
		{"empty_table", "/api/products", 0, 0, 1, 1},
		{"bad_page_falls_back", "/api/products?page=zero", 10, 25, 1, 3},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeProductStore{
				listFn: func(ctx context.Context, page int) ([]product.Product, int, error) {
					if page != tt.wantPage {
						t.Errorf("repo called with page %d, want %d", page, tt.wantPage)
					}

					return makeItems(tt.items), tt.total, nil
				},
			}

			r := productsRouter(repo)

			w := doJSON(r, http.MethodGet, tt.path, "")

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
			}

			body := decodeBody(t, w)

			data, ok := body["data"].([]any)
			if !ok {
				t.Fatalf("expected data array, body=%s", w.Body.String())
			}

			if len(data) != tt.items {
				t.Errorf("len(data) = %d, want %d", len(data), tt.items)
			}

			pg, ok := body["pagination"].(map[string]any)
			if !ok {
				t.Fatalf("expected pagination, body=%s", w.Body.String())
			}

			if pg["per_page"] != float64(10) {
				t.Errorf("per_page = %v, want 10", pg["per_page"])
			}

			if pg["current_page"] != float64(tt.wantPage) {
				t.Errorf("current_page = %v, want %d", pg["current_page"], tt.wantPage)
			}

			if pg["total"] != float64(tt.total) {
				t.Errorf("total = %v, want %d", pg["total"], tt.total)
			}

			if pg["last_page"] != float64(tt.wantLastPage) {
				t.Errorf("last_page = %v, want %d", pg["last_page"], tt.wantLastPage)
			}
		})
	}
}
