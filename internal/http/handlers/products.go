package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/quintalabs/storefront/internal/cache"
	"github.com/quintalabs/storefront/internal/config"
	"github.com/quintalabs/storefront/internal/domain/product"

	"github.com/gin-gonic/gin"
)

type ProductStore interface {
	Create(ctx context.Context, req product.CreateProductRequest) (product.Product, error)
	List(ctx context.Context, page int) ([]product.Product, int, error)
	GetByID(ctx context.Context, id int64) (product.Product, error)
	Update(ctx context.Context, id int64, req product.UpdateProductRequest) (product.Product, error)
	Delete(ctx context.Context, id int64) error
}

type ProductsHandler struct {
	repo  ProductStore
	cache *cache.ProductCache
	log   *slog.Logger
}

func NewProductsHandler(repo ProductStore, pc *cache.ProductCache, log *slog.Logger) *ProductsHandler {
	return &ProductsHandler{
		repo:  repo,
		cache: pc,
		log:   log,
	}
}

func (h *ProductsHandler) List(ctx *gin.Context) {
	page := pageParam(ctx)

	if payload, ok := h.cache.GetPage(ctx.Request.Context(), page); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	items, total, err := h.repo.List(cctx, page)

	if err != nil {
		h.log.Error("list products", "err", err)
		RespondInternal(ctx, "Failed to fetch products")
		return
	}

	body := gin.H{
		"status": "success",
		"data":   items,
		"pagination": gin.H{
			"current_page": page,
			"total":        total,
			"per_page":     product.PerPage,
			"last_page":    lastPage(total),
		},
	}

	payload, err := json.Marshal(body)

	if err != nil {
		h.log.Error("marshal product page", "err", err)
		RespondInternal(ctx, "Failed to fetch products")
		return
	}

	h.cache.SetPage(ctx.Request.Context(), page, payload)

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

func (h *ProductsHandler) Get(ctx *gin.Context) {
	id, ok := idParam(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	p, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}

		h.log.Error("get product", "err", err, "id", id)
		RespondInternal(ctx, "Failed to fetch product")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"data": p})
}

func (h *ProductsHandler) Create(ctx *gin.Context) {
	var req product.CreateProductRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	p, err := h.repo.Create(cctx, req)

	if err != nil {
		h.log.Error("create product", "err", err)
		RespondInternal(ctx, "Failed to create product")
		return
	}

	h.cache.Invalidate(ctx.Request.Context())

	RespondSuccess(ctx, http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    p,
	})
}

func (h *ProductsHandler) Update(ctx *gin.Context) {
	id, ok := idParam(ctx)

	if !ok {
		return
	}

	var req product.UpdateProductRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	p, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}

		h.log.Error("update product", "err", err, "id", id)
		RespondInternal(ctx, "Failed to update product")
		return
	}

	h.cache.Invalidate(ctx.Request.Context())

	RespondSuccess(ctx, http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"data":    p,
	})
}

func (h *ProductsHandler) Delete(ctx *gin.Context) {
	id, ok := idParam(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}

		h.log.Error("delete product", "err", err, "id", id)
		RespondInternal(ctx, "Failed to delete product")
		return
	}

	h.cache.Invalidate(ctx.Request.Context())

	RespondSuccess(ctx, http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

// idParam parses the :id segment. A non-numeric id cannot match any
// row, so it resolves to 404 before the handler body runs.
func idParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id < 1 {
		RespondNotFound(ctx, "Product not found")
		return 0, false
	}

	return id, true
}

func pageParam(ctx *gin.Context) int {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))

	if err != nil || page < 1 {
		return 1
	}

	return page
}

func lastPage(total int) int {
	last := (total + product.PerPage - 1) / product.PerPage

	if last < 1 {
		return 1
	}

	return last
}
