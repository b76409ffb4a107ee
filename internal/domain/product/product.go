package product

import (
	"errors"
	"time"
)

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("product not found")

// PerPage is the fixed page size of the catalog listing.
const PerPage = 10

type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"required,gte=0.01"`
	Stock       *int     `json:"stock" binding:"required,gte=0"`
}

func (CreateProductRequest) Messages() map[string]string {
	return map[string]string{
		"name.required": "Product name is required.",
		"price.gte":     "Price must be greater than 0.",
		"stock.gte":     "Stock cannot be negative.",
	}
}

// Partial update: nil fields are left untouched.
type UpdateProductRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=255"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0.01"`
	Stock       *int     `json:"stock" binding:"omitempty,gte=0"`
}

func (UpdateProductRequest) Messages() map[string]string {
	return map[string]string{
		"price.gte": "Price must be greater than 0.",
		"stock.gte": "Stock cannot be negative.",
	}
}
