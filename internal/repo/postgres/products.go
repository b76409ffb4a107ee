package postgres

import (
	"context"
	"errors"

	"github.com/quintalabs/storefront/internal/domain/product"
	"github.com/quintalabs/storefront/internal/observability"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductsRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewProductsRepo(pool *pgxpool.Pool, metrics *observability.Prom) *ProductsRepo {
	return &ProductsRepo{pool: pool, metrics: metrics}
}

func (r *ProductsRepo) Create(ctx context.Context, req product.CreateProductRequest) (product.Product, error) {
	var p product.Product

	err := r.metrics.ObserveDB("products.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO products (name, description, price, stock)
			VALUES ($1, $2, $3, $4)
			RETURNING id, name, description, price, stock, created_at, updated_at`,
			req.Name, req.Description, *req.Price, *req.Stock,
		).Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
		)
	})

	if err != nil {
		return product.Product{}, err
	}

	return p, nil
}

// List returns one fixed-size page ordered by id, plus the total row
// count computed in the same query.
func (r *ProductsRepo) List(ctx context.Context, page int) ([]product.Product, int, error) {
	if page < 1 {
		page = 1
	}

	offset := (page - 1) * product.PerPage

	var (
		output []product.Product
		total  int
	)

	err := r.metrics.ObserveDB("products.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, description, price, stock, created_at, updated_at,
				COUNT(*) OVER() AS total
			FROM products
			ORDER BY id ASC
			LIMIT $1 OFFSET $2`,
			product.PerPage, offset,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		output = make([]product.Product, 0, product.PerPage)

		for rows.Next() {
			var p product.Product
			var t int

			err = rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt, &t)

			if err != nil {
				return err
			}

			total = t
			output = append(output, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	// an out-of-range page returns no rows, so recover the count separately
	if len(output) == 0 {
		err = r.metrics.ObserveDB("products.count", func() error {
			return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total)
		})

		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id int64) (product.Product, error) {
	var p product.Product

	err := r.metrics.ObserveDB("products.get", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, description, price, stock, created_at, updated_at
			FROM products
			WHERE id = $1`,
			id,
		).Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}

		return product.Product{}, err
	}

	return p, nil
}

// Update applies only the fields present in the request; COALESCE keeps
// the stored value for nil ones.
func (r *ProductsRepo) Update(ctx context.Context, id int64, req product.UpdateProductRequest) (product.Product, error) {
	var p product.Product

	err := r.metrics.ObserveDB("products.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE products
			SET name        = COALESCE($2, name),
				description = COALESCE($3, description),
				price       = COALESCE($4, price),
				stock       = COALESCE($5, stock),
				updated_at  = NOW()
			WHERE id = $1
			RETURNING id, name, description, price, stock, created_at, updated_at`,
			id, req.Name, req.Description, req.Price, req.Stock,
		).Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}

		return product.Product{}, err
	}

	return p, nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag

	err := r.metrics.ObserveDB("products.delete", func() error {
		t, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		tag = t
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}

	return nil
}
