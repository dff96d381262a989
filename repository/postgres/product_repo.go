package postgres

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/repository"
)

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a Postgres-backed ProductRepository.
func NewProductRepository(pool *pgxpool.Pool) repository.ProductRepository {
	return &productRepository{pool: pool}
}

func (r *productRepository) GetByID(ctx context.Context, ownerID, id int64) (*domain.Product, error) {
	const query = `
	SELECT id, user_id, title, price, url, image, tags, stock_info
	FROM products
	WHERE id = $1
	  AND user_id = $2
	`
	row := r.pool.QueryRow(ctx, query, id, ownerID)

	var (
		product domain.Product
		tags    []byte
	)
	if err := row.Scan(
		&product.ID,
		&product.OwnerID,
		&product.Title,
		&product.Price,
		&product.URL,
		&product.Image,
		&tags,
		&product.StockInfo,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &product.Tags); err != nil {
			return nil, err
		}
	}
	return &product, nil
}
