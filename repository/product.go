package repository

import (
	"context"

	"github.com/fastygo/liveassist/domain"
)

// ProductRepository looks products up within one owner's catalogue.
// GetByID returns domain.ErrProductNotFound for unknown or foreign ids.
type ProductRepository interface {
	GetByID(ctx context.Context, ownerID, id int64) (*domain.Product, error)
}
