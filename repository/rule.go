package repository

import (
	"context"

	"github.com/fastygo/liveassist/domain"
)

// RuleRepository is the read-only view of trigger rules used by the pipeline.
type RuleRepository interface {
	ListActive(ctx context.Context, ownerID int64) ([]domain.Rule, error)
}
