package rules

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/repository"
)

// Evaluator previews which actions a text would trigger for a scope.
// It reads rules only; nothing is persisted or dispatched.
type Evaluator struct {
	rules  repository.RuleRepository
	logger *zap.Logger
}

func NewEvaluator(rules repository.RuleRepository, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{rules: rules, logger: logger}
}

func (e *Evaluator) Evaluate(ctx context.Context, scope domain.Scope, text string) ([]domain.ActionSpec, error) {
	if text == "" {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "text is required", nil)
	}
	active, err := e.rules.ListActive(ctx, scope.OwnerID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to load rules", err)
	}
	actions := Match(text, active)
	e.logger.Debug("rules evaluated",
		zap.Int64("owner_id", scope.OwnerID),
		zap.Int("rules", len(active)),
		zap.Int("actions", len(actions)))
	return actions, nil
}
