package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/repository"
)

type ruleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository returns a Postgres-backed, read-only RuleRepository.
func NewRuleRepository(pool *pgxpool.Pool) repository.RuleRepository {
	return &ruleRepository{pool: pool}
}

func (r *ruleRepository) ListActive(ctx context.Context, ownerID int64) ([]domain.Rule, error) {
	const query = `
	SELECT id, user_id, trigger, action, params_json, active
	FROM rules
	WHERE user_id = $1
	  AND active = TRUE
	ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

func scanRule(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Rule, error) {
	var (
		rule   domain.Rule
		action string
		params []byte
	)
	if err := row.Scan(
		&rule.ID,
		&rule.OwnerID,
		&rule.Trigger,
		&action,
		&params,
		&rule.Active,
	); err != nil {
		return nil, err
	}

	rule.Action = domain.ActionKind(action)
	decoded, err := unmarshalObject(params)
	if err != nil {
		return nil, err
	}
	rule.Params = decoded
	return &rule, nil
}
