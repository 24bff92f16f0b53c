package repo

import (
	"context"

	"github.com/uptrace/bun"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/repo/selector"
)

const PlausibilityRuleActiveStatus = "active"

type PlausibilityRule struct {
	db  *bun.DB
	sel selector.S[model.PlausibilityRule]
}

func NewPlausibilityRule(db *bun.DB) *PlausibilityRule {
	return &PlausibilityRule{db: db, sel: selector.New[model.PlausibilityRule](db)}
}

func (r *PlausibilityRule) GetActive(ctx context.Context) ([]*model.PlausibilityRule, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("status = ?", PlausibilityRuleActiveStatus).
			Order("rule_id ASC")
	})
}
