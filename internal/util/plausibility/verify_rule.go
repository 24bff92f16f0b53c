package plausibility

import (
	"context"
	"time"

	"github.com/antonmedv/expr"
	"github.com/rs/zerolog/log"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/tally"
)

// RuleSource provides the rules to evaluate. It is implemented by
// repo.PlausibilityRule.
type RuleSource interface {
	GetActive(ctx context.Context) ([]*model.PlausibilityRule, error)
}

type RuleVerifier struct {
	Rules RuleSource
}

// ensure RuleVerifier conforms to Verifier
var _ Verifier = (*RuleVerifier)(nil)

func NewRuleVerifier(rules RuleSource) *RuleVerifier {
	return &RuleVerifier{
		Rules: rules,
	}
}

func (d *RuleVerifier) Name() string {
	return "rule"
}

// RuleContext is the environment plausibility rule expressions are
// evaluated in, e.g. `Summary.Turnout > 100` or `ListVotes("99") > 0`.
type RuleContext struct {
	Election *model.Election
	Summary  tally.Summary
	Results  []*model.ElectionResult
	Lists    []*model.List

	votes map[string]int
}

// ListVotes returns the total votes of the list with the given list id.
func (c RuleContext) ListVotes(listID string) int {
	return c.votes[listID]
}

func newRuleContext(agg *tally.Aggregate) RuleContext {
	byID := tally.ListVotes(agg)
	votes := make(map[string]int, len(agg.Lists))
	for _, l := range agg.Lists {
		votes[l.ListID] = byID[l.ID]
	}
	return RuleContext{
		Election: agg.Election,
		Summary:  tally.Summarize(agg),
		Results:  agg.Results,
		Lists:    agg.Lists,
		votes:    votes,
	}
}

func (d *RuleVerifier) Verify(ctx context.Context, agg *tally.Aggregate) *Rejection {
	rules, err := d.Rules.GetActive(ctx)
	if err != nil {
		return &Rejection{
			Message: err.Error(),
		}
	}

	ruleContext := newRuleContext(agg)

	start := time.Now()
	defer func() {
		if l := log.Trace(); l.Enabled() {
			l.Dur("duration", time.Since(start)).
				Msg("plausibility rule(s) evaluated")
		}
	}()

	for _, rule := range rules {
		result, err := expr.Eval(rule.Expr, ruleContext)
		if err != nil {
			log.Error().
				Str("evt.name", "verifier.rule.expr_eval_error").
				Str("electionId", agg.Election.ID.String()).
				Int("ruleId", rule.RuleID).
				Err(err).
				Msgf("failed to evaluate plausibility rule %d", rule.RuleID)
			continue
		}

		if d.resultHandler(result) {
			log.Warn().
				Str("evt.name", "verifier.rule.rejected").
				Str("electionId", agg.Election.ID.String()).
				Int("rule.rule_id", rule.RuleID).
				Msg("plausibility rule matched, rejecting import")

			return &Rejection{
				Message: rule.Message,
			}
		}
	}

	return nil
}

func (d *RuleVerifier) resultHandler(result any) bool {
	switch r := result.(type) {
	case bool:
		return r
	default:
		log.Error().Msgf("plausibility rule expr result type %T is not supported", result)
		return false
	}
}
