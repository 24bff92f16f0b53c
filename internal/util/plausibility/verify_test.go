package plausibility

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/tally"
)

type staticRules struct {
	rules []*model.PlausibilityRule
	err   error
}

func (s staticRules) GetActive(context.Context) ([]*model.PlausibilityRule, error) {
	return s.rules, s.err
}

func aggregate() *tally.Aggregate {
	list := &model.List{ID: uuid.New(), ListID: "01", NumberOfMandates: 2}
	return &tally.Aggregate{
		Election: &model.Election{ID: uuid.New(), NumberOfMandates: 3},
		Lists:    []*model.List{list},
		Results: []*model.ElectionResult{
			{
				EntityID: 1701, Counted: true,
				EligibleVoters: 100, ReceivedBallots: 60, BlankBallots: 5, InvalidBallots: 5,
				ListResults: []*model.ListResult{{ListID: list.ID, Votes: 120}},
			},
		},
	}
}

func chain(rules RuleSource) Chain {
	return *NewChain(NewBallotVerifier(), NewMandateVerifier(), NewRuleVerifier(rules))
}

func TestChainPasses(t *testing.T) {
	c := chain(staticRules{rules: []*model.PlausibilityRule{
		{RuleID: 1, Expr: "Summary.Turnout > 100", Message: "turnout too high"},
	}})
	assert.Nil(t, c.Verify(context.Background(), aggregate()))
}

func TestBallotVerifier(t *testing.T) {
	agg := aggregate()
	agg.Results[0].BlankBallots = 100

	v := chain(staticRules{}).Verify(context.Background(), agg)
	require.NotNil(t, v)
	assert.Equal(t, "ballots", v.Name)
	assert.Contains(t, v.Message, "1701")
}

func TestMandateVerifier(t *testing.T) {
	agg := aggregate()
	agg.Lists[0].NumberOfMandates = 4

	v := chain(staticRules{}).Verify(context.Background(), agg)
	require.NotNil(t, v)
	assert.Equal(t, "mandates", v.Name)
	assert.Equal(t, "4 mandates allocated but only 3 available", v.Message)

	agg.Election.NumberOfMandates = 0
	assert.Nil(t, chain(staticRules{}).Verify(context.Background(), agg))
}

func TestRuleVerifier(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "summary", expr: "Summary.Turnout >= 60", want: true},
		{name: "list votes", expr: `ListVotes("01") > 100`, want: true},
		{name: "unknown list", expr: `ListVotes("02") > 0`, want: false},
		{name: "results", expr: "len(Results) > 1", want: false},
		{name: "not a bool", expr: "1 + 1", want: false},
		{name: "invalid", expr: "Summary.Nope ==", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRuleVerifier(staticRules{rules: []*model.PlausibilityRule{
				{RuleID: 1, Expr: tt.expr, Message: "rejected"},
			}})
			rejection := v.Verify(context.Background(), aggregate())
			if tt.want {
				require.NotNil(t, rejection)
				assert.Equal(t, "rejected", rejection.Message)
			} else {
				assert.Nil(t, rejection)
			}
		})
	}
}

func TestRuleVerifierSourceError(t *testing.T) {
	v := NewRuleVerifier(staticRules{err: errors.New("db down")})
	rejection := v.Verify(context.Background(), aggregate())
	require.NotNil(t, rejection)
	assert.Equal(t, "db down", rejection.Message)
}
