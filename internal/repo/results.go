package repo

import (
	"context"

	"github.com/uptrace/bun"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/tally"
)

// Results loads stored results for tallying.
type Results struct {
	DB *bun.DB
}

func NewResults(db *bun.DB) *Results {
	return &Results{DB: db}
}

func (r *Results) Load(ctx context.Context, election *model.Election) (*tally.Aggregate, error) {
	agg := &tally.Aggregate{
		Election:    election,
		Connections: make([]*model.ListConnection, 0),
		Lists:       make([]*model.List, 0),
		Candidates:  make([]*model.Candidate, 0),
		Results:     make([]*model.ElectionResult, 0),
	}

	err := r.DB.NewSelect().
		Model(&agg.Connections).
		Where("lc.election_id = ?", election.ID).
		OrderExpr("lc.parent_id IS NOT NULL, lc.connection_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	err = r.DB.NewSelect().
		Model(&agg.Lists).
		Relation("PanachageResults").
		Where("l.election_id = ?", election.ID).
		Order("l.list_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	err = r.DB.NewSelect().
		Model(&agg.Candidates).
		Where("c.election_id = ?", election.ID).
		Order("c.candidate_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	err = r.DB.NewSelect().
		Model(&agg.Results).
		Relation("ListResults").
		Relation("CandidateResults").
		Where("er.election_id = ?", election.ID).
		Order("er.entity_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return agg, nil
}
