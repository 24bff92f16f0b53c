package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"onegov.dev/electionday/internal/importer"
	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/repo/selector"
)

type Election struct {
	DB  *bun.DB
	sel selector.S[model.Election]
}

func NewElection(db *bun.DB) *Election {
	return &Election{DB: db, sel: selector.New[model.Election](db)}
}

func (r *Election) GetByID(ctx context.Context, id uuid.UUID) (*model.Election, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("e.id = ?", id)
	})
}

func (r *Election) List(ctx context.Context) ([]*model.Election, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("e.date DESC", "e.title ASC")
	})
}

func (r *Election) Create(ctx context.Context, election *model.Election) error {
	if election.ID == uuid.Nil {
		election.ID = uuid.New()
	}
	_, err := r.DB.NewInsert().
		Model(election).
		Returning("*").
		Exec(ctx)
	return err
}

func (r *Election) deleteResults(ctx context.Context, tx bun.Tx, electionID uuid.UUID) error {
	lists := tx.NewSelect().
		Model((*model.List)(nil)).
		Column("id").
		Where("election_id = ?", electionID)
	results := tx.NewSelect().
		Model((*model.ElectionResult)(nil)).
		Column("id").
		Where("election_id = ?", electionID)

	// dependents first
	deletes := []*bun.DeleteQuery{
		tx.NewDelete().Model((*model.ListPanachageResult)(nil)).Where("target_id IN (?)", lists),
		tx.NewDelete().Model((*model.ListResult)(nil)).Where("election_result_id IN (?)", results),
		tx.NewDelete().Model((*model.CandidateResult)(nil)).Where("election_result_id IN (?)", results),
		tx.NewDelete().Model((*model.ElectionResult)(nil)).Where("election_id = ?", electionID),
		tx.NewDelete().Model((*model.Candidate)(nil)).Where("election_id = ?", electionID),
		tx.NewDelete().Model((*model.List)(nil)).Where("election_id = ?", electionID),
		tx.NewDelete().Model((*model.ListConnection)(nil)).Where("election_id = ?", electionID).Where("parent_id IS NOT NULL"),
		tx.NewDelete().Model((*model.ListConnection)(nil)).Where("election_id = ?", electionID),
	}
	for _, q := range deletes {
		if _, err := q.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func insertMany[T any](ctx context.Context, tx bun.Tx, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.NewInsert().Model(&rows).Exec(ctx)
	return err
}

// ReplaceResults replaces everything imported for the election with the
// given result set, then updates the status and the time of the last change.
func (r *Election) ReplaceResults(ctx context.Context, tx bun.Tx, election *model.Election, imported *importer.ImportedElection) error {
	if err := r.deleteResults(ctx, tx, election.ID); err != nil {
		return err
	}

	var parents, subconnections []*model.ListConnection
	for _, c := range imported.Connections {
		if c.ParentID.Valid {
			subconnections = append(subconnections, c)
		} else {
			parents = append(parents, c)
		}
	}

	steps := []func() error{
		func() error { return insertMany(ctx, tx, parents) },
		func() error { return insertMany(ctx, tx, subconnections) },
		func() error { return insertMany(ctx, tx, imported.Lists) },
		func() error { return insertMany(ctx, tx, imported.Candidates) },
		func() error { return insertMany(ctx, tx, imported.Results) },
		func() error { return insertMany(ctx, tx, imported.ListResults()) },
		func() error { return insertMany(ctx, tx, imported.CandidateResults()) },
		func() error { return insertMany(ctx, tx, imported.PanachageResults()) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	now := time.Now()
	election.LastResultChange = &now
	if imported.Status.Valid {
		election.Status = imported.Status
	}
	_, err := tx.NewUpdate().
		Model(election).
		Column("status", "last_result_change").
		WherePK().
		Exec(ctx)
	return err
}
