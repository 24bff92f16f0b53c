package repo

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"onegov.dev/electionday/internal/model"
)

type table struct {
	model       any
	foreignKeys []string
}

var tables = []table{
	{model: (*model.Election)(nil)},
	{model: (*model.ListConnection)(nil), foreignKeys: []string{
		`("election_id") REFERENCES "elections" ("id") ON DELETE CASCADE`,
		`("parent_id") REFERENCES "list_connections" ("id") ON DELETE CASCADE`,
	}},
	{model: (*model.List)(nil), foreignKeys: []string{
		`("election_id") REFERENCES "elections" ("id") ON DELETE CASCADE`,
		`("connection_id") REFERENCES "list_connections" ("id")`,
	}},
	{model: (*model.Candidate)(nil), foreignKeys: []string{
		`("election_id") REFERENCES "elections" ("id") ON DELETE CASCADE`,
		`("list_id") REFERENCES "lists" ("id")`,
	}},
	{model: (*model.ElectionResult)(nil), foreignKeys: []string{
		`("election_id") REFERENCES "elections" ("id") ON DELETE CASCADE`,
	}},
	{model: (*model.ListResult)(nil), foreignKeys: []string{
		`("election_result_id") REFERENCES "election_results" ("id") ON DELETE CASCADE`,
		`("list_id") REFERENCES "lists" ("id") ON DELETE CASCADE`,
	}},
	{model: (*model.CandidateResult)(nil), foreignKeys: []string{
		`("election_result_id") REFERENCES "election_results" ("id") ON DELETE CASCADE`,
		`("candidate_id") REFERENCES "candidates" ("id") ON DELETE CASCADE`,
	}},
	{model: (*model.ListPanachageResult)(nil), foreignKeys: []string{
		`("target_id") REFERENCES "lists" ("id") ON DELETE CASCADE`,
		`("source_id") REFERENCES "lists" ("id") ON DELETE CASCADE`,
	}},
	{model: (*model.Page)(nil), foreignKeys: []string{
		`("parent_id") REFERENCES "pages" ("id") ON DELETE CASCADE`,
	}},
	{model: (*model.PlausibilityRule)(nil)},
}

// CreateSchema creates missing tables and indexes. Existing tables are left
// untouched.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, t := range tables {
			q := tx.NewCreateTable().Model(t.model).IfNotExists()
			for _, fk := range t.foreignKeys {
				q = q.ForeignKey(fk)
			}
			if _, err := q.Exec(ctx); err != nil {
				return errors.Wrapf(err, "failed to create table for %T", t.model)
			}
		}

		indexes := []*bun.CreateIndexQuery{
			tx.NewCreateIndex().Model((*model.Page)(nil)).Index("pages_children_name").Unique().IfNotExists().
				Column("parent_id", "name").Where("parent_id IS NOT NULL"),
			tx.NewCreateIndex().Model((*model.Page)(nil)).Index("pages_root_name").Unique().IfNotExists().
				Column("name").Where("parent_id IS NULL"),
			tx.NewCreateIndex().Model((*model.ElectionResult)(nil)).Index("election_results_entity").Unique().IfNotExists().
				Column("election_id", "entity_id"),
		}
		for _, q := range indexes {
			if _, err := q.Exec(ctx); err != nil {
				return errors.Wrap(err, "failed to create index")
			}
		}
		return nil
	})
}
