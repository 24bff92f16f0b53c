package repo

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"gopkg.in/guregu/null.v3"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/tree"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Page stores the content tree in the pages table.
type Page struct {
	DB *bun.DB
}

var _ tree.Store = (*Page)(nil)

func NewPage(db *bun.DB) *Page {
	return &Page{DB: db}
}

func toNode(p *model.Page) *tree.Node {
	n := &tree.Node{
		ID:    p.PageID,
		Name:  p.Name,
		Title: p.Title,
		Type:  p.Type.String,
		Order: p.Order,
	}
	if p.ParentID.Valid {
		parent := p.ParentID.Int64
		n.ParentID = &parent
	}
	return n
}

func fromNode(n *tree.Node) *model.Page {
	return &model.Page{
		PageID:   n.ID,
		ParentID: null.IntFromPtr(n.ParentID),
		Name:     n.Name,
		Title:    n.Title,
		Type:     null.NewString(n.Type, n.Type != ""),
		Order:    n.Order,
	}
}

func whereParent(q *bun.SelectQuery, parentID *int64) *bun.SelectQuery {
	if parentID == nil {
		return q.Where("p.parent_id IS NULL")
	}
	return q.Where("p.parent_id = ?", *parentID)
}

func mapPgError(err error) error {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Field('C') {
	case pgUniqueViolation:
		return tree.ErrDuplicateName
	case pgForeignKeyViolation:
		return errors.Wrap(tree.ErrNotFound, pgErr.Field('M'))
	}
	return err
}

func (r *Page) Get(ctx context.Context, id int64) (*tree.Node, error) {
	var page model.Page
	err := r.DB.NewSelect().
		Model(&page).
		Where("p.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tree.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return toNode(&page), nil
}

func (r *Page) Children(ctx context.Context, parentID *int64) ([]*tree.Node, error) {
	var pages []*model.Page
	q := r.DB.NewSelect().Model(&pages)
	err := whereParent(q, parentID).
		Order("p.order ASC", "p.id ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	nodes := make([]*tree.Node, len(pages))
	for i, p := range pages {
		nodes[i] = toNode(p)
	}
	return nodes, nil
}

func (r *Page) ChildByName(ctx context.Context, parentID *int64, name string) (*tree.Node, error) {
	var page model.Page
	q := r.DB.NewSelect().Model(&page)
	err := whereParent(q, parentID).
		Where("p.name = ?", name).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tree.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return toNode(&page), nil
}

func (r *Page) Insert(ctx context.Context, node *tree.Node) error {
	page := fromNode(node)
	_, err := r.DB.NewInsert().
		Model(page).
		ExcludeColumn("id").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return mapPgError(err)
	}
	node.ID = page.PageID
	return nil
}

func (r *Page) Update(ctx context.Context, node *tree.Node) error {
	res, err := r.DB.NewUpdate().
		Model(fromNode(node)).
		Column("name", "title", "type").
		WherePK().
		Exec(ctx)
	if err != nil {
		return mapPgError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tree.ErrNotFound
	}
	return nil
}

func (r *Page) UpdateOrders(ctx context.Context, nodes []*tree.Node) error {
	return r.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, node := range nodes {
			_, err := tx.NewUpdate().
				Model((*model.Page)(nil)).
				Set(`"order" = ?`, node.Order).
				Where("id = ?", node.ID).
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Page) DeleteSubtree(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM pages WHERE id = ?
			UNION ALL
			SELECT p.id FROM pages AS p JOIN subtree ON p.parent_id = subtree.id
		)
		DELETE FROM pages WHERE id IN (SELECT id FROM subtree)`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tree.ErrNotFound
	}
	return nil
}
