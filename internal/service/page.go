package service

import (
	"context"

	"github.com/pkg/errors"

	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/tree"
)

type Page struct {
	Tree *tree.Collection
}

func NewPage(store tree.Store) *Page {
	return &Page{Tree: tree.New(store)}
}

// pageError maps tree errors to their HTTP counterparts.
func pageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tree.ErrNotFound):
		return apperr.ErrNotFound.Msg("page not found")
	case errors.Is(err, tree.ErrDuplicateName):
		return apperr.ErrConflict.Msg("a page with this name already exists")
	case errors.Is(err, tree.ErrNameNotNormalized),
		errors.Is(err, tree.ErrMoveToSelf),
		errors.Is(err, tree.ErrDifferentParents):
		return apperr.ErrInvalidReq.Msg("%s", err.Error())
	}
	return err
}

func (s *Page) Roots(ctx context.Context) ([]*tree.Node, error) {
	nodes, err := s.Tree.Roots(ctx)
	return nodes, pageError(err)
}

func (s *Page) Get(ctx context.Context, id int64) (*tree.Node, error) {
	node, err := s.Tree.ByID(ctx, id)
	return node, pageError(err)
}

func (s *Page) Children(ctx context.Context, id int64) ([]*tree.Node, error) {
	node, err := s.Tree.ByID(ctx, id)
	if err != nil {
		return nil, pageError(err)
	}
	nodes, err := s.Tree.Children(ctx, node)
	return nodes, pageError(err)
}

func (s *Page) ByPath(ctx context.Context, path string) (*tree.Node, error) {
	node, err := s.Tree.ByPath(ctx, path, "")
	return node, pageError(err)
}

func (s *Page) Path(ctx context.Context, node *tree.Node) (string, error) {
	path, err := s.Tree.Path(ctx, node)
	return path, pageError(err)
}

// Add adds a page below the page parentID, or a root page if parentID is nil.
func (s *Page) Add(ctx context.Context, parentID *int64, title string, opts tree.AddOptions) (*tree.Node, error) {
	var parent *tree.Node
	if parentID != nil {
		var err error
		if parent, err = s.Tree.ByID(ctx, *parentID); err != nil {
			return nil, pageError(err)
		}
	}
	node, err := s.Tree.Add(ctx, parent, title, opts)
	return node, pageError(err)
}

func (s *Page) Move(ctx context.Context, id, targetID int64, direction tree.Direction) error {
	subject, err := s.Tree.ByID(ctx, id)
	if err != nil {
		return pageError(err)
	}
	target, err := s.Tree.ByID(ctx, targetID)
	if err != nil {
		return pageError(err)
	}
	return pageError(s.Tree.Move(ctx, subject, target, direction))
}

func (s *Page) Rename(ctx context.Context, id int64, title string) (*tree.Node, error) {
	node, err := s.Tree.ByID(ctx, id)
	if err != nil {
		return nil, pageError(err)
	}
	if err := s.Tree.Rename(ctx, node, title); err != nil {
		return nil, pageError(err)
	}
	return node, nil
}

func (s *Page) Delete(ctx context.Context, id int64) error {
	node, err := s.Tree.ByID(ctx, id)
	if err != nil {
		return pageError(err)
	}
	return pageError(s.Tree.Delete(ctx, node))
}
