package selector

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"onegov.dev/electionday/internal/pkg/apperr"
)

type S[T any] struct {
	DB bun.IDB
}

func New[T any](db bun.IDB) S[T] {
	return S[T]{
		DB: db,
	}
}

func (r S[T]) SelectOne(ctx context.Context, fn func(q *bun.SelectQuery) *bun.SelectQuery) (*T, error) {
	var model T
	err := fn(r.DB.NewSelect().Model(&model)).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return &model, nil
}

func (r S[T]) SelectMany(ctx context.Context, fn func(q *bun.SelectQuery) *bun.SelectQuery) ([]*T, error) {
	model := make([]*T, 0)
	err := fn(r.DB.NewSelect().Model(&model)).Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return model, nil
}
