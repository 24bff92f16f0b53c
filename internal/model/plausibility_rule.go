package model

import (
	"time"

	"github.com/uptrace/bun"
)

type PlausibilityRule struct {
	bun.BaseModel `bun:"plausibility_rules,alias:pr"`

	RuleID    int        `bun:",pk,autoincrement" json:"id"`
	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
	Status    string     `bun:"default:'active'" json:"status"`
	// Expr is evaluated against the imported election and must return a
	// bool; true rejects the import with Message.
	Expr    string `bun:"expr" json:"expr"`
	Message string `json:"message"`
}
