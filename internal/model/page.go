package model

import (
	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"
)

// Page is a node of the content tree. Names are unique among siblings, which
// is enforced by pages_children_name and pages_root_name.
type Page struct {
	bun.BaseModel `bun:"pages,alias:p"`

	PageID   int64       `bun:"id,pk,autoincrement" json:"id"`
	ParentID null.Int    `bun:",type:bigint" json:"parentId"`
	Name     string      `bun:",notnull" json:"name"`
	Title    string      `bun:",notnull" json:"title"`
	Type     null.String `bun:",type:varchar" json:"type"`
	Order    int         `bun:"order,notnull,default:65536" json:"order"`
}
