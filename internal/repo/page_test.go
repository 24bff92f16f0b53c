package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/guregu/null.v3"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/tree"
)

func TestPageNodeConversion(t *testing.T) {
	tests := []struct {
		name string
		page *model.Page
		node *tree.Node
	}{
		{
			name: "root",
			page: &model.Page{PageID: 1, Name: "wahlen", Title: "Wahlen", Order: 65536},
			node: &tree.Node{ID: 1, Name: "wahlen", Title: "Wahlen", Order: 65536},
		},
		{
			name: "child with type",
			page: &model.Page{PageID: 2, ParentID: null.IntFrom(1), Name: "kr-2015", Title: "KR 2015", Type: null.StringFrom("news"), Order: 3},
			node: &tree.Node{ID: 2, ParentID: func() *int64 { v := int64(1); return &v }(), Name: "kr-2015", Title: "KR 2015", Type: "news", Order: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.node, toNode(tt.page))
			assert.Equal(t, tt.page, fromNode(tt.node))
		})
	}
}
