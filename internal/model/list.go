package model

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BlankListID is the list id used by the exchange formats for votes without a
// list.
const BlankListID = "999"

type List struct {
	bun.BaseModel `bun:"lists,alias:l"`

	ID               uuid.UUID     `bun:",pk,type:uuid" json:"id"`
	ElectionID       uuid.UUID     `bun:",type:uuid" json:"electionId"`
	ListID           string        `json:"listId"`
	Name             string        `json:"name"`
	NumberOfMandates int           `json:"numberOfMandates"`
	ConnectionID     uuid.NullUUID `bun:",type:uuid" json:"connectionId"`

	PanachageResults []*ListPanachageResult `bun:"rel:has-many,join:id=target_id" json:"panachageResults,omitempty"`
}

// ListConnection groups lists. A connection may have subconnections, which
// reference it through ParentID.
type ListConnection struct {
	bun.BaseModel `bun:"list_connections,alias:lc"`

	ID           uuid.UUID     `bun:",pk,type:uuid" json:"id"`
	ElectionID   uuid.UUID     `bun:",type:uuid" json:"electionId"`
	ConnectionID string        `json:"connectionId"`
	ParentID     uuid.NullUUID `bun:",type:uuid" json:"parentId"`
}

type ListResult struct {
	bun.BaseModel `bun:"list_results,alias:lr"`

	ID               uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ElectionResultID uuid.UUID `bun:",type:uuid" json:"electionResultId"`
	ListID           uuid.UUID `bun:",type:uuid" json:"listId"`
	Votes            int       `json:"votes"`
}

// ListPanachageResult holds the votes a list received from another one.
// SourceID is null for votes from the blank list.
type ListPanachageResult struct {
	bun.BaseModel `bun:"list_panachage_results,alias:lpr"`

	ID       uuid.UUID     `bun:",pk,type:uuid" json:"id"`
	TargetID uuid.UUID     `bun:",type:uuid" json:"targetId"`
	SourceID uuid.NullUUID `bun:",type:uuid" json:"sourceId"`
	Votes    int           `json:"votes"`
}
