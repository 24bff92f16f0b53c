package model

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Candidate struct {
	bun.BaseModel `bun:"candidates,alias:c"`

	ID          uuid.UUID     `bun:",pk,type:uuid" json:"id"`
	ElectionID  uuid.UUID     `bun:",type:uuid" json:"electionId"`
	CandidateID string        `json:"candidateId"`
	FamilyName  string        `json:"familyName"`
	FirstName   string        `json:"firstName"`
	Elected     bool          `json:"elected"`
	ListID      uuid.NullUUID `bun:",type:uuid" json:"listId"`
}

type CandidateResult struct {
	bun.BaseModel `bun:"candidate_results,alias:cr"`

	ID               uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ElectionResultID uuid.UUID `bun:",type:uuid" json:"electionResultId"`
	CandidateID      uuid.UUID `bun:",type:uuid" json:"candidateId"`
	Votes            int       `json:"votes"`
}
