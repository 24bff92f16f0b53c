package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"
)

// Domains of influence of an election.
const (
	DomainFederation   = "federation"
	DomainCanton       = "canton"
	DomainRegion       = "region"
	DomainDistrict     = "district"
	DomainMunicipality = "municipality"
	DomainNone         = "none"
)

// Election stati.
const (
	StatusUnknown = "unknown"
	StatusInterim = "interim"
	StatusFinal   = "final"
)

type Election struct {
	bun.BaseModel `bun:"elections,alias:e"`

	ID        uuid.UUID   `bun:",pk,type:uuid" json:"id"`
	Title     string      `json:"title"`
	Shortcode null.String `bun:",type:varchar" json:"shortcode"`
	Date      time.Time   `bun:",type:date" json:"date"`

	// Domain is one of the Domain* constants. DomainSegment names the region,
	// district or municipality for the respective domains.
	Domain        string `json:"domain"`
	DomainSegment string `json:"domainSegment"`

	HasExpats        bool        `json:"hasExpats"`
	NumberOfMandates int         `json:"numberOfMandates"`
	Status           null.String `bun:",type:varchar" json:"status"`
	LastResultChange *time.Time  `json:"lastResultChange"`
	CreatedAt        time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

type ElectionResult struct {
	bun.BaseModel `bun:"election_results,alias:er"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ElectionID  uuid.UUID `bun:",type:uuid" json:"electionId"`
	EntityID    int       `json:"entityId"`
	Name        string    `json:"name"`
	District    string    `json:"district"`
	Superregion string    `json:"superregion"`
	Counted     bool      `json:"counted"`

	EligibleVoters  int `json:"eligibleVoters"`
	ReceivedBallots int `json:"receivedBallots"`
	BlankBallots    int `json:"blankBallots"`
	InvalidBallots  int `json:"invalidBallots"`
	BlankVotes      int `json:"blankVotes"`

	ListResults      []*ListResult      `bun:"rel:has-many,join:id=election_result_id" json:"listResults,omitempty"`
	CandidateResults []*CandidateResult `bun:"rel:has-many,join:id=election_result_id" json:"candidateResults,omitempty"`
}

// AccountedBallots are the received ballots minus the blank and invalid ones.
func (r *ElectionResult) AccountedBallots() int {
	return r.ReceivedBallots - r.BlankBallots - r.InvalidBallots
}
