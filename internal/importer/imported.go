package importer

import (
	"github.com/google/uuid"
	"gopkg.in/guregu/null.v3"

	"onegov.dev/electionday/internal/model"
)

// ImportedElection is the complete result set of a successful import. It
// replaces all results of the election when stored.
type ImportedElection struct {
	ElectionID uuid.UUID

	// Connections are ordered parents first.
	Connections []*model.ListConnection
	Lists       []*model.List
	Candidates  []*model.Candidate
	Results     []*model.ElectionResult

	// Status is only set by formats that know about it.
	Status null.String
}

func newID() uuid.UUID {
	return uuid.New()
}

// ListResults returns the list results of all entities.
func (i *ImportedElection) ListResults() []*model.ListResult {
	var out []*model.ListResult
	for _, r := range i.Results {
		out = append(out, r.ListResults...)
	}
	return out
}

// CandidateResults returns the candidate results of all entities.
func (i *ImportedElection) CandidateResults() []*model.CandidateResult {
	var out []*model.CandidateResult
	for _, r := range i.Results {
		out = append(out, r.CandidateResults...)
	}
	return out
}

// PanachageResults returns the panachage results of all lists.
func (i *ImportedElection) PanachageResults() []*model.ListPanachageResult {
	var out []*model.ListPanachageResult
	for _, l := range i.Lists {
		out = append(out, l.PanachageResults...)
	}
	return out
}

// Counted is the number of counted entities.
func (i *ImportedElection) Counted() int {
	n := 0
	for _, r := range i.Results {
		if r.Counted {
			n++
		}
	}
	return n
}
