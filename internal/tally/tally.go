// Package tally aggregates the results of an election.
package tally

import (
	"sort"

	"github.com/ahmetb/go-linq/v3"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"onegov.dev/electionday/internal/importer"
	"onegov.dev/electionday/internal/model"
)

// Aggregate is an election with everything belonging to it.
type Aggregate struct {
	Election    *model.Election
	Connections []*model.ListConnection
	Lists       []*model.List
	Candidates  []*model.Candidate
	Results     []*model.ElectionResult
}

// FromImported builds the aggregate an import would produce once stored.
func FromImported(election *model.Election, imported *importer.ImportedElection) *Aggregate {
	return &Aggregate{
		Election:    election,
		Connections: imported.Connections,
		Lists:       imported.Lists,
		Candidates:  imported.Candidates,
		Results:     imported.Results,
	}
}

type Progress struct {
	Counted int `json:"counted"`
	Total   int `json:"total"`
}

type Summary struct {
	Counted           bool     `json:"counted"`
	Progress          Progress `json:"progress"`
	EligibleVoters    int      `json:"eligibleVoters"`
	ReceivedBallots   int      `json:"receivedBallots"`
	AccountedBallots  int      `json:"accountedBallots"`
	AccountedVotes    int      `json:"accountedVotes"`
	BlankBallots      int      `json:"blankBallots"`
	InvalidBallots    int      `json:"invalidBallots"`
	Turnout           float64  `json:"turnout"`
	AllocatedMandates int      `json:"allocatedMandates"`
	ElectedCandidates int      `json:"electedCandidates"`
}

// Summarize sums up the counted results.
func Summarize(a *Aggregate) Summary {
	var s Summary
	s.Progress.Total = len(a.Results)

	for _, r := range a.Results {
		if !r.Counted {
			continue
		}
		s.Progress.Counted++
		s.EligibleVoters += r.EligibleVoters
		s.ReceivedBallots += r.ReceivedBallots
		s.BlankBallots += r.BlankBallots
		s.InvalidBallots += r.InvalidBallots
		s.AccountedBallots += r.AccountedBallots()
		s.AccountedVotes += accountedVotes(r)
	}
	s.Counted = s.Progress.Total > 0 && s.Progress.Counted == s.Progress.Total
	if s.EligibleVoters > 0 {
		s.Turnout = float64(s.ReceivedBallots) / float64(s.EligibleVoters) * 100
	}
	s.AllocatedMandates = AllocatedMandates(a)
	s.ElectedCandidates = ElectedCandidates(a)
	return s
}

// accountedVotes are the list votes of a result, the candidate votes if
// there are no lists.
func accountedVotes(r *model.ElectionResult) int {
	if len(r.ListResults) > 0 {
		return lo.SumBy(r.ListResults, func(lr *model.ListResult) int { return lr.Votes })
	}
	return lo.SumBy(r.CandidateResults, func(cr *model.CandidateResult) int { return cr.Votes })
}

func AllocatedMandates(a *Aggregate) int {
	return lo.SumBy(a.Lists, func(l *model.List) int { return l.NumberOfMandates })
}

func ElectedCandidates(a *Aggregate) int {
	return lo.CountBy(a.Candidates, func(c *model.Candidate) bool { return c.Elected })
}

// ListVotes returns the votes per list over all results.
func ListVotes(a *Aggregate) map[uuid.UUID]int {
	votes := make(map[uuid.UUID]int, len(a.Lists))
	for _, r := range a.Results {
		for _, lr := range r.ListResults {
			votes[lr.ListID] += lr.Votes
		}
	}
	return votes
}

type ConnectionVotes struct {
	ID             uuid.UUID         `json:"id"`
	ConnectionID   string            `json:"connectionId"`
	Votes          int               `json:"votes"`
	Lists          []string          `json:"lists"`
	Subconnections []ConnectionVotes `json:"subconnections,omitempty"`
}

// ListConnectionVotes returns the top level connections with the votes of
// their own lists and of their subconnections' lists.
func ListConnectionVotes(a *Aggregate) []ConnectionVotes {
	votes := ListVotes(a)
	byConnection := lo.GroupBy(
		lo.Filter(a.Lists, func(l *model.List, _ int) bool { return l.ConnectionID.Valid }),
		func(l *model.List) uuid.UUID { return l.ConnectionID.UUID },
	)

	own := func(c *model.ListConnection) ConnectionVotes {
		cv := ConnectionVotes{ID: c.ID, ConnectionID: c.ConnectionID, Lists: []string{}}
		for _, l := range byConnection[c.ID] {
			cv.Votes += votes[l.ID]
			cv.Lists = append(cv.Lists, l.ListID)
		}
		return cv
	}

	var out []ConnectionVotes
	for _, c := range a.Connections {
		if c.ParentID.Valid {
			continue
		}
		cv := own(c)
		for _, sub := range a.Connections {
			if sub.ParentID.Valid && sub.ParentID.UUID == c.ID {
				sv := own(sub)
				cv.Votes += sv.Votes
				cv.Subconnections = append(cv.Subconnections, sv)
			}
		}
		out = append(out, cv)
	}
	return out
}

type EntityVotes struct {
	EntityID int    `json:"entityId"`
	Name     string `json:"name"`
	District string `json:"district"`
	Counted  bool   `json:"counted"`
	Votes    int    `json:"votes"`
}

// VotesByEntity returns the votes of a list per entity, ordered by name.
func VotesByEntity(a *Aggregate, listID uuid.UUID) []EntityVotes {
	out := make([]EntityVotes, 0, len(a.Results))
	for _, r := range a.Results {
		ev := EntityVotes{EntityID: r.EntityID, Name: r.Name, District: r.District, Counted: r.Counted}
		for _, lr := range r.ListResults {
			if lr.ListID == listID {
				ev.Votes += lr.Votes
			}
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type DistrictVotes struct {
	Name     string `json:"name"`
	Entities []int  `json:"entities"`
	Counted  bool   `json:"counted"`
	Votes    int    `json:"votes"`
}

// VotesByDistrict groups VotesByEntity by district. A district is counted
// once all of its entities are.
func VotesByDistrict(a *Aggregate, listID uuid.UUID) []DistrictVotes {
	out := []DistrictVotes{}
	linq.From(VotesByEntity(a, listID)).
		GroupByT(
			func(ev EntityVotes) string { return ev.District },
			func(ev EntityVotes) EntityVotes { return ev },
		).
		SelectT(func(g linq.Group) DistrictVotes {
			d := DistrictVotes{Name: g.Key.(string), Counted: true}
			for _, el := range g.Group {
				ev := el.(EntityVotes)
				d.Entities = append(d.Entities, ev.EntityID)
				d.Counted = d.Counted && ev.Counted
				d.Votes += ev.Votes
			}
			return d
		}).
		OrderByT(func(d DistrictVotes) string { return d.Name }).
		ToSlice(&out)
	return out
}
