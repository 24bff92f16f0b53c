package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/pkg/cache"
	"onegov.dev/electionday/internal/repo"
	"onegov.dev/electionday/internal/tally"
)

type ElectionSummary struct {
	Election *model.Election `json:"election"`
	tally.Summary
	Connections []tally.ConnectionVotes `json:"connections"`
}

type ListApportionment struct {
	ID       uuid.UUID `json:"id"`
	ListID   string    `json:"listId"`
	Name     string    `json:"name"`
	Votes    int       `json:"votes"`
	Mandates int       `json:"mandates"`
}

type Apportionment struct {
	NumberOfMandates int                 `json:"numberOfMandates"`
	Lists            []ListApportionment `json:"lists"`
}

type Election struct {
	ElectionRepo *repo.Election
	ResultsRepo  *repo.Results

	summaries *cache.Local[*ElectionSummary]
}

func NewElection(conf *appconfig.Config, electionRepo *repo.Election, resultsRepo *repo.Results) *Election {
	return &Election{
		ElectionRepo: electionRepo,
		ResultsRepo:  resultsRepo,
		summaries:    cache.NewLocal[*ElectionSummary](conf.SummaryCacheLifetime),
	}
}

func (s *Election) Get(ctx context.Context, id uuid.UUID) (*model.Election, error) {
	return s.ElectionRepo.GetByID(ctx, id)
}

func (s *Election) List(ctx context.Context) ([]*model.Election, error) {
	return s.ElectionRepo.List(ctx)
}

func (s *Election) Create(ctx context.Context, election *model.Election) error {
	return s.ElectionRepo.Create(ctx, election)
}

func (s *Election) aggregate(ctx context.Context, id uuid.UUID) (*tally.Aggregate, error) {
	election, err := s.ElectionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ResultsRepo.Load(ctx, election)
}

// Cache: summary#electionId, SummaryCacheLifetime, invalidated by imports
func (s *Election) Summary(ctx context.Context, id uuid.UUID) (*ElectionSummary, error) {
	return s.summaries.MutexGetSet(id.String(), func() (*ElectionSummary, error) {
		agg, err := s.aggregate(ctx, id)
		if err != nil {
			return nil, err
		}
		return &ElectionSummary{
			Election:    agg.Election,
			Summary:     tally.Summarize(agg),
			Connections: lo.Ternary(len(agg.Connections) > 0, tally.ListConnectionVotes(agg), []tally.ConnectionVotes{}),
		}, nil
	})
}

func (s *Election) InvalidateSummary(id uuid.UUID) {
	s.summaries.Delete(id.String())
}

func (s *Election) Apportionment(ctx context.Context, id uuid.UUID) (*Apportionment, error) {
	agg, err := s.aggregate(ctx, id)
	if err != nil {
		return nil, err
	}

	mandates := tally.Apportion(agg, agg.Election.NumberOfMandates)
	votes := tally.ListVotes(agg)
	return &Apportionment{
		NumberOfMandates: agg.Election.NumberOfMandates,
		Lists: lo.Map(agg.Lists, func(l *model.List, _ int) ListApportionment {
			return ListApportionment{
				ID:       l.ID,
				ListID:   l.ListID,
				Name:     l.Name,
				Votes:    votes[l.ID],
				Mandates: mandates[l.ID],
			}
		}),
	}, nil
}
