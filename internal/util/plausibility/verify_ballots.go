package plausibility

import (
	"context"
	"fmt"

	"onegov.dev/electionday/internal/tally"
)

type BallotVerifier struct{}

// ensure BallotVerifier conforms to Verifier
var _ Verifier = (*BallotVerifier)(nil)

func NewBallotVerifier() *BallotVerifier {
	return &BallotVerifier{}
}

func (d *BallotVerifier) Name() string {
	return "ballots"
}

func (d *BallotVerifier) Verify(ctx context.Context, agg *tally.Aggregate) *Rejection {
	for _, r := range agg.Results {
		if r.AccountedBallots() < 0 {
			return &Rejection{
				Message: fmt.Sprintf("%d: more blank and invalid ballots than received ballots", r.EntityID),
			}
		}
	}
	return nil
}
