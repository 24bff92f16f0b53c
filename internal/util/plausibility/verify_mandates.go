package plausibility

import (
	"context"
	"fmt"

	"onegov.dev/electionday/internal/tally"
)

type MandateVerifier struct{}

// ensure MandateVerifier conforms to Verifier
var _ Verifier = (*MandateVerifier)(nil)

func NewMandateVerifier() *MandateVerifier {
	return &MandateVerifier{}
}

func (d *MandateVerifier) Name() string {
	return "mandates"
}

func (d *MandateVerifier) Verify(ctx context.Context, agg *tally.Aggregate) *Rejection {
	mandates := agg.Election.NumberOfMandates
	if mandates <= 0 {
		return nil
	}
	if allocated := tally.AllocatedMandates(agg); allocated > mandates {
		return &Rejection{
			Message: fmt.Sprintf("%d mandates allocated but only %d available", allocated, mandates),
		}
	}
	return nil
}
