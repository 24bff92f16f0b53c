package plausibility

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"onegov.dev/electionday/internal/pkg/observability"
	"onegov.dev/electionday/internal/tally"
)

var tracer = otel.Tracer("plausibility")

type Verifier interface {
	Name() string
	Verify(ctx context.Context, agg *tally.Aggregate) *Rejection
}

type Rejection struct {
	Message string `json:"message"`
}

type Violation struct {
	Rejection
	Name string `json:"name"`
}

type Chain []Verifier

func NewChain(ballotVerifier *BallotVerifier, mandateVerifier *MandateVerifier, ruleVerifier *RuleVerifier) *Chain {
	return &Chain{
		ballotVerifier,
		mandateVerifier,
		ruleVerifier,
	}
}

// Verify runs the verifiers in order and returns the first violation, or nil
// if the import is plausible.
func (verifiers Chain) Verify(ctx context.Context, agg *tally.Aggregate) *Violation {
	for _, pipe := range verifiers {
		start := time.Now()

		name := pipe.Name()

		ctx, span := tracer.
			Start(ctx, "plausibility.verifier."+name)

		rejection := pipe.Verify(ctx, agg)
		span.End()

		observability.ImportVerifyDuration.
			WithLabelValues(name).
			Observe(time.Since(start).Seconds())

		if rejection != nil {
			return &Violation{
				Name:      name,
				Rejection: *rejection,
			}
		}
	}

	return nil
}
