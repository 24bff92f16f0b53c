package jetstream

import (
	"strconv"

	"github.com/nats-io/nats.go"
)

// MessageID names a delivered message by its stream sequence, which stays
// the same across redeliveries.
func MessageID(pair nats.SequencePair) string {
	return "seq:" + strconv.FormatUint(pair.Stream, 10)
}
