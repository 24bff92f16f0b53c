package jetstream

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func TestMessageID(t *testing.T) {
	assert.Equal(t, "seq:42", MessageID(nats.SequencePair{Consumer: 7, Stream: 42}))
}
