package bininfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	defer func(v string) { Version = v }(Version)

	Version = "v1.4.2+3f2a1bc"
	info := Get()
	assert.True(t, info.Valid)
	assert.Equal(t, "v1.4.2", info.Canonical)

	Version = "dev"
	info = Get()
	assert.False(t, info.Valid)
	assert.Empty(t, info.Canonical)
}
