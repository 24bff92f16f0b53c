package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeForURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Über uns", "ueber-uns"},
		{"Bärenstraße", "baerenstrasse"},
		{"Öffnungszeiten (neu)", "oeffnungszeiten-neu"},
		{"  --a...b--  ", "a-b"},
		{"Élection générale", "election-generale"},
		{"a/b\\c", "a-b-c"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeForURL(tt.in))
		})
	}
}

func TestIncrementName(t *testing.T) {
	assert.Equal(t, "foo-1", IncrementName("foo"))
	assert.Equal(t, "foo-2", IncrementName("foo-1"))
	assert.Equal(t, "foo-10", IncrementName("foo-9"))
	assert.Equal(t, "foo-bar-1", IncrementName("foo-bar"))
	assert.Equal(t, "2021-2", IncrementName("2021-1"))
}

func TestTransliterate(t *testing.T) {
	assert.Equal(t, "Zurich", Transliterate("Zürich"))
	assert.Equal(t, "Neuchatel", Transliterate("Neuchâtel"))
	assert.Equal(t, "strasse", Transliterate("straße"))
}

func TestIsSorted(t *testing.T) {
	id := func(s string) string { return s }

	assert.True(t, IsSorted([]string{}, id))
	assert.True(t, IsSorted([]string{"a", "b", "b", "c"}, id))
	assert.False(t, IsSorted([]string{"b", "a"}, id))
}
