package archiver

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := &Archiver{S3Prefix: "imports/"}
	assert.Equal(t, "imports/e1/abc/results.gz", a.Key("e1", "abc", "results"))

	a.S3Prefix = ""
	assert.Equal(t, "e1/abc/wp_wahl.gz", a.Key("e1", "abc", "wp_wahl"))
}

func TestCompress(t *testing.T) {
	data := []byte("Einheit_BFS;Kand_Nachname\n3503;Muster\n")
	out, err := compress(data)
	require.NoError(t, err)

	r, err := gzip.NewReader(bytes.NewReader(out))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
