package principal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const definition = `
id: zg
name: Kanton Zug
domain: canton
entities:
  2023:
    1701:
      name: Baar
      district: Baar
    1702:
      name: Cham
      district: Cham
      region: Ennetsee
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(definition))
	require.NoError(t, err)

	assert.Equal(t, "zg", p.ID)
	assert.False(t, p.IsMunicipality())
	assert.Len(t, p.EntitiesFor(2023), 2)
	assert.Equal(t, "Ennetsee", p.EntitiesFor(2023)[1702].Region)
	assert.NotNil(t, p.EntitiesFor(1999))
	assert.Empty(t, p.EntitiesFor(1999))
}

func TestParseInvalidDomain(t *testing.T) {
	_, err := Parse([]byte("id: x\ndomain: federation\n"))
	assert.ErrorIs(t, err, ErrInvalidDomain)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "principal.yml")
	require.NoError(t, os.WriteFile(path, []byte(definition), 0o644))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Kanton Zug", p.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
