package importcmd

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"onegov.dev/electionday/internal/importer"
	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/service"
)

func TestMimetypeOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"results.csv", "text/csv"},
		{"RESULTS.CSV", "text/csv"},
		{"export.txt", "text/plain"},
		{"export.xls", "application/vnd.ms-excel"},
		{"export.xlsx", mimetypeXLSX},
		{"export", mimetypeXLSX},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mimetypeOf(tt.path), tt.path)
	}
}

func TestFlagName(t *testing.T) {
	assert.Equal(t, "wp-static-gemeinden", flagName(service.WabstiCFieldStaticGemeinden))
	assert.Equal(t, "results", flagName(service.WabstiFieldResults))
}

func newContext(t *testing.T, flags []cli.Flag, args ...string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))

	var stderr bytes.Buffer
	app := &cli.App{Writer: &bytes.Buffer{}, ErrWriter: &stderr}
	return cli.NewContext(app, set, nil), &stderr
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "results.csv")
	require.NoError(t, os.WriteFile(results, []byte("Einheit_BFS\n1701\n"), 0o644))

	c, _ := newContext(t, fileFlags(service.WabstiFields), "--results", results)
	files, err := readFiles(c, service.WabstiFields)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "text/csv", files[service.WabstiFieldResults].Mimetype)
	assert.Equal(t, "Einheit_BFS\n1701\n", string(files[service.WabstiFieldResults].Data))

	c, _ = newContext(t, fileFlags(service.WabstiFields), "--elected", filepath.Join(dir, "missing.csv"))
	_, err = readFiles(c, service.WabstiFields)
	assert.Error(t, err)
}

func TestRejected(t *testing.T) {
	c, stderr := newContext(t, nil)

	errs := []importer.FileImportError{{Filename: "results", Line: 2, Message: "Invalid integer"}}
	err := rejected(c, apperr.ErrImportRejected.WithExtras(apperr.Extras{"errors": errs}))
	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
	assert.Contains(t, stderr.String(), "Invalid integer")

	other := apperr.ErrNotFound
	assert.Equal(t, error(other), rejected(c, other))
}

func TestElectionID(t *testing.T) {
	c, _ := newContext(t, electionFlags())
	_, stored, err := electionID(c)
	require.NoError(t, err)
	assert.False(t, stored)

	c, _ = newContext(t, electionFlags(), "--election-id", "not-a-uuid")
	_, _, err = electionID(c)
	assert.Error(t, err)

	c, _ = newContext(t, electionFlags(), "--election-id", "5f0fb5bd-4bb1-4fbb-a0ad-0ae0b2a9c1f4", "--mandates", "12", "--date", "2015-10-18")
	id, stored, err := electionID(c)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, "5f0fb5bd-4bb1-4fbb-a0ad-0ae0b2a9c1f4", id.String())

	election := localElection(c)
	assert.Equal(t, 12, election.NumberOfMandates)
	assert.Equal(t, "2015-10-18", election.Date.Format("2006-01-02"))
}
