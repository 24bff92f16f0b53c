package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onegov.dev/electionday/internal/importer"
	"onegov.dev/electionday/internal/pkg/apperr"
)

func upload(data string) *importer.Upload {
	return &importer.Upload{Data: []byte(data), Mimetype: "text/csv"}
}

func TestFingerprint(t *testing.T) {
	files := map[string]*importer.Upload{
		WabstiFieldResults:    upload("a;b\n1;2\n"),
		WabstiFieldStatistics: upload("c\n3\n"),
	}
	params := []string{ImportFormatWabsti, "e1"}

	fp := Fingerprint(params, files)
	assert.Len(t, fp, 32)
	assert.Equal(t, fp, Fingerprint(params, files), "fingerprints are stable")

	withAbsent := map[string]*importer.Upload{
		WabstiFieldResults:     files[WabstiFieldResults],
		WabstiFieldStatistics:  files[WabstiFieldStatistics],
		WabstiFieldConnections: nil,
		WabstiFieldElected:     {},
	}
	assert.Equal(t, fp, Fingerprint(params, withAbsent), "absent files are ignored")

	tests := []struct {
		name   string
		params []string
		files  map[string]*importer.Upload
	}{
		{"other election", []string{ImportFormatWabsti, "e2"}, files},
		{"other data", params, map[string]*importer.Upload{WabstiFieldResults: upload("a;b\n1;3\n"), WabstiFieldStatistics: files[WabstiFieldStatistics]}},
		{"other field", params, map[string]*importer.Upload{WabstiFieldElected: files[WabstiFieldResults], WabstiFieldStatistics: files[WabstiFieldStatistics]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, fp, Fingerprint(tt.params, tt.files))
		})
	}
}

func TestWabstiCFiles(t *testing.T) {
	files := map[string]*importer.Upload{}
	for _, field := range WabstiCFields {
		files[field] = upload(field)
	}

	got := WabstiCFiles(files)
	assert.Equal(t, "wp_wahl", string(got.WPWahl.Data))
	assert.Equal(t, "wp_static_gemeinden", string(got.WPStaticGemeinden.Data))
	assert.Equal(t, "wp_gemeinden", string(got.WPGemeinden.Data))
	assert.Equal(t, "wp_listen", string(got.WPListen.Data))
	assert.Equal(t, "wp_listengde", string(got.WPListenGde.Data))
	assert.Equal(t, "wp_static_kandidaten", string(got.WPStaticKandidaten.Data))
	assert.Equal(t, "wp_kandidaten", string(got.WPKandidaten.Data))
	assert.Equal(t, "wp_kandidatengde", string(got.WPKandidatenGde.Data))

	wabsti := WabstiFiles(map[string]*importer.Upload{WabstiFieldResults: upload("r")})
	assert.NotNil(t, wabsti.Results)
	assert.Nil(t, wabsti.Connections)
}

func TestRejectionAppErr(t *testing.T) {
	r := &rejection{errs: []importer.FileImportError{{Filename: "results", Line: 2, Message: "Invalid integer"}}}
	e := r.AppErr()

	require.NotNil(t, e)
	assert.Equal(t, apperr.CodeImportRejected, e.ErrorCode)
	assert.Equal(t, 422, e.StatusCode)
	assert.Equal(t, r.errs, e.Extras["errors"])
	assert.Nil(t, apperr.ErrImportRejected.Extras, "the predefined error stays untouched")
}
