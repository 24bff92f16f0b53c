package service

import (
	"encoding/hex"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/zeebo/xxh3"

	"onegov.dev/electionday/internal/importer"
)

type TaskState string

const (
	TaskQueued    TaskState = "queued"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// ImportTaskStatus is kept in Redis for ImportTaskLifetime.
type ImportTaskStatus struct {
	TaskID     string                     `json:"taskId" msgpack:"taskId"`
	ElectionID string                     `json:"electionId" msgpack:"electionId"`
	Status     TaskState                  `json:"status" msgpack:"status"`
	Errors     []importer.FileImportError `json:"errors,omitempty" msgpack:"errors"`
	CreatedAt  time.Time                  `json:"createdAt" msgpack:"createdAt"`
	UpdatedAt  time.Time                  `json:"updatedAt" msgpack:"updatedAt"`
}

// ImportTask is the JetStream payload of a queued WabstiC import.
type ImportTask struct {
	TaskID      string                      `msgpack:"taskId"`
	ElectionID  string                      `msgpack:"electionId"`
	Number      string                      `msgpack:"number"`
	District    string                      `msgpack:"district"`
	Fingerprint string                      `msgpack:"fingerprint"`
	Files       map[string]*importer.Upload `msgpack:"files"`
	// CreatedAt is in microseconds
	CreatedAt int64 `msgpack:"createdAt"`
}

// Form fields of the uploads.
const (
	WabstiFieldResults     = "results"
	WabstiFieldConnections = "connections"
	WabstiFieldElected     = "elected"
	WabstiFieldStatistics  = "statistics"

	WabstiCFieldWahl             = "wp_wahl"
	WabstiCFieldStaticGemeinden  = "wp_static_gemeinden"
	WabstiCFieldGemeinden        = "wp_gemeinden"
	WabstiCFieldListen           = "wp_listen"
	WabstiCFieldListenGde        = "wp_listengde"
	WabstiCFieldStaticKandidaten = "wp_static_kandidaten"
	WabstiCFieldKandidaten       = "wp_kandidaten"
	WabstiCFieldKandidatenGde    = "wp_kandidatengde"
)

var (
	WabstiFields = []string{
		WabstiFieldResults,
		WabstiFieldConnections,
		WabstiFieldElected,
		WabstiFieldStatistics,
	}
	WabstiCFields = []string{
		WabstiCFieldWahl,
		WabstiCFieldStaticGemeinden,
		WabstiCFieldGemeinden,
		WabstiCFieldListen,
		WabstiCFieldListenGde,
		WabstiCFieldStaticKandidaten,
		WabstiCFieldKandidaten,
		WabstiCFieldKandidatenGde,
	}
)

func WabstiFiles(files map[string]*importer.Upload) importer.WabstiProporzFiles {
	return importer.WabstiProporzFiles{
		Results:     files[WabstiFieldResults],
		Connections: files[WabstiFieldConnections],
		Elected:     files[WabstiFieldElected],
		Statistics:  files[WabstiFieldStatistics],
	}
}

func WabstiCFiles(files map[string]*importer.Upload) importer.WabstiCProporzFiles {
	return importer.WabstiCProporzFiles{
		WPWahl:             files[WabstiCFieldWahl],
		WPStaticGemeinden:  files[WabstiCFieldStaticGemeinden],
		WPGemeinden:        files[WabstiCFieldGemeinden],
		WPListen:           files[WabstiCFieldListen],
		WPListenGde:        files[WabstiCFieldListenGde],
		WPStaticKandidaten: files[WabstiCFieldStaticKandidaten],
		WPKandidaten:       files[WabstiCFieldKandidaten],
		WPKandidatenGde:    files[WabstiCFieldKandidatenGde],
	}
}

// Fingerprint identifies an upload by its parameters and the present files.
// Absent files do not change it.
func Fingerprint(params []string, files map[string]*importer.Upload) string {
	h := xxh3.New()
	sep := []byte{0}
	for _, p := range params {
		_, _ = h.WriteString(p)
		_, _ = h.Write(sep)
	}

	names := lo.Keys(files)
	sort.Strings(names)
	for _, name := range names {
		f := files[name]
		if !f.Present() {
			continue
		}
		_, _ = h.WriteString(name)
		_, _ = h.Write(sep)
		_, _ = h.WriteString(f.Mimetype)
		_, _ = h.Write(sep)
		_, _ = h.Write(f.Data)
	}

	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:])
}
