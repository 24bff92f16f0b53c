package importer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/principal"
)

func testPrincipal() *principal.Principal {
	return &principal.Principal{
		ID:     "zg",
		Name:   "Kanton Zug",
		Domain: principal.DomainCanton,
		Entities: map[int]map[int]principal.Entity{
			2015: {
				1701: {Name: "Baar", District: "Baar", Region: "Ennetsee"},
				1702: {Name: "Cham", District: "Cham", Region: "Ennetsee"},
				1703: {Name: "Hünenberg", District: "Hünenberg", Region: "Berg"},
			},
		},
	}
}

func testElection(domain, segment string) *model.Election {
	return &model.Election{
		ID:               uuid.New(),
		Title:            "Nationalratswahlen",
		Date:             time.Date(2015, 10, 18, 0, 0, 0, 0, time.UTC),
		Domain:           domain,
		DomainSegment:    segment,
		NumberOfMandates: 3,
	}
}

func csvUpload(s string) *Upload {
	return &Upload{Data: []byte(s), Mimetype: "text/csv"}
}

const wabstiResults = "Einheit_BFS,Liste_KandID,Kand_Nachname,Kand_Vorname,Liste_ID,Liste_Code,Kand_StimmenTotal,Liste_ParteistimmenTotal,01.FDP,02.CVP,99.WoP\n" +
	"1701,101,Muster,Hans,01,FDP,100,500,,10,5\n" +
	"1701,201,Meier,Anna,02,CVP,80,400,20,,3\n" +
	"1702,101,Muster,Hans,01,FDP,50,300,,7,1\n"

func resultByEntity(t *testing.T, results []*model.ElectionResult, entityID int) *model.ElectionResult {
	t.Helper()
	for _, r := range results {
		if r.EntityID == entityID {
			return r
		}
	}
	t.Fatalf("no result for entity %d", entityID)
	return nil
}

func TestWabstiProporz(t *testing.T) {
	election := testElection(model.DomainCanton, "")
	imported, errs := WabstiProporz(election, testPrincipal(), WabstiProporzFiles{
		Results:     csvUpload(wabstiResults),
		Connections: csvUpload("Liste,LV,LUV\n01,1,1.1\n02,1,\n"),
		Elected:     csvUpload("Liste_KandID\n101\n"),
		Statistics: csvUpload("Einheit_BFS,Einheit_Name,StimBerTotal,WZEingegangen,WZLeer,WZUngueltig,StmWZVeraendertLeerAmtlLeer\n" +
			"1701,Baar,1000,600,10,5,20\n"),
	})
	require.Empty(t, errs)
	require.NotNil(t, imported)
	assert.Equal(t, election.ID, imported.ElectionID)
	assert.False(t, imported.Status.Valid)

	require.Len(t, imported.Lists, 2)
	fdp, cvp := imported.Lists[0], imported.Lists[1]
	assert.Equal(t, "01", fdp.ListID)
	assert.Equal(t, "FDP", fdp.Name)
	assert.Equal(t, 1, fdp.NumberOfMandates)
	assert.Equal(t, 0, cvp.NumberOfMandates)
	assert.Equal(t, election.ID, fdp.ElectionID)

	require.Len(t, imported.Connections, 2)
	conn, sub := imported.Connections[0], imported.Connections[1]
	assert.Equal(t, "1", conn.ConnectionID)
	assert.False(t, conn.ParentID.Valid)
	assert.Equal(t, "1.1", sub.ConnectionID)
	assert.Equal(t, conn.ID, sub.ParentID.UUID)
	assert.Equal(t, sub.ID, fdp.ConnectionID.UUID)
	assert.Equal(t, conn.ID, cvp.ConnectionID.UUID)

	require.Len(t, imported.Candidates, 2)
	assert.Equal(t, "101", imported.Candidates[0].CandidateID)
	assert.True(t, imported.Candidates[0].Elected)
	assert.Equal(t, fdp.ID, imported.Candidates[0].ListID.UUID)
	assert.False(t, imported.Candidates[1].Elected)
	assert.Equal(t, cvp.ID, imported.Candidates[1].ListID.UUID)

	require.Len(t, imported.Results, 3)
	baar := resultByEntity(t, imported.Results, 1701)
	assert.True(t, baar.Counted)
	assert.Equal(t, "Baar", baar.Name)
	assert.Equal(t, 1000, baar.EligibleVoters)
	assert.Equal(t, 600, baar.ReceivedBallots)
	assert.Equal(t, 20, baar.BlankVotes)
	require.Len(t, baar.CandidateResults, 2)
	assert.Equal(t, 100, baar.CandidateResults[0].Votes)
	assert.Equal(t, baar.ID, baar.CandidateResults[0].ElectionResultID)
	require.Len(t, baar.ListResults, 2)
	assert.Equal(t, 500, baar.ListResults[0].Votes)
	assert.Equal(t, fdp.ID, baar.ListResults[0].ListID)

	cham := resultByEntity(t, imported.Results, 1702)
	assert.True(t, cham.Counted)
	require.Len(t, cham.ListResults, 1)
	assert.Equal(t, 300, cham.ListResults[0].Votes)

	huenenberg := resultByEntity(t, imported.Results, 1703)
	assert.False(t, huenenberg.Counted)
	assert.Empty(t, huenenberg.CandidateResults)

	// panachage sums up over all lines, the blank list has no source
	require.Len(t, fdp.PanachageResults, 2)
	assert.Equal(t, cvp.ID, fdp.PanachageResults[0].SourceID.UUID)
	assert.Equal(t, 17, fdp.PanachageResults[0].Votes)
	assert.False(t, fdp.PanachageResults[1].SourceID.Valid)
	assert.Equal(t, 6, fdp.PanachageResults[1].Votes)
	require.Len(t, cvp.PanachageResults, 2)
	assert.Equal(t, 20, cvp.PanachageResults[0].Votes)
	assert.Len(t, imported.PanachageResults(), 4)
	assert.Len(t, imported.CandidateResults(), 3)
	assert.Len(t, imported.ListResults(), 3)
	assert.Equal(t, 2, imported.Counted())
}

func TestWabstiProporzUTF16(t *testing.T) {
	data, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(wabstiResults))
	require.NoError(t, err)

	imported, errs := WabstiProporz(testElection(model.DomainCanton, ""), testPrincipal(), WabstiProporzFiles{
		Results: &Upload{Data: data, Mimetype: "text/plain"},
	})
	require.Empty(t, errs)
	require.NotNil(t, imported)

	require.Len(t, imported.Lists, 2)
	assert.Equal(t, "01", imported.Lists[0].ListID)
	assert.Equal(t, "FDP", imported.Lists[0].Name)

	baar := resultByEntity(t, imported.Results, 1701)
	require.Len(t, baar.CandidateResults, 2)
	assert.Equal(t, 100, baar.CandidateResults[0].Votes)
	assert.Equal(t, 80, baar.CandidateResults[1].Votes)
}

func TestWabstiProporzErrors(t *testing.T) {
	const header = "Einheit_BFS,Liste_KandID,Kand_Nachname,Kand_Vorname,Liste_ID,Liste_Code,Kand_StimmenTotal,Liste_ParteistimmenTotal\n"

	tests := []struct {
		name     string
		election *model.Election
		files    WabstiProporzFiles
		want     []FileImportError
	}{
		{
			name:     "unknown entity and invalid values",
			election: testElection(model.DomainCanton, ""),
			files: WabstiProporzFiles{Results: csvUpload(header +
				"1701,101,Muster,Hans,01,FDP,100,500\n" +
				"9999,102,Meier,Anna,01,FDP,100,500\n" +
				"1702,x,Meier,Anna,01,FDP,100,500\n")},
			want: []FileImportError{
				{Filename: "Results", Line: 3, Message: "9999 is unknown"},
				{Filename: "Results", Line: 4, Message: "Invalid integer: liste_kandid"},
			},
		},
		{
			name:     "entity outside of district",
			election: testElection(model.DomainDistrict, "Baar"),
			files: WabstiProporzFiles{Results: csvUpload(header +
				"1702,101,Muster,Hans,01,FDP,100,500\n")},
			want: []FileImportError{
				{Filename: "Results", Line: 2, Message: "1702 is not part of Baar"},
			},
		},
		{
			name:     "no data",
			election: testElection(model.DomainCanton, ""),
			files:    WabstiProporzFiles{Results: csvUpload(header)},
			want:     []FileImportError{{Message: "No data found"}},
		},
		{
			name:     "expats are skipped",
			election: testElection(model.DomainCanton, ""),
			files: WabstiProporzFiles{Results: csvUpload(header +
				"9170,101,Muster,Hans,01,FDP,100,500\n")},
			want: []FileImportError{{Message: "No data found"}},
		},
		{
			name:     "unknown panachage list",
			election: testElection(model.DomainCanton, ""),
			files: WabstiProporzFiles{Results: csvUpload(
				"Einheit_BFS,Liste_KandID,Kand_Nachname,Kand_Vorname,Liste_ID,Liste_Code,Kand_StimmenTotal,Liste_ParteistimmenTotal,03.SP\n" +
					"1701,101,Muster,Hans,01,FDP,100,500,4\n")},
			want: []FileImportError{{Message: "Panachage results id 03 not in list_id's"}},
		},
		{
			name:     "unknown elected candidate",
			election: testElection(model.DomainCanton, ""),
			files: WabstiProporzFiles{
				Results: csvUpload(header + "1701,101,Muster,Hans,01,FDP,100,500\n"),
				Elected: csvUpload("Liste_KandID\n999\n"),
			},
			want: []FileImportError{{Filename: "Elected Candidates", Line: 2, Message: "Unknown candidate"}},
		},
		{
			name:     "empty results file",
			election: testElection(model.DomainCanton, ""),
			files:    WabstiProporzFiles{Results: csvUpload("")},
			want:     []FileImportError{{Filename: "Results", Message: "The csv/xls/xlsx file is empty."}},
		},
		{
			name:     "empty optional file",
			election: testElection(model.DomainCanton, ""),
			files: WabstiProporzFiles{
				Results:     csvUpload(header + "1701,101,Muster,Hans,01,FDP,100,500\n"),
				Connections: csvUpload(""),
			},
			want: []FileImportError{{Filename: "List connections", Message: "The csv/xls/xlsx file is empty."}},
		},
		{
			name:     "missing columns",
			election: testElection(model.DomainCanton, ""),
			files:    WabstiProporzFiles{Results: csvUpload("Einheit_BFS,Liste_KandID\n1701,101\n")},
			want: []FileImportError{{
				Filename: "Results",
				Message:  "Missing columns: 'kand_nachname, kand_vorname, liste_id, liste_code, kand_stimmentotal, liste_parteistimmentotal'",
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imported, errs := WabstiProporz(tt.election, testPrincipal(), tt.files)
			assert.Nil(t, imported)
			assert.Equal(t, tt.want, errs)
		})
	}
}

func TestWabstiProporzMissingEntitiesByDomain(t *testing.T) {
	results := csvUpload("Einheit_BFS,Liste_KandID,Kand_Nachname,Kand_Vorname,Liste_ID,Liste_Code,Kand_StimmenTotal,Liste_ParteistimmenTotal\n" +
		"1701,101,Muster,Hans,01,FDP,100,500\n")

	region := testElection(model.DomainRegion, "Ennetsee")
	imported, errs := WabstiProporz(region, testPrincipal(), WabstiProporzFiles{Results: results})
	require.Empty(t, errs)
	require.Len(t, imported.Results, 2)
	assert.Equal(t, "Ennetsee", imported.Results[0].District)
	assert.Equal(t, 1702, imported.Results[1].EntityID)
	assert.False(t, imported.Results[1].Counted)

	none := testElection(model.DomainNone, "")
	imported, errs = WabstiProporz(none, testPrincipal(), WabstiProporzFiles{Results: results})
	require.Empty(t, errs)
	assert.Len(t, imported.Results, 1)

	expats := testElection(model.DomainCanton, "")
	expats.HasExpats = true
	imported, errs = WabstiProporz(expats, testPrincipal(), WabstiProporzFiles{Results: results})
	require.Empty(t, errs)
	require.Len(t, imported.Results, 4)
	assert.Equal(t, 0, imported.Results[1].EntityID)
}
