package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/guregu/null.v3"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/pkg/csvfile"
	"onegov.dev/electionday/internal/principal"
)

var (
	WabstiCHeadersWPWahl             = []string{"sortgeschaeft", "anzpendentgde"}
	WabstiCHeadersWPStaticGemeinden  = []string{"sortwahlkreis", "sortgeschaeft", "bfsnrgemeinde", "stimmberechtigte"}
	WabstiCHeadersWPGemeinden        = []string{"bfsnrgemeinde", "stimmberechtigte", "sperrung", "stmabgegeben", "stmleer", "stmungueltig", "anzwzamtleer"}
	WabstiCHeadersWPListen           = []string{"sortgeschaeft", "listnr", "listcode", "sitze", "listverb", "listuntverb"}
	WabstiCHeadersWPListenGde        = []string{"bfsnrgemeinde", "listnr", "stimmentotal"}
	WabstiCHeadersWPStaticKandidaten = []string{"sortgeschaeft", "knr", "nachname", "vorname"}
	WabstiCHeadersWPKandidaten       = []string{"sortgeschaeft", "knr", "gewaehlt"}
	WabstiCHeadersWPKandidatenGde    = []string{"bfsnrgemeinde", "knr", "stimmen"}
)

// WabstiCProporzFiles are the eight files of a WabstiCExport, all required.
type WabstiCProporzFiles struct {
	WPWahl             *Upload
	WPStaticGemeinden  *Upload
	WPGemeinden        *Upload
	WPListen           *Upload
	WPListenGde        *Upload
	WPStaticKandidaten *Upload
	WPKandidaten       *Upload
	WPKandidatenGde    *Upload
}

type wabstiCEntity struct {
	name, district, superregion string

	counted         bool
	eligibleVoters  int
	receivedBallots int
	blankBallots    int
	invalidBallots  int
	blankVotes      int
}

type connectionKey struct {
	connection, sub string
}

type wabstiCProporz struct {
	election *model.Election
	p        *principal.Principal
	entities map[int]principal.Entity
	number   string
	district string

	errs []FileImportError

	remaining   *int
	added       *ordered[int, *wabstiCEntity]
	lists       *ordered[string, *model.List]
	connections *ordered[connectionKey, *model.ListConnection]
	listResults map[int]*ordered[string, int]
	candidates  *ordered[string, *model.Candidate]
	results     *ordered[int, *ordered[string, int]]
}

// WabstiCProporz imports the WabstiCExport files of the proporz election with
// the given business number, optionally limited to a district. Lines of other
// businesses are ignored, so the same export can be imported for several
// elections.
func WabstiCProporz(election *model.Election, p *principal.Principal, number, district string, files WabstiCProporzFiles) (*ImportedElection, []FileImportError) {
	sources := []struct {
		upload   *Upload
		filename string
		headers  []string
	}{
		{files.WPWahl, "wp_wahl", WabstiCHeadersWPWahl},
		{files.WPStaticGemeinden, "wpstatic_gemeinden", WabstiCHeadersWPStaticGemeinden},
		{files.WPGemeinden, "wp_gemeinden", WabstiCHeadersWPGemeinden},
		{files.WPListen, "wp_listen", WabstiCHeadersWPListen},
		{files.WPListenGde, "wp_listengde", WabstiCHeadersWPListenGde},
		{files.WPStaticKandidaten, "wpstatic_kandidaten", WabstiCHeadersWPStaticKandidaten},
		{files.WPKandidaten, "wp_kandidaten", WabstiCHeadersWPKandidaten},
		{files.WPKandidatenGde, "wp_kandidatengde", WabstiCHeadersWPKandidatenGde},
	}

	loaded := make([]*csvfile.File, len(sources))
	loadErrs := make([]*FileImportError, len(sources))
	var g errgroup.Group
	for i, s := range sources {
		i, s := i, s
		g.Go(func() error {
			loaded[i], loadErrs[i] = LoadCSV(s.upload, s.filename, s.headers)
			return nil
		})
	}
	_ = g.Wait()

	var errs []FileImportError
	for _, e := range loadErrs {
		if e != nil {
			errs = append(errs, *e)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	w := &wabstiCProporz{
		election:    election,
		p:           p,
		entities:    p.EntitiesFor(election.Date.Year()),
		number:      number,
		district:    district,
		added:       newOrdered[int, *wabstiCEntity](),
		lists:       newOrdered[string, *model.List](),
		connections: newOrdered[connectionKey, *model.ListConnection](),
		listResults: map[int]*ordered[string, int]{},
		candidates:  newOrdered[string, *model.Candidate](),
		results:     newOrdered[int, *ordered[string, int]](),
	}
	w.readWahl(loaded[0])
	w.readStaticGemeinden(loaded[1])
	w.readGemeinden(loaded[2])
	w.readListen(loaded[3])
	w.readListenGde(loaded[4])
	w.readStaticKandidaten(loaded[5])
	w.readKandidaten(loaded[6])
	w.readKandidatenGde(loaded[7])

	if len(w.errs) > 0 {
		return nil, w.errs
	}
	return w.assemble(), nil
}

// wabstiCEntityID reads the BFS number, expats are mapped to 0.
func wabstiCEntityID(line csvfile.Row) (int, error) {
	id, err := ValidateInteger(line, "bfsnrgemeinde")
	if err != nil {
		return 0, err
	}
	if IsExpat(id) {
		return 0, nil
	}
	return id, nil
}

// wabstiCListID maps the blank list 99 to 999.
func wabstiCListID(line csvfile.Row) string {
	number := line.Get("listnr")
	switch number {
	case "":
		return "0"
	case "99":
		return model.BlankListID
	}
	return number
}

// listIDFromKnr derives the list of a candidate number, either 01.02 (since
// the 2018 standard) or 0102.
func listIDFromKnr(knr string) string {
	if i := strings.Index(knr, "."); i >= 0 {
		return knr[:i]
	}
	if len(knr) < 2 {
		return ""
	}
	return knr[:len(knr)-2]
}

func (w *wabstiCProporz) fail(filename string, line csvfile.Row, errs lineErrors) {
	w.errs = errs.flush(w.errs, filename, line.RowNumber)
}

func (w *wabstiCProporz) readWahl(f *csvfile.File) {
	for _, line := range f.Lines() {
		if !LineIsRelevant(line, w.number, "") {
			continue
		}
		remaining, err := ValidateOptionalInteger(line, "anzpendentgde")
		if err != nil {
			w.fail("wp_wahl", line, lineErrors{"Error in anzpendentgde: " + err.Error()})
			continue
		}
		w.remaining = remaining
	}
}

func (w *wabstiCProporz) readStaticGemeinden(f *csvfile.File) {
	for _, line := range f.Lines() {
		if !LineIsRelevant(line, w.number, w.district) {
			continue
		}
		var errs lineErrors

		entityID, err := wabstiCEntityID(line)
		if err != nil {
			errs.add(err)
		} else {
			if _, known := w.entities[entityID]; entityID != 0 && !known {
				errs.addf("%d is unknown", entityID)
			}
			if w.added.has(entityID) {
				errs.addf("%d was found twice", entityID)
			}
		}

		eligibleVoters, verr := ValidateInteger(line, "stimmberechtigte")
		if verr != nil {
			errs.add(verr)
		}

		if err == nil && entityID == 0 && !w.election.HasExpats {
			continue
		}

		var name, district, superregion string
		if err == nil {
			name, district, superregion = entityAndDistrict(entityID, w.entities, w.election, w.p, &errs)
		}
		if len(errs) > 0 {
			w.fail("wpstatic_gemeinden", line, errs)
			continue
		}

		w.added.set(entityID, &wabstiCEntity{
			name:           name,
			district:       district,
			superregion:    superregion,
			eligibleVoters: eligibleVoters,
		})
	}
}

func (w *wabstiCProporz) readGemeinden(f *csvfile.File) {
	for _, line := range f.Lines() {
		var errs lineErrors

		entityID, err := wabstiCEntityID(line)
		if err != nil {
			w.fail("wp_gemeinden", line, lineErrors{err.Error()})
			continue
		}
		// the file has no business number, entities of other elections or
		// disabled expats are simply not present
		entity, ok := w.added.get(entityID)
		if !ok {
			continue
		}

		if lockingTime, err := ValidateInteger(line, "sperrung"); err != nil {
			errs.add(err)
		} else {
			entity.counted = lockingTime != 0
		}

		if eligibleVoters, err := ValidateInteger(line, "stimmberechtigte"); err != nil {
			errs.add(err)
		} else if eligibleVoters != 0 {
			entity.eligibleVoters = eligibleVoters
		}

		received, err := ValidateInteger(line, "stmabgegeben")
		var blank, invalid int
		if err == nil {
			blank, err = ValidateInteger(line, "stmleer")
		}
		if err == nil {
			invalid, err = ValidateInteger(line, "stmungueltig")
		}
		if err != nil {
			errs.add(err)
		} else {
			entity.receivedBallots = received
			entity.blankBallots = blank
			entity.invalidBallots = invalid
			// blank votes are part of the list results
			entity.blankVotes = 0
		}

		if len(errs) > 0 {
			w.fail("wp_gemeinden", line, errs)
			continue
		}

		if !entity.counted {
			entity.eligibleVoters = 0
			entity.receivedBallots = 0
			entity.blankBallots = 0
			entity.invalidBallots = 0
			entity.blankVotes = 0
		}
	}
}

func (w *wabstiCProporz) readListen(f *csvfile.File) {
	for _, line := range f.Lines() {
		if !LineIsRelevant(line, w.number, "") {
			continue
		}

		listID := wabstiCListID(line)
		mandates, err := ValidateInteger(line, "sitze")
		if err != nil {
			w.fail("wp_listen", line, lineErrors{err.Error()})
			continue
		}
		connection := line.Get("listverb")
		sub := line.Get("listuntverb")
		if sub != "" && connection == "" {
			w.fail("wp_listen", line, lineErrors{"connection is missing."})
			continue
		}
		if w.lists.has(listID) {
			w.fail("wp_listen", line, lineErrors{listID + " was found twice"})
			continue
		}

		var connectionID uuid.NullUUID
		if connection != "" {
			var parentID uuid.NullUUID
			if sub != "" {
				parent := w.connections.setDefault(connectionKey{connection, ""}, &model.ListConnection{
					ID:           newID(),
					ConnectionID: connection,
				})
				parentID = uuid.NullUUID{UUID: parent.ID, Valid: true}
			}

			id := connection
			if sub != "" {
				id = sub
			}
			c := w.connections.setDefault(connectionKey{connection, sub}, &model.ListConnection{
				ID:           newID(),
				ConnectionID: id,
				ParentID:     parentID,
			})
			connectionID = uuid.NullUUID{UUID: c.ID, Valid: true}
		}

		w.lists.set(listID, &model.List{
			ID:               newID(),
			ListID:           listID,
			Name:             line.Get("listcode"),
			NumberOfMandates: mandates,
			ConnectionID:     connectionID,
		})
	}
}

func (w *wabstiCProporz) readListenGde(f *csvfile.File) {
	for _, line := range f.Lines() {
		entityID, err := wabstiCEntityID(line)
		listID := wabstiCListID(line)
		var votes int
		if err == nil {
			votes, err = ValidateInteger(line, "stimmentotal")
		}
		if err != nil {
			w.fail("wp_listengde", line, lineErrors{err.Error()})
			continue
		}

		entity, ok := w.added.get(entityID)
		if !ok {
			continue
		}
		results, ok := w.listResults[entityID]
		if !ok {
			results = newOrdered[string, int]()
			w.listResults[entityID] = results
		}
		if results.has(listID) {
			w.fail("wp_listengde", line, lineErrors{formatPair(entityID, listID) + " was found twice"})
			continue
		}

		if listID == model.BlankListID {
			entity.blankVotes = votes
		}
		if !entity.counted {
			votes = 0
		}
		results.set(listID, votes)
	}
}

func (w *wabstiCProporz) readStaticKandidaten(f *csvfile.File) {
	for _, line := range f.Lines() {
		if !LineIsRelevant(line, w.number, "") {
			continue
		}
		var errs lineErrors

		candidateID := line.Get("knr")
		listID := listIDFromKnr(candidateID)
		if w.candidates.has(candidateID) {
			errs.addf("%s was found twice", candidateID)
		}
		list, ok := w.lists.get(listID)
		if !ok {
			errs.addf("List_id %s has not been found in list numbers", listID)
		}
		if len(errs) > 0 {
			w.fail("wpstatic_kandidaten", line, errs)
			continue
		}

		w.candidates.set(candidateID, &model.Candidate{
			ID:          newID(),
			CandidateID: candidateID,
			FamilyName:  line.Get("nachname"),
			FirstName:   line.Get("vorname"),
			ListID:      uuid.NullUUID{UUID: list.ID, Valid: true},
		})
	}
}

func (w *wabstiCProporz) readKandidaten(f *csvfile.File) {
	for _, line := range f.Lines() {
		if !LineIsRelevant(line, w.number, "") {
			continue
		}

		candidateID := line.Get("knr")
		elected, err := ValidateInteger(line, "gewaehlt")
		if err != nil {
			w.fail("wp_kandidaten", line, lineErrors{err.Error()})
			continue
		}
		candidate, ok := w.candidates.get(candidateID)
		if !ok {
			w.fail("wp_kandidaten", line, lineErrors{"Candidate with id " + candidateID + " not in wpstatic_kandidaten"})
			continue
		}
		candidate.Elected = elected == 1
	}
}

func (w *wabstiCProporz) readKandidatenGde(f *csvfile.File) {
	for _, line := range f.Lines() {
		entityID, err := wabstiCEntityID(line)
		candidateID := line.Get("knr")
		var votes int
		if err == nil {
			votes, err = ValidateInteger(line, "stimmen")
		}
		if err != nil {
			w.fail("wp_kandidatengde", line, lineErrors{err.Error()})
			continue
		}

		entity, ok := w.added.get(entityID)
		if !ok || !w.candidates.has(candidateID) {
			continue
		}
		results := w.results.setDefault(entityID, newOrdered[string, int]())
		if results.has(candidateID) {
			w.fail("wp_kandidatengde", line, lineErrors{formatPair(entityID, candidateID) + " was found twice"})
			continue
		}
		if !entity.counted {
			votes = 0
		}
		results.set(candidateID, votes)
	}
}

func (w *wabstiCProporz) assemble() *ImportedElection {
	electionID := w.election.ID
	imported := &ImportedElection{
		ElectionID: electionID,
		Status:     null.StringFrom(model.StatusUnknown),
	}
	if w.remaining != nil && *w.remaining == 0 {
		imported.Status = null.StringFrom(model.StatusFinal)
	}

	// parents have no sub key and go first
	keys := append([]connectionKey(nil), w.connections.keys...)
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].sub < keys[j].sub })
	for _, k := range keys {
		c := w.connections.values[k]
		c.ElectionID = electionID
		imported.Connections = append(imported.Connections, c)
	}

	w.lists.each(func(id string, l *model.List) {
		if id == model.BlankListID {
			return
		}
		l.ElectionID = electionID
		imported.Lists = append(imported.Lists, l)
	})

	w.candidates.each(func(_ string, c *model.Candidate) {
		c.ElectionID = electionID
		imported.Candidates = append(imported.Candidates, c)
	})

	w.results.each(func(entityID int, votes *ordered[string, int]) {
		entity := w.added.values[entityID]
		r := &model.ElectionResult{
			ID:              newID(),
			ElectionID:      electionID,
			EntityID:        entityID,
			Name:            entity.name,
			District:        entity.district,
			Superregion:     entity.superregion,
			Counted:         entity.counted,
			EligibleVoters:  entity.eligibleVoters,
			ReceivedBallots: entity.receivedBallots,
			BlankBallots:    entity.blankBallots,
			InvalidBallots:  entity.invalidBallots,
			BlankVotes:      entity.blankVotes,
		}
		votes.each(func(candidateID string, v int) {
			r.CandidateResults = append(r.CandidateResults, &model.CandidateResult{
				ID:               newID(),
				ElectionResultID: r.ID,
				CandidateID:      w.candidates.values[candidateID].ID,
				Votes:            v,
			})
		})
		if lrs, ok := w.listResults[entityID]; ok {
			lrs.each(func(listID string, v int) {
				list, ok := w.lists.get(listID)
				if listID == model.BlankListID || !ok {
					return
				}
				r.ListResults = append(r.ListResults, &model.ListResult{
					ID:               newID(),
					ElectionResultID: r.ID,
					ListID:           list.ID,
					Votes:            v,
				})
			})
		}
		imported.Results = append(imported.Results, r)
	})
	imported.Results = append(imported.Results, missingEntities(w.election, w.p, w.entities, w.results.has)...)

	return imported
}

func formatPair(entityID int, id string) string {
	return fmt.Sprintf("%d/%s", entityID, id)
}
