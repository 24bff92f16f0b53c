package importer

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/pkg/csvfile"
	"onegov.dev/electionday/internal/principal"
)

var (
	WabstiProporzHeaders = []string{
		"einheit_bfs",
		"liste_kandid",
		"kand_nachname",
		"kand_vorname",
		"liste_id",
		"liste_code",
		"kand_stimmentotal",
		"liste_parteistimmentotal",
	}
	WabstiProporzHeadersConnections = []string{"liste", "lv", "luv"}
	WabstiProporzHeadersCandidates  = []string{"liste_kandid"}
	WabstiProporzHeadersStats       = []string{
		"einheit_bfs",
		"einheit_name",
		"stimbertotal",
		"wzeingegangen",
		"wzleer",
		"wzungueltig",
		"stmwzveraendertleeramtlleer",
	}
)

// WabstiProporzFiles are the uploads of a wabsti proporz import. Only Results
// is required.
type WabstiProporzFiles struct {
	Results     *Upload
	Connections *Upload
	Elected     *Upload
	Statistics  *Upload
}

type wabstiProporz struct {
	election *model.Election
	p        *principal.Principal
	entities map[int]principal.Entity

	errs []FileImportError

	candidates     *ordered[string, *model.Candidate]
	lists          *ordered[string, *model.List]
	listResults    map[int]*ordered[string, *model.ListResult]
	connections    *ordered[string, *model.ListConnection]
	subconnections *ordered[string, *model.ListConnection]
	results        *ordered[int, *model.ElectionResult]

	// panachageHeaders maps the identifier of a panachage column to its
	// source list id.
	panachageHeaders *ordered[string, string]
	panachage        map[string]*ordered[string, int]
}

// WabstiProporz imports the export of wabsti for proporz elections. It
// either returns the complete result set or the errors found.
func WabstiProporz(election *model.Election, p *principal.Principal, files WabstiProporzFiles) (*ImportedElection, []FileImportError) {
	w := &wabstiProporz{
		election:       election,
		p:              p,
		entities:       p.EntitiesFor(election.Date.Year()),
		candidates:     newOrdered[string, *model.Candidate](),
		lists:          newOrdered[string, *model.List](),
		listResults:    map[int]*ordered[string, *model.ListResult]{},
		connections:    newOrdered[string, *model.ListConnection](),
		subconnections: newOrdered[string, *model.ListConnection](),
		results:        newOrdered[int, *model.ElectionResult](),
		panachage:      map[string]*ordered[string, int]{},
	}

	w.readResults(files.Results)
	if files.Connections.Present() {
		w.readConnections(files.Connections)
	}
	if files.Elected.Present() {
		w.readElected(files.Elected)
	}
	if files.Statistics.Present() {
		w.readStatistics(files.Statistics)
	}

	if len(w.errs) == 0 && w.results.size() == 0 {
		w.errs = append(w.errs, FileImportError{Message: "No data found"})
	}
	if w.panachageHeaders != nil {
		for _, col := range w.panachageHeaders.keys {
			listID := w.panachageHeaders.values[col]
			if listID != model.BlankListID && !w.lists.has(listID) {
				w.errs = append(w.errs, FileImportError{
					Message: "Panachage results id " + listID + " not in list_id's",
				})
				break
			}
		}
	}
	if len(w.errs) > 0 {
		return nil, w.errs
	}

	return w.assemble(), nil
}

func (w *wabstiProporz) readResults(u *Upload) {
	const filename = "Results"
	f, ferr := loadWabsti(u, filename, WabstiProporzHeaders)
	if ferr != nil {
		w.errs = append(w.errs, *ferr)
		return
	}

	w.panachageHeaders = panachageHeaders(f)
	for _, line := range f.Lines() {
		var errs lineErrors

		result := w.parseResult(line, &errs)
		candidate := parseCandidate(line, &errs)
		candidateResult := parseCandidateResult(line, &errs)
		list := parseList(line, &errs)
		listResult := parseListResult(line, &errs)
		w.parsePanachage(line, &errs)

		if result != nil && result.EntityID == 0 && !w.election.HasExpats {
			continue
		}
		if len(errs) > 0 {
			w.errs = errs.flush(w.errs, filename, line.RowNumber)
			continue
		}

		result = w.results.setDefault(result.EntityID, result)
		list = w.lists.setDefault(list.ListID, list)

		entityLists, ok := w.listResults[result.EntityID]
		if !ok {
			entityLists = newOrdered[string, *model.ListResult]()
			w.listResults[result.EntityID] = entityLists
		}
		listResult = entityLists.setDefault(list.ListID, listResult)
		listResult.ListID = list.ID

		candidate = w.candidates.setDefault(candidate.CandidateID, candidate)
		candidateResult.CandidateID = candidate.ID
		result.CandidateResults = append(result.CandidateResults, candidateResult)
		candidate.ListID = uuid.NullUUID{UUID: list.ID, Valid: true}
	}
}

func (w *wabstiProporz) parseResult(line csvfile.Row, errs *lineErrors) *model.ElectionResult {
	entityID, err := ValidateInteger(line, "einheit_bfs")
	if err != nil {
		errs.add(err)
		return nil
	}

	_, known := w.entities[entityID]
	if !known && IsExpat(entityID) {
		entityID = 0
		known = true
	}
	if entityID != 0 && !known {
		errs.addf("%d is unknown", entityID)
		return nil
	}

	name, district, superregion := entityAndDistrict(entityID, w.entities, w.election, w.p, errs)
	if len(*errs) > 0 {
		return nil
	}
	return &model.ElectionResult{
		ID:          newID(),
		EntityID:    entityID,
		Name:        name,
		District:    district,
		Superregion: superregion,
		Counted:     true,
	}
}

func parseCandidate(line csvfile.Row, errs *lineErrors) *model.Candidate {
	candidateID, err := ValidateInteger(line, "liste_kandid")
	if err != nil {
		errs.add(err)
		return nil
	}
	return &model.Candidate{
		ID:          newID(),
		CandidateID: strconv.Itoa(candidateID),
		FamilyName:  line.Get("kand_nachname"),
		FirstName:   line.Get("kand_vorname"),
	}
}

func parseCandidateResult(line csvfile.Row, errs *lineErrors) *model.CandidateResult {
	votes, err := ValidateInteger(line, "kand_stimmentotal")
	if err != nil {
		errs.add(err)
		return nil
	}
	return &model.CandidateResult{ID: newID(), Votes: votes}
}

func parseList(line csvfile.Row, errs *lineErrors) *model.List {
	listID, err := ValidateListID(line, "liste_id")
	if err != nil {
		errs.add(err)
		return nil
	}
	return &model.List{ID: newID(), ListID: listID, Name: line.Get("liste_code")}
}

func parseListResult(line csvfile.Row, errs *lineErrors) *model.ListResult {
	votes, err := ValidateInteger(line, "liste_parteistimmentotal")
	if err != nil {
		errs.add(err)
		return nil
	}
	return &model.ListResult{ID: newID(), Votes: votes}
}

// panachageHeaders finds the panachage columns, named {list id}.{list code}.
// The list 99 holds the votes of the blank list.
func panachageHeaders(f *csvfile.File) *ordered[string, string] {
	headers := newOrdered[string, string]()
	for _, header := range f.Headers() {
		parts := strings.Split(header, ".")
		if len(parts) < 2 {
			continue
		}
		listID := parts[0]
		if listID == "99" {
			listID = model.BlankListID
		}
		headers.set(csvfile.AsValidIdentifier(header), listID)
	}
	return headers
}

// parsePanachage adds the votes a line's list got from the other lists.
// The column of the own list is empty.
func (w *wabstiProporz) parsePanachage(line csvfile.Row, errs *lineErrors) {
	target, err := ValidateListID(line, "liste_id")
	if err != nil {
		errs.add(err)
		return
	}
	sources, ok := w.panachage[target]
	if !ok {
		sources = newOrdered[string, int]()
		w.panachage[target] = sources
	}

	for _, col := range w.panachageHeaders.keys {
		source := w.panachageHeaders.values[col]
		if source == target {
			continue
		}
		votes, err := ValidateInteger(line, col)
		if err != nil {
			errs.add(err)
			return
		}
		current, _ := sources.get(source)
		sources.set(source, current+votes)
	}
}

func (w *wabstiProporz) readConnections(u *Upload) {
	const filename = "List connections"
	f, ferr := loadWabsti(u, filename, WabstiProporzHeadersConnections)
	if ferr != nil {
		w.errs = append(w.errs, *ferr)
		return
	}

	for _, line := range f.Lines() {
		listID, err := ValidateListID(line, "liste")
		if err != nil {
			w.errs = append(w.errs, FileImportError{Filename: filename, Line: line.RowNumber, Message: err.Error()})
			continue
		}
		list, ok := w.lists.get(listID)
		if !ok {
			continue
		}

		connectionID := line.Get("lv")
		if connectionID == "" {
			continue
		}
		connection := w.connections.setDefault(connectionID, &model.ListConnection{
			ID:           newID(),
			ConnectionID: connectionID,
		})
		list.ConnectionID = uuid.NullUUID{UUID: connection.ID, Valid: true}

		subconnectionID := line.Get("luv")
		if subconnectionID == "" {
			continue
		}
		subconnection := w.subconnections.setDefault(subconnectionID, &model.ListConnection{
			ID:           newID(),
			ConnectionID: subconnectionID,
		})
		subconnection.ParentID = uuid.NullUUID{UUID: connection.ID, Valid: true}
		list.ConnectionID = uuid.NullUUID{UUID: subconnection.ID, Valid: true}
	}
}

func (w *wabstiProporz) readElected(u *Upload) {
	const filename = "Elected Candidates"
	f, ferr := loadWabsti(u, filename, WabstiProporzHeadersCandidates)
	if ferr != nil {
		w.errs = append(w.errs, *ferr)
		return
	}

	byID := make(map[uuid.UUID]*model.List, w.lists.size())
	w.lists.each(func(_ string, l *model.List) { byID[l.ID] = l })

	for _, line := range f.Lines() {
		candidateID, err := ValidateInteger(line, "liste_kandid")
		if err != nil {
			w.errs = append(w.errs, FileImportError{Filename: filename, Line: line.RowNumber, Message: err.Error()})
			continue
		}
		candidate, ok := w.candidates.get(strconv.Itoa(candidateID))
		if !ok {
			w.errs = append(w.errs, FileImportError{Filename: filename, Line: line.RowNumber, Message: "Unknown candidate"})
			continue
		}
		candidate.Elected = true
		if list, ok := byID[candidate.ListID.UUID]; ok {
			list.NumberOfMandates++
		}
	}
}

func (w *wabstiProporz) readStatistics(u *Upload) {
	const filename = "Election statistics"
	f, ferr := loadWabsti(u, filename, WabstiProporzHeadersStats)
	if ferr != nil {
		w.errs = append(w.errs, *ferr)
		return
	}

	cols := []string{"einheit_bfs", "stimbertotal", "wzeingegangen", "wzleer", "wzungueltig", "stmwzveraendertleeramtlleer"}
	for _, line := range f.Lines() {
		values := make([]int, len(cols))
		var err error
		for i, col := range cols {
			if values[i], err = ValidateInteger(line, col); err != nil {
				break
			}
		}
		if err != nil {
			w.errs = append(w.errs, FileImportError{Filename: filename, Line: line.RowNumber, Message: err.Error()})
			continue
		}

		entityID := values[0]
		group := strings.ToLower(strings.TrimSpace(line.Get("einheit_name")))
		if _, known := w.entities[entityID]; !known && group == "auslandschweizer" {
			entityID = 0
		}

		result, ok := w.results.get(entityID)
		if !ok {
			continue
		}
		result.EligibleVoters = values[1]
		result.ReceivedBallots = values[2]
		result.BlankBallots = values[3]
		result.InvalidBallots = values[4]
		result.BlankVotes = values[5]
	}
}

func (w *wabstiProporz) assemble() *ImportedElection {
	electionID := w.election.ID
	imported := &ImportedElection{ElectionID: electionID}

	for _, set := range []*ordered[string, *model.ListConnection]{w.connections, w.subconnections} {
		set.each(func(_ string, c *model.ListConnection) {
			c.ElectionID = electionID
			imported.Connections = append(imported.Connections, c)
		})
	}

	listIDs := make(map[string]uuid.NullUUID, w.lists.size()+1)
	w.lists.each(func(id string, l *model.List) {
		listIDs[id] = uuid.NullUUID{UUID: l.ID, Valid: true}
	})
	listIDs[model.BlankListID] = uuid.NullUUID{}

	w.lists.each(func(id string, l *model.List) {
		l.ElectionID = electionID
		if sources, ok := w.panachage[id]; ok {
			sources.each(func(source string, votes int) {
				sourceID, known := listIDs[source]
				if !known {
					return
				}
				l.PanachageResults = append(l.PanachageResults, &model.ListPanachageResult{
					ID:       newID(),
					TargetID: l.ID,
					SourceID: sourceID,
					Votes:    votes,
				})
			})
		}
		imported.Lists = append(imported.Lists, l)
	})

	w.candidates.each(func(_ string, c *model.Candidate) {
		c.ElectionID = electionID
		imported.Candidates = append(imported.Candidates, c)
	})

	w.results.each(func(entityID int, r *model.ElectionResult) {
		r.ElectionID = electionID
		if lrs, ok := w.listResults[entityID]; ok {
			lrs.each(func(_ string, lr *model.ListResult) {
				lr.ElectionResultID = r.ID
				r.ListResults = append(r.ListResults, lr)
			})
		}
		for _, cr := range r.CandidateResults {
			cr.ElectionResultID = r.ID
		}
		imported.Results = append(imported.Results, r)
	})
	imported.Results = append(imported.Results, missingEntities(w.election, w.p, w.entities, w.results.has)...)

	return imported
}
