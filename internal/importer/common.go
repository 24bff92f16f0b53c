package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/pkg/csvfile"
	"onegov.dev/electionday/internal/principal"
)

// Expats lists the BFS numbers used for swiss abroad by the different
// exporting systems.
var Expats = func() []int {
	ids := []int{9170}
	for id := 19010; id < 19270; id += 10 {
		ids = append(ids, id)
	}
	return ids
}()

func IsExpat(entityID int) bool {
	for _, id := range Expats {
		if id == entityID {
			return true
		}
	}
	return false
}

// Upload is a single uploaded file. A nil Upload or one without a mimetype
// is an absent file. An upload without data is present, loading it reports
// the empty file.
type Upload struct {
	Data     []byte
	Mimetype string
}

func (u *Upload) Present() bool {
	return u != nil && u.Mimetype != ""
}

// LoadCSV loads an upload and maps loading failures to a user facing error.
func LoadCSV(u *Upload, filename string, expected []string, opts ...csvfile.Option) (*csvfile.File, *FileImportError) {
	if !u.Present() {
		return nil, &FileImportError{Filename: filename, Message: "Not a valid csv/xls/xlsx file."}
	}

	f, err := csvfile.Load(u.Data, u.Mimetype, expected, opts...)
	if err == nil {
		return f, nil
	}
	return nil, &FileImportError{Filename: filename, Message: loadErrorMessage(err)}
}

// loadWabsti retries failed loads as UTF-16, the export format of some
// wabsti versions. The first error is kept when both fail.
func loadWabsti(u *Upload, filename string, expected []string) (*csvfile.File, *FileImportError) {
	f, ferr := LoadCSV(u, filename, expected)
	if ferr == nil {
		return f, nil
	}
	if f, err := LoadCSV(u, filename, expected, csvfile.WithEncoding(csvfile.EncodingUTF16LE)); err == nil {
		return f, nil
	}
	return nil, ferr
}

func loadErrorMessage(err error) string {
	var missing *csvfile.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return fmt.Sprintf("Missing columns: '%s'", strings.Join(missing.Columns, ", "))
	case errors.Is(err, csvfile.ErrInvalidExcel):
		return "Not a valid xls/xlsx file."
	case errors.Is(err, csvfile.ErrUnsupportedCells):
		return "The xls/xlsx file contains unsupported cells."
	case errors.Is(err, csvfile.ErrAmbiguousColumns):
		return "Could not find the expected columns, make sure all required columns exist and that there are no extra columns."
	case errors.Is(err, csvfile.ErrDuplicateColumns):
		return "Some column names appear twice."
	case errors.Is(err, csvfile.ErrEmptyFile):
		return "The csv/xls/xlsx file is empty."
	case errors.Is(err, csvfile.ErrEmptyLine):
		return "The file contains an empty line."
	}
	return "Not a valid csv/xls/xlsx file."
}

// entityAndDistrict returns the name, district (or region for regional
// elections) and superregion of an entity. If errs is not nil, entities
// outside of the election's domain are reported.
func entityAndDistrict(entityID int, entities map[int]principal.Entity, election *model.Election, p *principal.Principal, errs *lineErrors) (name, district, superregion string) {
	if entityID == 0 {
		return "", "", ""
	}

	entity := entities[entityID]
	name = entity.Name
	district = entity.District
	if election.Domain == model.DomainRegion {
		district = entity.Region
	}
	superregion = entity.Superregion

	if errs != nil {
		switch election.Domain {
		case model.DomainMunicipality:
			if election.DomainSegment != name && !p.IsMunicipality() {
				errs.addf("%d is not part of this business", entityID)
			}
		case model.DomainRegion, model.DomainDistrict:
			if election.DomainSegment != district {
				errs.addf("%d is not part of %s", entityID, election.DomainSegment)
			}
		}
	}
	return name, district, superregion
}

// LineIsRelevant reports whether a WabstiC line belongs to the given
// business and, if set, district.
func LineIsRelevant(row csvfile.Row, number, district string) bool {
	if district != "" {
		return row.Get("sortwahlkreis") == district && row.Get("sortgeschaeft") == number
	}
	return row.Get("sortgeschaeft") == number
}

// missingEntities returns the entities of the election year (and the expats,
// if enabled) without a result, limited to the election's domain.
func missingEntities(election *model.Election, p *principal.Principal, entities map[int]principal.Entity, present func(int) bool) []*model.ElectionResult {
	if election.Domain == model.DomainNone {
		return nil
	}

	ids := make([]int, 0, len(entities)+1)
	for id := range entities {
		ids = append(ids, id)
	}
	if election.HasExpats {
		ids = append(ids, 0)
	}
	sort.Ints(ids)

	var results []*model.ElectionResult
	for _, id := range ids {
		if present(id) {
			continue
		}
		name, district, superregion := entityAndDistrict(id, entities, election, p, nil)
		switch election.Domain {
		case model.DomainMunicipality:
			if !p.IsMunicipality() && name != election.DomainSegment {
				continue
			}
		case model.DomainRegion, model.DomainDistrict:
			if district != election.DomainSegment {
				continue
			}
		}
		results = append(results, &model.ElectionResult{
			ID:          newID(),
			ElectionID:  election.ID,
			EntityID:    id,
			Name:        name,
			District:    district,
			Superregion: superregion,
			Counted:     false,
		})
	}
	return results
}

// ordered is a map remembering the insertion order of its keys. The
// importers report and store things in file order.
type ordered[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func newOrdered[K comparable, V any]() *ordered[K, V] {
	return &ordered[K, V]{values: map[K]V{}}
}

func (o *ordered[K, V]) get(k K) (V, bool) {
	v, ok := o.values[k]
	return v, ok
}

func (o *ordered[K, V]) has(k K) bool {
	_, ok := o.values[k]
	return ok
}

func (o *ordered[K, V]) set(k K, v V) {
	if _, ok := o.values[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.values[k] = v
}

// setDefault stores v unless k exists and returns the stored value.
func (o *ordered[K, V]) setDefault(k K, v V) V {
	if existing, ok := o.values[k]; ok {
		return existing
	}
	o.set(k, v)
	return v
}

func (o *ordered[K, V]) size() int {
	return len(o.keys)
}

func (o *ordered[K, V]) each(fn func(K, V)) {
	for _, k := range o.keys {
		fn(k, o.values[k])
	}
}
