// Package csvfile reads csv and xlsx files with a known set of columns. The
// headers of the file are matched loosely against the expected ones, so
// that small spelling differences between exporting tools do not matter.
package csvfile

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// TextMimetypes are read as csv, everything else is read as a workbook.
var TextMimetypes = []string{"text/plain", "text/csv"}

type options struct {
	encoding         Encoding
	renameDuplicates bool
	sheet            string
}

type Option func(*options)

// WithEncoding skips the encoding detection.
func WithEncoding(enc Encoding) Option {
	return func(o *options) { o.encoding = enc }
}

// RenameDuplicateColumns suffixes repeated headers instead of failing.
func RenameDuplicateColumns() Option {
	return func(o *options) { o.renameDuplicates = true }
}

// WithSheet overrides the preferred worksheet of xlsx files.
func WithSheet(name string) Option {
	return func(o *options) { o.sheet = name }
}

// Row is a single data line of a File.
type Row struct {
	// RowNumber counts from 1 with the header being row 1, as a user
	// opening the file in a spreadsheet would see it.
	RowNumber int

	values map[string]string
}

// NewRow builds a row by hand, keyed by identifiers.
func NewRow(rowNumber int, values map[string]string) Row {
	return Row{RowNumber: rowNumber, values: values}
}

// Get returns the trimmed value of the column with the given identifier, or
// an empty string.
func (r Row) Get(col string) string {
	return r.values[col]
}

// Lookup is like Get but reports whether the column exists.
func (r Row) Lookup(col string) (string, bool) {
	v, ok := r.values[col]
	return v, ok
}

func (r Row) Has(col string) bool {
	_, ok := r.values[col]
	return ok
}

type File struct {
	headers []string
	lines   []Row
}

// Headers returns the matched headers in order of appearance.
func (f *File) Headers() []string {
	return f.headers
}

// Lines returns the data rows, header excluded.
func (f *File) Lines() []Row {
	return f.lines
}

func isText(mimetype string) bool {
	for _, m := range TextMimetypes {
		if mimetype == m {
			return true
		}
	}
	return false
}

// Load parses data according to its mimetype and matches its headers against
// expected. If expected is empty, the headers of the file are taken as is.
func Load(data []byte, mimetype string, expected []string, opts ...Option) (*File, error) {
	o := options{sheet: PreferredSheet}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		records []record
		err     error
	)
	if isText(mimetype) {
		records, err = textRecords(data, o.encoding)
	} else {
		var rows [][]string
		rows, err = excelRecords(data, o.sheet)
		for i, r := range rows {
			records = append(records, record{index: i, fields: r})
		}
	}
	if err != nil {
		return nil, err
	}

	return fromRecords(records, expected, o)
}

// record is a parsed csv line. index counts blank lines too.
type record struct {
	index  int
	fields []string
}

func fromRecords(records []record, expected []string, o options) (*File, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	if records[0].index != 0 {
		// the file starts with blank lines
		return nil, ErrEmptyLine
	}

	var (
		raw     []string
		columns []int
	)
	for i, h := range records[0].fields {
		if h == "" {
			continue
		}
		raw = append(raw, NormalizeHeader(h))
		columns = append(columns, i)
	}
	if o.renameDuplicates {
		renameDuplicates(raw)
	}
	if len(expected) == 0 {
		expected = raw
	}

	headers, err := MatchHeaders(raw, expected)
	if err != nil {
		return nil, err
	}
	idents := make([]string, len(headers))
	for i, h := range headers {
		idents[i] = AsValidIdentifier(h)
	}

	f := &File{headers: headers}
	for ri, rec := range records[1:] {
		if rec.index != ri+1 {
			return nil, ErrEmptyLine
		}
		values := make(map[string]string, len(idents))
		for i, ident := range idents {
			col := columns[i]
			if col >= len(rec.fields) {
				return nil, errors.Wrapf(ErrInvalidFormat, "row %d has no column %d", rec.index+1, col+1)
			}
			values[ident] = strings.TrimSpace(rec.fields[col])
		}
		f.lines = append(f.lines, Row{RowNumber: rec.index + 1, values: values})
	}

	return f, nil
}

// textRecords decodes and splits csv text. Blank lines are skipped by
// encoding/csv, so they are recovered from the reported line positions and
// dropped again if they only trail the data.
func textRecords(data []byte, enc Encoding) ([]record, error) {
	text, err := decode(data, enc)
	if err != nil {
		return nil, err
	}

	delim, err := SniffDelimiter(text)
	if errors.Is(err, ErrInvalidFormat) {
		// single column files have nothing to sniff
		delim = ','
	} else if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var (
		records  []record
		index    int
		nextLine = 1
	)
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(ErrInvalidFormat, err.Error())
		}

		line, _ := r.FieldPos(0)
		if line > nextLine {
			index += line - nextLine
		}
		records = append(records, record{index: index, fields: fields})
		index++

		nextLine = line + 1
		for _, f := range fields {
			nextLine += strings.Count(f, "\n")
		}
	}

	return records, nil
}
