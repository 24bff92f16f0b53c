package csvfile

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// PreferredSheet is read if the workbook contains it, the first sheet
// otherwise.
const PreferredSheet = "Resultate"

// excelRecords reads a worksheet of an xlsx workbook. Rows without any value
// are dropped and every row is padded to the widest one.
func excelRecords(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidExcel, err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrInvalidExcel
	}
	name := sheets[0]
	if sheet != "" {
		if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
			name = sheet
		}
	}

	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, errors.Wrap(ErrInvalidExcel, err.Error())
	}
	dates := &dateFormats{f: f, date1904: props.Date1904 != nil && *props.Date1904, layouts: map[int]string{}}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidExcel, err.Error())
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	records := make([][]string, 0, len(rows))
	for r, row := range rows {
		values := make([]string, width)
		filled := false
		for c, raw := range row {
			if raw == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, errors.Wrap(ErrInvalidExcel, err.Error())
			}
			typ, err := f.GetCellType(name, cell)
			if err != nil {
				return nil, errors.Wrap(ErrInvalidExcel, err.Error())
			}
			v, err := cellValue(typ, raw)
			if err != nil {
				return nil, err
			}
			if typ == excelize.CellTypeUnset || typ == excelize.CellTypeNumber {
				if v, err = dates.format(name, cell, v); err != nil {
					return nil, err
				}
			}
			values[c] = v
			filled = filled || v != ""
		}
		if filled {
			records = append(records, values)
		}
	}

	return records, nil
}

func cellValue(typ excelize.CellType, raw string) (string, error) {
	switch typ {
	case excelize.CellTypeError:
		return "", ErrUnsupportedCells
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return "1", nil
		}
		return "0", nil
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return numberValue(raw), nil
	default:
		return raw, nil
	}
}

// numberValue renders integral numbers without a fraction, 12.0 becomes 12.
func numberValue(raw string) string {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

const (
	layoutDate     = "2006-01-02"
	layoutTime     = "15:04:05"
	layoutDateTime = "2006-01-02T15:04:05"
)

// builtInDateFormats are the predefined number formats showing dates or
// times.
var builtInDateFormats = map[int]string{
	14: layoutDate, 15: layoutDate, 16: layoutDate, 17: layoutDate,
	18: layoutTime, 19: layoutTime, 20: layoutTime, 21: layoutTime,
	22: layoutDateTime,
	45: layoutTime, 46: layoutTime, 47: layoutTime,
}

// numFmtLiterals matches quoted text, escaped characters and bracketed
// sections like colors or locales.
var numFmtLiterals = regexp.MustCompile(`"[^"]*"|\\.|\[[^\]]*\]`)

// customDateLayout returns the layout of a custom number format showing a
// date or time, or "" for plain number formats.
func customDateLayout(code string) string {
	code = strings.ToLower(numFmtLiterals.ReplaceAllString(code, ""))
	hasDate := strings.ContainsAny(code, "yd")
	hasTime := strings.ContainsAny(code, "hs")
	switch {
	case hasDate && hasTime:
		return layoutDateTime
	case hasDate:
		return layoutDate
	case hasTime:
		return layoutTime
	}
	return ""
}

// dateFormats renders numeric cells styled as dates in ISO format, like
// spreadsheet programs exporting csv do, instead of as serial numbers.
type dateFormats struct {
	f        *excelize.File
	date1904 bool
	// layouts caches the layout per style id, "" being no date.
	layouts map[int]string
}

func (d *dateFormats) layout(sheet, cell string) (string, error) {
	id, err := d.f.GetCellStyle(sheet, cell)
	if err != nil {
		return "", errors.Wrap(ErrInvalidExcel, err.Error())
	}
	if layout, ok := d.layouts[id]; ok {
		return layout, nil
	}

	layout := ""
	if id > 0 {
		style, err := d.f.GetStyle(id)
		if err != nil {
			return "", errors.Wrap(ErrInvalidExcel, err.Error())
		}
		if style.CustomNumFmt != nil {
			layout = customDateLayout(*style.CustomNumFmt)
		} else {
			layout = builtInDateFormats[style.NumFmt]
		}
	}
	d.layouts[id] = layout
	return layout, nil
}

func (d *dateFormats) format(sheet, cell, value string) (string, error) {
	layout, err := d.layout(sheet, cell)
	if err != nil || layout == "" {
		return value, err
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value, nil
	}
	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", ErrUnsupportedCells
	}
	return t.Format(layout), nil
}
