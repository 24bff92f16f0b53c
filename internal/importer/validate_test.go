package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onegov.dev/electionday/internal/pkg/csvfile"
)

func row(values map[string]string) csvfile.Row {
	return csvfile.NewRow(2, values)
}

func TestValidateInteger(t *testing.T) {
	tests := []struct {
		name    string
		value   map[string]string
		opts    []IntOption
		want    int
		wantErr string
	}{
		{name: "value", value: map[string]string{"n": "42"}, want: 42},
		{name: "negative", value: map[string]string{"n": "-3"}, want: -3},
		{name: "empty", value: map[string]string{"n": ""}, want: 0},
		{name: "empty with default", value: map[string]string{"n": ""}, opts: []IntOption{Default(7)}, want: 7},
		{name: "empty as error", value: map[string]string{"n": ""}, opts: []IntOption{EmptyIsError()}, wantErr: "Empty value: n"},
		{name: "invalid", value: map[string]string{"n": "1.5"}, wantErr: "Invalid integer: n"},
		{name: "text", value: map[string]string{"n": "abc"}, wantErr: "Invalid integer: n"},
		{name: "absent optional", value: map[string]string{}, opts: []IntOption{Optional(), Default(3)}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateInteger(row(tt.value), "n", tt.opts...)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateOptionalInteger(t *testing.T) {
	got, err := ValidateOptionalInteger(row(map[string]string{"n": ""}), "n")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ValidateOptionalInteger(row(map[string]string{"n": "0"}), "n")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0, *got)

	_, err = ValidateOptionalInteger(row(map[string]string{"n": "x"}), "n")
	assert.EqualError(t, err, "Invalid integer: n")
}

func TestValidateListID(t *testing.T) {
	for in, want := range map[string]string{"": "0", "03": "03", "03B.04": "03B.04", "a_1": "a_1"} {
		got, err := ValidateListID(row(map[string]string{"l": in}), "l")
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ValidateListID(row(map[string]string{"l": "03 B"}), "l")
	assert.EqualError(t, err, "Not an alphanumeric: l")
}

func TestExpats(t *testing.T) {
	assert.True(t, IsExpat(9170))
	assert.True(t, IsExpat(19010))
	assert.True(t, IsExpat(19260))
	assert.False(t, IsExpat(19270))
	assert.False(t, IsExpat(19015))
	assert.Len(t, Expats, 27)
}

func TestLineIsRelevant(t *testing.T) {
	line := row(map[string]string{"sortgeschaeft": "1", "sortwahlkreis": "3"})
	assert.True(t, LineIsRelevant(line, "1", ""))
	assert.True(t, LineIsRelevant(line, "1", "3"))
	assert.False(t, LineIsRelevant(line, "1", "4"))
	assert.False(t, LineIsRelevant(line, "2", ""))
}

func TestLoadCSVErrors(t *testing.T) {
	_, ferr := LoadCSV(nil, "Results", []string{"a"})
	require.NotNil(t, ferr)
	assert.Equal(t, FileImportError{Filename: "Results", Message: "Not a valid csv/xls/xlsx file."}, *ferr)

	_, ferr = LoadCSV(&Upload{}, "Results", []string{"a"})
	require.NotNil(t, ferr)
	assert.Equal(t, "Not a valid csv/xls/xlsx file.", ferr.Message)

	_, ferr = LoadCSV(&Upload{Data: []byte{}, Mimetype: "text/csv"}, "Results", []string{"a"})
	require.NotNil(t, ferr)
	assert.Equal(t, "The csv/xls/xlsx file is empty.", ferr.Message)

	_, ferr = LoadCSV(&Upload{Data: []byte("first,second\n1,2\n"), Mimetype: "text/csv"}, "Results", []string{"first", "third"})
	require.NotNil(t, ferr)
	assert.Equal(t, "Missing columns: 'third'", ferr.Message)

	_, ferr = LoadCSV(&Upload{Data: []byte("a,b\n1,2\n\n3,4\n"), Mimetype: "text/csv"}, "Results", []string{"a", "b"})
	require.NotNil(t, ferr)
	assert.Equal(t, "The file contains an empty line.", ferr.Message)

	_, ferr = LoadCSV(&Upload{Data: []byte("not a workbook"), Mimetype: "application/vnd.ms-excel"}, "Results", []string{"a"})
	require.NotNil(t, ferr)
	assert.Equal(t, "Not a valid xls/xlsx file.", ferr.Message)
}

func TestFileImportErrorString(t *testing.T) {
	assert.Equal(t, "Results:3: 1 is unknown", FileImportError{Filename: "Results", Line: 3, Message: "1 is unknown"}.String())
	assert.Equal(t, "No data found", FileImportError{Message: "No data found"}.String())
}
