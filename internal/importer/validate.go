package importer

import (
	"regexp"
	"strconv"

	"onegov.dev/electionday/internal/pkg/csvfile"
)

var listIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

type intOptions struct {
	def         int
	emptyErrors bool
	optional    bool
}

type IntOption func(*intOptions)

// Default is returned for empty values. It is 0 unless set.
func Default(v int) IntOption {
	return func(o *intOptions) { o.def = v }
}

// EmptyIsError rejects empty values instead of returning the default.
func EmptyIsError() IntOption {
	return func(o *intOptions) { o.emptyErrors = true }
}

// Optional returns the default if the column does not exist at all.
func Optional() IntOption {
	return func(o *intOptions) { o.optional = true }
}

// ValidateInteger reads col as an integer.
func ValidateInteger(row csvfile.Row, col string, opts ...IntOption) (int, error) {
	var o intOptions
	for _, opt := range opts {
		opt(&o)
	}

	value, ok := row.Lookup(col)
	if !ok && o.optional {
		return o.def, nil
	}
	if value == "" {
		if o.emptyErrors {
			return 0, valueError("Empty value: " + col)
		}
		return o.def, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, valueError("Invalid integer: " + col)
	}
	return n, nil
}

// ValidateOptionalInteger is ValidateInteger with empty values mapped to nil.
func ValidateOptionalInteger(row csvfile.Row, col string) (*int, error) {
	if row.Get(col) == "" {
		return nil, nil
	}
	n, err := ValidateInteger(row, col)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ValidateListID reads an alphanumeric list id such as 03B.04. Empty values
// are the list 0.
func ValidateListID(row csvfile.Row, col string) (string, error) {
	value := row.Get(col)
	if value == "" {
		return "0", nil
	}
	if !listIDPattern.MatchString(value) {
		return "", valueError("Not an alphanumeric: " + col)
	}
	return value, nil
}
