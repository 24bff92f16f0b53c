package csvfile

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyFile        = errors.New("csvfile: empty file")
	ErrEmptyLine        = errors.New("csvfile: empty line in file")
	ErrInvalidFormat    = errors.New("csvfile: invalid format")
	ErrDuplicateColumns = errors.New("csvfile: duplicate column names")
	ErrAmbiguousColumns = errors.New("csvfile: ambiguous columns")
	ErrInvalidExcel     = errors.New("csvfile: not a valid xlsx file")
	ErrUnsupportedCells = errors.New("csvfile: unsupported cells")
)

// MissingColumnsError lists the expected columns that could not be matched
// against any header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("csvfile: missing columns: %s", strings.Join(e.Columns, ", "))
}
