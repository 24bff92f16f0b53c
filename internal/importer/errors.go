package importer

import (
	"fmt"
	"strconv"
	"strings"
)

// FileImportError is a problem found while importing, reported back to the
// uploader. Line is 0 and Filename is empty when they don't apply.
type FileImportError struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"error"`
}

func (e FileImportError) String() string {
	var sb strings.Builder
	if e.Filename != "" {
		sb.WriteString(e.Filename)
		if e.Line > 0 {
			sb.WriteString(":")
			sb.WriteString(strconv.Itoa(e.Line))
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	return sb.String()
}

// lineErrors collects the messages of a single line before they are turned
// into FileImportErrors.
type lineErrors []string

func (l *lineErrors) add(err error) {
	*l = append(*l, err.Error())
}

func (l *lineErrors) addf(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

func (l lineErrors) flush(dst []FileImportError, filename string, line int) []FileImportError {
	for _, msg := range l {
		dst = append(dst, FileImportError{Filename: filename, Line: line, Message: msg})
	}
	return dst
}

// valueError is returned by the validators; its text is shown to the user
// as is.
type valueError string

func (e valueError) Error() string {
	return string(e)
}
