package csvfile

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

type Encoding int

const (
	// EncodingAuto picks UTF-8 if the content is valid UTF-8 and Windows-1252
	// otherwise, which is what Excel on Windows produces.
	EncodingAuto Encoding = iota
	EncodingUTF8
	EncodingWindows1252
	EncodingUTF16LE
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingWindows1252:
		return "cp1252"
	case EncodingUTF16LE:
		return "utf-16-le"
	default:
		return "auto"
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding returns EncodingUTF8 or EncodingWindows1252.
func DetectEncoding(data []byte) Encoding {
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}

func decode(data []byte, enc Encoding) (string, error) {
	if enc == EncodingAuto {
		enc = DetectEncoding(data)
	}

	switch enc {
	case EncodingUTF8:
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	case EncodingWindows1252:
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", errors.Wrap(ErrInvalidFormat, err.Error())
		}
		return string(out), nil
	case EncodingUTF16LE:
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", errors.Wrap(ErrInvalidFormat, err.Error())
		}
		return string(out), nil
	}

	return "", ErrInvalidFormat
}
