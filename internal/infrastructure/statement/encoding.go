package statement

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding is the character set of a text statement
type Encoding string

const (
	// EncodingAuto uses UTF-8 when the content is valid UTF-8 and Windows-1252 otherwise
	EncodingAuto        Encoding = "auto"
	EncodingUTF8        Encoding = "utf8"
	EncodingWindows1252 Encoding = "windows1252"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseEncoding validates an encoding name. Empty means auto.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "")) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf8":
		return EncodingUTF8, nil
	case "windows1252", "cp1252", "latin1", "iso88591":
		return EncodingWindows1252, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEncoding, s)
	}
}

// decodeText returns the statement content converted to UTF-8
func decodeText(r io.Reader, enc Encoding) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyFile
	}

	switch enc {
	case EncodingUTF8:
		if !utf8.Valid(raw) {
			return nil, ErrInvalidEncoding
		}
		return raw, nil
	case EncodingWindows1252:
		return charmap.Windows1252.NewDecoder().Bytes(raw)
	case EncodingAuto, "":
		if utf8.Valid(raw) {
			return raw, nil
		}
		return charmap.Windows1252.NewDecoder().Bytes(raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
}
