package core

// encoding.go resolves which text encoding turns an upload into readable text.
//
// Exports from the service-order system arrive either as UTF-8 or as a
// Windows "ANSI" code page (Latin-1 / CP1252). Candidates are tried in order
// by the pipeline: a candidate is rejected when its decoder reports invalid
// input or when the decoded text parses to zero rows.
//
// Known limitation: bytes that happen to be valid UTF-8 but were produced by a
// different encoding (mojibake such as "ServiÃ§o") are accepted as-is. Nothing
// here tries to guess that case.

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrInvalidEncoding is wrapped by Decode when the bytes are not valid in the
// requested encoding.
var ErrInvalidEncoding = errors.New("encoding error")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encoding is one candidate text encoding.
type Encoding struct {
	Name string
	// codec is nil for UTF-8, which is validated rather than converted.
	codec encoding.Encoding
}

var (
	EncodingUTF8        = Encoding{Name: "utf-8"}
	EncodingWindows1252 = Encoding{Name: "windows-1252", codec: charmap.Windows1252}
	EncodingLatin1      = Encoding{Name: "iso-8859-1", codec: charmap.ISO8859_1}
	EncodingLatin9      = Encoding{Name: "iso-8859-15", codec: charmap.ISO8859_15}
)

// DefaultEncodings is the candidate order used when none is configured.
var DefaultEncodings = []Encoding{EncodingUTF8, EncodingWindows1252}

var encodingNames = map[string]Encoding{
	"utf-8":        EncodingUTF8,
	"utf8":         EncodingUTF8,
	"windows-1252": EncodingWindows1252,
	"cp1252":       EncodingWindows1252,
	"iso-8859-1":   EncodingLatin1,
	"latin1":       EncodingLatin1,
	"latin-1":      EncodingLatin1,
	"iso-8859-15":  EncodingLatin9,
	"latin9":       EncodingLatin9,
}

// EncodingByName looks up a candidate by (case-insensitive) name.
func EncodingByName(name string) (Encoding, error) {
	enc, ok := encodingNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Encoding{}, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// ParseEncodings resolves a list of names, keeping order and dropping repeats.
func ParseEncodings(names []string) ([]Encoding, error) {
	var out []Encoding
	seen := make(map[string]bool)
	for _, n := range names {
		enc, err := EncodingByName(n)
		if err != nil {
			return nil, err
		}
		if seen[enc.Name] {
			continue
		}
		seen[enc.Name] = true
		out = append(out, enc)
	}
	return out, nil
}

func (e Encoding) String() string { return e.Name }

// Decode converts data to a UTF-8 string using enc.
// A UTF-8 byte order mark is dropped first regardless of the candidate.
func Decode(enc Encoding, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	t := transform.Transformer(encoding.UTF8Validator)
	if enc.codec != nil {
		t = enc.codec.NewDecoder()
	}

	out, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", fmt.Errorf("%w: decode as %s: %v", ErrInvalidEncoding, enc.Name, err)
	}
	return string(out), nil
}
