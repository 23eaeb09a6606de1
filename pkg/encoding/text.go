// Package encoding decodes mesh files written in legacy text encodings.
// OBJ exporters on older systems often write object names in the system
// code page rather than UTF-8.
package encoding

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned for labels no decoder is registered for.
var ErrUnknownEncoding = errors.New("unknown text encoding")

// Lookup resolves a WHATWG label such as "utf-8", "euc-kr", "shift_jis"
// or "windows-1252". An empty label means UTF-8.
func Lookup(label string) (encoding.Encoding, error) {
	if label == "" {
		return unicode.UTF8, nil
	}
	e, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	return e, nil
}

// ToUTF8 converts data from the labelled encoding to UTF-8. A leading byte
// order mark overrides the label and is stripped.
func ToUTF8(data []byte, label string) ([]byte, error) {
	e, err := Lookup(label)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(e.NewDecoder()), data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", label, err)
	}
	return out, nil
}

// FromUTF8 converts UTF-8 text to the labelled encoding. Characters the
// encoding cannot represent are an error.
func FromUTF8(text []byte, label string) ([]byte, error) {
	e, err := Lookup(label)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(e.NewEncoder(), text)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", label, err)
	}
	return out, nil
}
