// Package decode turns an extracted payload back into the document bytes.
package decode

import (
	"encoding/base64"
	"errors"
	"strings"

	"bookextract/internal/book"
)

// strict rejects non-canonical padding and non-zero trailing bits. CR and LF
// are skipped by the decoder itself, so wrapped payloads still decode.
var strict = base64.StdEncoding.Strict()

// Decode decodes standard base64 text. Surrounding whitespace is trimmed
// and empty text decodes to zero bytes; any other invalid input returns a
// decode *book.Error.
func Decode(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []byte{}, nil
	}

	data, err := strict.DecodeString(text)
	if err != nil {
		var corrupt base64.CorruptInputError
		if errors.As(err, &corrupt) {
			return nil, book.Errorf(book.KindDecode, "malformed base64 at byte %d of %d: %w", int64(corrupt), len(text), err)
		}
		return nil, book.Errorf(book.KindDecode, "malformed base64: %w", err)
	}
	return data, nil
}

// Encode is the inverse of Decode.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
