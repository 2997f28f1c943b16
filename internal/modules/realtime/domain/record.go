package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// DecodeRecord parses a UTF-8 JSON object whose values are strings, numbers, booleans or null.
// Numbers are kept as json.Number so integer fields survive the round trip unchanged.
func DecodeRecord(raw []byte) (Record, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: payload is not valid utf-8", ErrDecode)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrDecode)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrDecode)
	}
	for k, v := range fields {
		switch v.(type) {
		case nil, string, bool, json.Number:
		default:
			return nil, fmt.Errorf("%w: field %q is not a scalar", ErrDecode, k)
		}
	}
	return Record(fields), nil
}
