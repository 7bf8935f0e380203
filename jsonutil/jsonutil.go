// Package jsonutil holds small JSON helpers shared by the cache and async packages.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmpty is returned when there is no JSON data to decode.
var ErrEmpty = errors.New("no JSON data provided")

const snippetLen = 32

// Decode decodes JSON data into a value of type T.
func Decode[T any](data []byte) (T, error) {
	var v T

	if len(data) == 0 {
		return v, ErrEmpty
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decoding JSON (%s): %w", snippet(data), err)
	}

	return v, nil
}

// DecodeStr decodes a JSON string into a value of type T.
func DecodeStr[T any](data string) (T, error) {
	return Decode[T]([]byte(data))
}

// Encode returns the JSON text of v.
func Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding JSON (%T): %w", v, err)
	}

	return string(b), nil
}

// Key returns a key identifying v by its JSON text. Map keys are sorted by
// encoding/json, so equal maps produce equal keys.
func Key(v any) (string, error) {
	return Encode(v)
}

func snippet(data []byte) string {
	if len(data) > snippetLen {
		return string(data[:snippetLen]) + "..."
	}
	return string(data)
}
