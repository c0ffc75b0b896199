// Package json is a thin wrapper around goccy/go-json, used by the frame
// sinker to encode frame-completion records without the reflection
// overhead of encoding/json.
package json

import (
	"io"

	"github.com/goccy/go-json"
)

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Encoder writes a stream of JSON values to an underlying writer, one
// value per line.
type Encoder interface {
	Encode(v any) error
}

// NewEncoder returns an Encoder writing newline-delimited JSON to w.
func NewEncoder(w io.Writer) Encoder {
	return json.NewEncoder(w)
}
