package fastjson

import (
	"io"

	gojson "github.com/goccy/go-json"
)

// Marshal serializes v with goccy/go-json. Map keys come out sorted, the
// same order encoding/json produces.
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// MarshalNoEscape is Marshal without the HTML-safe < style escaping.
func MarshalNoEscape(v interface{}) ([]byte, error) {
	return gojson.MarshalNoEscape(v)
}

func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

func NewEncoder(w io.Writer) *gojson.Encoder {
	return gojson.NewEncoder(w)
}

func NewDecoder(r io.Reader) *gojson.Decoder {
	return gojson.NewDecoder(r)
}

func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}
