package json

import (
	"bytes"
	"encoding/json"
)

// Marshal marshals v to json data without escaping &, <, and > to their
// \u00XX forms, which keeps expression pointcuts readable in definitions.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(v)
	if err == nil && buf.Len() > 0 {
		// Drop the trailing newline the encoder appends.
		return buf.Bytes()[:buf.Len()-1], nil
	}
	return buf.Bytes(), err
}

// Unmarshal json data to struct
func Unmarshal(b []byte, m interface{}) error {
	return json.Unmarshal(b, m)
}
