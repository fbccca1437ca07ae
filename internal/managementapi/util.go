package managementapi

import (
	"bytes"
	"encoding/json"
	"io"
)

func newByteReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func decodeJSON(b []byte, out interface{}) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}
