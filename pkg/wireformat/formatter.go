// Package wireformat encodes HTTP query results as JSON or MessagePack.
package wireformat

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter handles encoding and writing responses in JSON or
// MessagePack format.
type Formatter struct{}

// NewFormatter creates a new response formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WriteResponse writes data in the format selected by the request. JSON
// is the default; MessagePack is used when format=msgpack is specified.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any, status int) error {
	if req.URL.Query().Get("format") == "msgpack" {
		return f.writeMsgPack(w, data, status)
	}
	return f.writeJSON(w, data, status)
}

func (f *Formatter) writeJSON(w http.ResponseWriter, data any, status int) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, data any, status int) error {
	var buf bytes.Buffer
	encoder := msgpack.NewEncoder(&buf)
	// Use the json struct tags so both wire formats agree on key names.
	encoder.SetCustomStructTag("json")
	if err := encoder.Encode(data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/x-msgpack")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
