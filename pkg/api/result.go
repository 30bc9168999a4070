package api

import (
	"errors"

	json "github.com/goccy/go-json"
)

// Result is the uniform outcome of one API call. The client core never
// returns Go errors for transport or backend failures; callers branch on
// Status and Error instead.
type Result struct {
	// Data is the raw JSON body, nil when the response was bodiless or
	// not parseable as JSON.
	Data json.RawMessage

	// Error is the human-readable failure message, empty on success.
	Error string

	// Status is the HTTP status code, 500 for transport failures.
	Status int

	// Transport reports that the failure happened before a backend
	// response arrived (connection, DNS, body read). Always false on
	// responses the backend actually produced, whatever their status.
	Transport bool
}

// OK reports whether the call succeeded with a 2xx status.
func (r Result) OK() bool {
	return r.Status >= 200 && r.Status < 300 && r.Error == ""
}

// Decode unmarshals the result body into v.
func (r Result) Decode(v any) error {
	if len(r.Data) == 0 {
		return errors.New("api: result carries no data")
	}
	return json.Unmarshal(r.Data, v)
}
