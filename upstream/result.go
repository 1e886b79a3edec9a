package upstream

import "encoding/json"

// Result is the outcome of one fetch: a JSON payload or absence.
// The zero value is Absent.
type Result struct {
	payload json.RawMessage
	found   bool
}

// Found wraps a successfully decoded payload.
func Found(payload json.RawMessage) Result {
	return Result{payload: payload, found: true}
}

// Absent is the single marker for every failure to obtain usable JSON.
func Absent() Result {
	return Result{}
}

// Payload returns the JSON body and true, or nil and false when absent.
func (r Result) Payload() (json.RawMessage, bool) {
	return r.payload, r.found
}

// IsAbsent reports whether the fetch produced no usable JSON.
func (r Result) IsAbsent() bool { return !r.found }
