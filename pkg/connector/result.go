package connector

import "github.com/tidwall/gjson"

// Kind tags the variant held by a Result.
type Kind int

const (
	// KindAbsent marks a suppressed failure. It is the zero value.
	KindAbsent Kind = iota
	KindJSON
	KindText
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	default:
		return "absent"
	}
}

// Result is the outcome of a fetch: a JSON value, a text value, a byte buffer,
// or the absent marker. The absent marker is different from an empty body.
type Result struct {
	kind  Kind
	value any
	raw   []byte
}

// Absent returns the marker used when a failure was suppressed.
func Absent() Result { return Result{} }

// NewJSON wraps a decoded JSON value together with the bytes it was decoded from.
func NewJSON(v any, raw []byte) Result { return Result{kind: KindJSON, value: v, raw: raw} }

// NewText wraps a text body.
func NewText(s string) Result { return Result{kind: KindText, raw: []byte(s)} }

// NewBinary wraps a raw body.
func NewBinary(b []byte) Result { return Result{kind: KindBinary, raw: b} }

// Kind reports which variant r holds.
func (r Result) Kind() Kind { return r.kind }

// IsAbsent reports whether r is the marker for a suppressed failure.
func (r Result) IsAbsent() bool { return r.kind == KindAbsent }

// Raw returns the response bytes behind a JSON, text or binary result; nil when absent.
func (r Result) Raw() []byte { return r.raw }

// JSON returns the decoded value (map[string]any, []any, string, float64, bool or nil).
func (r Result) JSON() (any, bool) {
	if r.kind != KindJSON {
		return nil, false
	}
	return r.value, true
}

// Text returns the body of a text result.
func (r Result) Text() (string, bool) {
	if r.kind != KindText {
		return "", false
	}
	return string(r.raw), true
}

// Binary returns the raw buffer of a binary result.
func (r Result) Binary() ([]byte, bool) {
	if r.kind != KindBinary {
		return nil, false
	}
	return r.raw, true
}

// Query evaluates a gjson path against a JSON result. Non-JSON results yield an empty gjson.Result.
func (r Result) Query(path string) gjson.Result {
	if r.kind != KindJSON {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.raw, path)
}
