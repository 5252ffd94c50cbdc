package connector

import (
	"encoding/json"
	"strings"
)

// Content types recognised during negotiation.
const (
	ContentTypeJSON        = "application/json"
	ContentTypeOctetStream = "application/octet-stream"
)

// negotiate picks the decoding strategy from a Content-Type header value.
func negotiate(contentType string) Kind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, ContentTypeJSON):
		return KindJSON
	case strings.Contains(ct, "text"):
		return KindText
	case strings.Contains(ct, ContentTypeOctetStream), strings.Contains(ct, "blob"):
		return KindBinary
	default:
		return KindBinary
	}
}

func decodeBody(rawURL, contentType string, body []byte) (Result, error) {
	switch negotiate(contentType) {
	case KindJSON:
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return Absent(), &DecodeError{URL: rawURL, ContentType: contentType, Err: err}
		}
		return NewJSON(v, body), nil
	case KindText:
		return NewText(string(body)), nil
	default:
		if body == nil {
			body = []byte{}
		}
		return NewBinary(body), nil
	}
}
