package common

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
)

// Forward is the routing/1.0 forward message. Msg is the packed inner
// message either as embedded JSON or as base64 string.
//
//	https://github.com/hyperledger/aries-rfcs/blob/main/concepts/0094-cross-domain-messaging/README.md#corerouting10forward
type Forward struct {
	Header
	To  string          `json:"to"`
	Msg json.RawMessage `json:"msg"`
}

var errEmptyMsg = errors.New("forward has no msg")

// NewForward builds a forward message to recipient key to. Packed JSON is
// embedded as is, other data is base64 encoded.
func NewForward(typ, id, to string, packed []byte) *Forward {
	f := &Forward{Header: Header{Type: typ, ID: id}, To: to}
	trimmed := bytes.TrimSpace(packed)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		f.Msg = json.RawMessage(trimmed)
		return f
	}
	f.Msg, _ = json.Marshal(base64.StdEncoding.EncodeToString(packed))
	return f
}

// Payload returns the packed inner message bytes.
func (f *Forward) Payload() ([]byte, error) {
	raw := bytes.TrimSpace(f.Msg)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errEmptyMsg
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s == "" {
		return nil, errEmptyMsg
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.URLEncoding,
		base64.RawStdEncoding, base64.RawURLEncoding,
	} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	// stringified JSON
	return []byte(s), nil
}
