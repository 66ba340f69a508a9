package pltype

import (
	"strings"

	"github.com/findy-network/findy-a2a/agent/fault"
)

// MessageType is a parsed message type URI:
//
//	<doc>/<family>/<version>/<name>
//
// where doc is e.g. "https://didcomm.org" or "did:sov:...;spec".
type MessageType struct {
	Doc     string
	Family  string
	Version string
	Name    string
}

// ParseType parses the type URI. The three last '/' separated fields are the
// family, version and name. What is left is the doc base.
func ParseType(s string) (mt MessageType, err error) {
	parts := strings.Split(s, "/")
	if len(parts) < 4 {
		return mt, fault.Invalid("type %q is not a message type URI", s)
	}
	l := len(parts)
	mt = MessageType{
		Doc:     strings.Join(parts[:l-3], "/"),
		Family:  parts[l-3],
		Version: parts[l-2],
		Name:    parts[l-1],
	}
	if mt.Doc == "" || mt.Family == "" || mt.Version == "" || mt.Name == "" {
		return MessageType{}, fault.Invalid("type %q has empty fields", s)
	}
	return mt, nil
}

// New builds a message type with the outbound doc base.
func New(family, version, name string) MessageType {
	return MessageType{Doc: outBase, Family: family, Version: version, Name: name}
}

func (mt MessageType) String() string {
	return mt.Doc + "/" + mt.Family + "/" + mt.Version + "/" + mt.Name
}

// Protocol returns family/version e.g. "connections/1.0".
func (mt MessageType) Protocol() string {
	return mt.Family + "/" + mt.Version
}

// Is compares types ignoring the doc base and case.
func Is(a, b string) bool {
	ma, errA := ParseType(a)
	mb, errB := ParseType(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}
	return strings.EqualFold(ma.Family, mb.Family) &&
		strings.EqualFold(ma.Version, mb.Version) &&
		strings.EqualFold(ma.Name, mb.Name)
}
