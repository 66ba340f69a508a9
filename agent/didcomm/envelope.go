/*
Package didcomm offers the message envelope of the agent-to-agent messages.

An Envelope wraps the wire bytes and knows if they are still packed, i.e.
encrypted by the wallet, or plain JSON which can be inspected. Decorators are
sibling JSON fields of the message body and their names start with '~'.
*/
package didcomm

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/std/decorator"
	"github.com/lainio/err2"
)

// reserved fields of every message
const (
	FieldID   = "@id"
	FieldType = "@type"
)

// Envelope is a message on the wire. When it's packed only Raw is available.
// Unpacked envelope has the parsed body which is the source of all accessors.
type Envelope struct {
	raw    []byte
	packed bool
	body   map[string]json.RawMessage
}

// New creates an envelope from bytes. Unpacked data must be a JSON object.
func New(data []byte, packed bool) (e *Envelope, err error) {
	defer err2.Handle(&err, "new envelope")

	e = &Envelope{raw: data, packed: packed}
	if packed {
		return e, nil
	}
	if err := json.Unmarshal(data, &e.body); err != nil || e.body == nil {
		return nil, fault.Invalid("body is not JSON object: %v", err)
	}
	return e, nil
}

// NewString is a convenience version of New.
func NewString(data string, packed bool) (*Envelope, error) {
	return New([]byte(data), packed)
}

// Packed tells if the envelope is still ciphertext.
func (e *Envelope) Packed() bool {
	return e.packed
}

// Raw returns the wire bytes. For unpacked envelope it's the current JSON
// including added decorators.
func (e *Envelope) Raw() []byte {
	if e.packed {
		return e.raw
	}
	return e.JSON()
}

func (e *Envelope) mustBeOpen(op string) error {
	if e.packed {
		return fault.Invalid("%s: envelope is packed", op)
	}
	return nil
}

// Type returns the @type URI of the message.
func (e *Envelope) Type() (string, error) {
	return e.str(FieldType)
}

// ID returns the @id of the message.
func (e *Envelope) ID() (string, error) {
	return e.str(FieldID)
}

func (e *Envelope) str(field string) (s string, err error) {
	if err = e.mustBeOpen(field); err != nil {
		return "", err
	}
	v, ok := e.body[field]
	if !ok {
		return "", fault.Invalid("message has no %s", field)
	}
	if err = json.Unmarshal(v, &s); err != nil || s == "" {
		return "", fault.Invalid("message %s is not a string", field)
	}
	return s, nil
}

// As deserializes the whole body to v.
func (e *Envelope) As(v any) error {
	if err := e.mustBeOpen("as"); err != nil {
		return err
	}
	if err := json.Unmarshal(e.JSON(), v); err != nil {
		return fault.Invalid("body shape: %v", err)
	}
	return nil
}

// HasDecorator tells if the decorator exists. Packed envelope has none.
func (e *Envelope) HasDecorator(name string) bool {
	if e.packed {
		return false
	}
	_, ok := e.body[decorator.Key(name)]
	return ok
}

// Decorators returns the names of the decorators in order, without the ~
// prefix.
func (e *Envelope) Decorators() []string {
	var names []string
	for k := range e.body {
		if strings.HasPrefix(k, decorator.Prefix) {
			names = append(names, strings.TrimPrefix(k, decorator.Prefix))
		}
	}
	sort.Strings(names)
	return names
}

// Decorator deserializes the named decorator to v.
func (e *Envelope) Decorator(name string, v any) error {
	if err := e.mustBeOpen("decorator"); err != nil {
		return err
	}
	d, ok := e.body[decorator.Key(name)]
	if !ok {
		return fault.Invalid("no decorator %s", name)
	}
	if err := json.Unmarshal(d, v); err != nil {
		return fault.Invalid("decorator %s: %v", name, err)
	}
	return nil
}

// AddDecorator sets the decorator. An existing one with the same name is
// overwritten.
func (e *Envelope) AddDecorator(name string, v any) (err error) {
	if err = e.mustBeOpen("add decorator"); err != nil {
		return err
	}
	d, err := json.Marshal(v)
	if err != nil {
		return fault.Invalid("decorator %s: %v", name, err)
	}
	e.body[decorator.Key(name)] = d
	return nil
}

// JSON returns the body as JSON. Packed envelope returns nil.
func (e *Envelope) JSON() []byte {
	if e.packed {
		return nil
	}
	data, _ := json.Marshal(e.body)
	return data
}

// Thread returns the thread decorator or nil if there isn't one.
func (e *Envelope) Thread() *decorator.Thread {
	var th decorator.Thread
	if !e.HasDecorator(decorator.NameThread) {
		return nil
	}
	if err := e.Decorator(decorator.NameThread, &th); err != nil {
		return nil
	}
	return &th
}

// ThreadID returns the conversation id: thid of the ~thread or the @id when
// the message starts the thread.
func (e *Envelope) ThreadID() string {
	if th := e.Thread(); th != nil && th.ID != "" {
		return th.ID
	}
	id, _ := e.ID()
	return id
}
