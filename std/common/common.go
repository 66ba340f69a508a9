// Package common has the message parts shared by all protocols and the
// routing/1.0 forward message.
package common

// Header is embedded to every protocol message. It has the reserved fields.
type Header struct {
	Type string `json:"@type"`
	ID   string `json:"@id"`
}

func (h Header) MsgID() string   { return h.ID }
func (h Header) MsgType() string { return h.Type }
