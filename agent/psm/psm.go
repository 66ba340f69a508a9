/*
Package psm has the protocol state records: connection, issue credential,
present proof and payment reps. Each rep has typed fields, its state and the
state machine which tells the legal transitions. Tags for the record search
are derived from the typed fields by Tags().
*/
package psm

import (
	"fmt"
	"time"

	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/google/uuid"
)

// Tag names used in the record searches.
const (
	TagState            = "state"
	TagConnectionKey    = "connection_key"
	TagMyVk             = "my_vk"
	TagTheirVk          = "their_vk"
	TagMyDID            = "my_did"
	TagTheirDID         = "their_did"
	TagAutoAccept       = "AutoAcceptConnection"
	TagMultiParty       = "multi_party"
	TagConnectionID     = "connection_id"
	TagThreadID         = "thread_id"
	TagRole             = "role"
	TagCredDefID        = "definition_id"
	TagPaymentRecordID  = "payment_record_id"
	TagReferenceID      = "reference_id"
	TagInvitationRecord = "invitation_id"
)

// Role tells which side of the protocol our agent is.
type Role string

const (
	RoleIssuer   Role = "issuer"
	RoleHolder   Role = "holder"
	RoleVerifier Role = "verifier"
	RoleProver   Role = "prover"
	RoleInviter  Role = "inviter"
	RoleInvitee  Role = "invitee"
)

// Base is embedded to all reps. Custom tags are set by the callers, e.g. the
// payment middleware, and they are merged with the derived tags.
type Base struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	CustomTags map[string]string `json:"tags,omitempty"`
}

func newBase() Base {
	return Base{ID: uuid.New().String(), CreatedAt: time.Now().UTC()}
}

func (b *Base) RecordID() string {
	return b.ID
}

// SetTag sets a custom tag.
func (b *Base) SetTag(name, value string) {
	if b.CustomTags == nil {
		b.CustomTags = make(map[string]string)
	}
	b.CustomTags[name] = value
}

// Tag returns a custom tag.
func (b *Base) Tag(name string) string {
	return b.CustomTags[name]
}

func (b *Base) touch() {
	b.UpdatedAt = time.Now().UTC()
}

// tags merges derived and custom tags. Derived values win and empty ones
// are left out.
func (b *Base) tags(derived map[string]string) map[string]string {
	t := make(map[string]string, len(derived)+len(b.CustomTags))
	for k, v := range b.CustomTags {
		t[k] = v
	}
	for k, v := range derived {
		if v != "" {
			t[k] = v
		}
	}
	return t
}

// machine is a transition table: state -> trigger -> next state.
type machine[S, T comparable] map[S]map[T]S

func (m machine[S, T]) next(kind string, s S, t T) (S, error) {
	if to, ok := m[s][t]; ok {
		return to, nil
	}
	return s, fault.New(fault.RecordInInvalidState,
		"%s: trigger %v not allowed in state %v", kind, t, s)
}

func boolTag(b bool) string {
	return fmt.Sprint(b)
}
