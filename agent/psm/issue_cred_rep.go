package psm

const IssueCredRecord = "CredentialRecord"

type CredentialState int

const (
	CredentialOffered CredentialState = iota
	CredentialRequested
	CredentialIssued
	CredentialRejected
	CredentialRevoked
)

func (s CredentialState) String() string {
	switch s {
	case CredentialOffered:
		return "Offered"
	case CredentialRequested:
		return "Requested"
	case CredentialIssued:
		return "Issued"
	case CredentialRejected:
		return "Rejected"
	case CredentialRevoked:
		return "Revoked"
	default:
		return "Unknown"
	}
}

type CredentialTrigger int

const (
	TriggerCredRequest CredentialTrigger = iota
	TriggerCredIssue
	TriggerCredReject
	TriggerCredRevoke
)

func (t CredentialTrigger) String() string {
	switch t {
	case TriggerCredRequest:
		return "Request"
	case TriggerCredIssue:
		return "Issue"
	case TriggerCredReject:
		return "Reject"
	case TriggerCredRevoke:
		return "Revoke"
	default:
		return "Unknown"
	}
}

var credentialMachine = machine[CredentialState, CredentialTrigger]{
	CredentialOffered: {
		TriggerCredRequest: CredentialRequested,
		TriggerCredReject:  CredentialRejected,
	},
	CredentialRequested: {
		TriggerCredIssue:  CredentialIssued,
		TriggerCredReject: CredentialRejected,
	},
	CredentialIssued: {
		TriggerCredRevoke: CredentialRevoked,
	},
}

// IssueCredRep is one offer-issue lifecycle. The JSON blobs are opaque
// anoncreds data owned by the credential engine.
type IssueCredRep struct {
	Base
	Role                 Role            `json:"role"`
	ConnectionID         string          `json:"connection_id"`
	ThreadID             string          `json:"thread_id"`
	CredDefID            string          `json:"cred_def_id"`
	SchemaID             string          `json:"schema_id,omitempty"`
	OfferJSON            string          `json:"offer_json,omitempty"`
	RequestJSON          string          `json:"request_json,omitempty"`
	RequestMetadataJSON  string          `json:"request_metadata_json,omitempty"`
	ValuesJSON           string          `json:"values_json,omitempty"`
	CredentialID         string          `json:"credential_id,omitempty"`
	RevocationRegistryID string          `json:"revocation_registry_id,omitempty"`
	RevocationID         string          `json:"revocation_id,omitempty"`
	State                CredentialState `json:"state"`
}

// NewIssueCredRep creates a rep in Offered state.
func NewIssueCredRep(role Role, connectionID string) *IssueCredRep {
	return &IssueCredRep{Base: newBase(), Role: role, ConnectionID: connectionID}
}

func (r *IssueCredRep) RecordType() string {
	return IssueCredRecord
}

func (r *IssueCredRep) Tags() map[string]string {
	return r.tags(map[string]string{
		TagState:        r.State.String(),
		TagRole:         string(r.Role),
		TagConnectionID: r.ConnectionID,
		TagThreadID:     r.ThreadID,
		TagCredDefID:    r.CredDefID,
	})
}

func (r *IssueCredRep) Fire(t CredentialTrigger) (err error) {
	r.State, err = credentialMachine.next(IssueCredRecord, r.State, t)
	if err == nil {
		r.touch()
	}
	return err
}
