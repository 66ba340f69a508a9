package psm

const PresentProofRecord = "ProofRecord"

type ProofState int

const (
	ProofRequested ProofState = iota
	ProofAccepted
	ProofRejected
)

func (s ProofState) String() string {
	switch s {
	case ProofRequested:
		return "Requested"
	case ProofAccepted:
		return "Accepted"
	case ProofRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

type ProofTrigger int

const (
	TriggerProofAccept ProofTrigger = iota
	TriggerProofReject
)

func (t ProofTrigger) String() string {
	switch t {
	case TriggerProofAccept:
		return "Accept"
	case TriggerProofReject:
		return "Reject"
	default:
		return "Unknown"
	}
}

var proofMachine = machine[ProofState, ProofTrigger]{
	ProofRequested: {
		TriggerProofAccept: ProofAccepted,
		TriggerProofReject: ProofRejected,
	},
}

// PresentProofRep is one proof request lifecycle. Verified is set by the
// verifier when the presentation arrives.
type PresentProofRep struct {
	Base
	Role         Role       `json:"role"`
	ConnectionID string     `json:"connection_id"`
	ThreadID     string     `json:"thread_id"`
	RequestJSON  string     `json:"request_json"`
	ProofJSON    string     `json:"proof_json,omitempty"`
	Verified     bool       `json:"verified,omitempty"`
	State        ProofState `json:"state"`
}

func NewPresentProofRep(role Role, connectionID string) *PresentProofRep {
	return &PresentProofRep{Base: newBase(), Role: role, ConnectionID: connectionID}
}

func (r *PresentProofRep) RecordType() string {
	return PresentProofRecord
}

func (r *PresentProofRep) Tags() map[string]string {
	return r.tags(map[string]string{
		TagState:        r.State.String(),
		TagRole:         string(r.Role),
		TagConnectionID: r.ConnectionID,
		TagThreadID:     r.ThreadID,
	})
}

func (r *PresentProofRep) Fire(t ProofTrigger) (err error) {
	r.State, err = proofMachine.next(PresentProofRecord, r.State, t)
	if err == nil {
		r.touch()
	}
	return err
}
