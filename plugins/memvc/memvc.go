/*
Package memvc is an in-memory verifiable credential backend. The ledger,
credential engine and payment provider keep everything in maps and the JSON
they produce has only the fields needed to tie an offer, a request, a
credential and a proof together. It's for the local runs and the tests: there
is no cryptography and the proofs reveal the raw values.

The backend registers itself as plugin "mem".
*/
package memvc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/findy-network/findy-a2a/agent/vc"
	"github.com/findy-network/findy-a2a/plugins"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/google/uuid"
	"github.com/lainio/err2"
)

const PluginName = "mem"

func init() {
	plugins.AddPlugin(PluginName, func() plugins.Plugin {
		return New()
	})
}

// Backend has one ledger and payment network shared by all the engines it
// creates.
type Backend struct {
	ledger   *Ledger
	payments *Payments
}

func New() *Backend {
	return &Backend{ledger: NewLedger(), payments: NewPayments()}
}

func (b *Backend) Ledger() vc.Ledger             { return b.ledger }
func (b *Backend) Engine() vc.Engine             { return NewEngine(b.ledger) }
func (b *Backend) Payments() vc.PaymentProvider { return b.payments }

type credDef struct {
	ID       string `json:"id"`
	SchemaID string `json:"schema_id"`
	Issuer   string `json:"issuer_did"`
	Tag      string `json:"tag"`
}

// Ledger keeps the schemas, credential definitions and revocations.
type Ledger struct {
	l        sync.RWMutex
	schemas  map[string]*vc.Schema
	credDefs map[string]credDef
	revoked  map[string]bool
}

func NewLedger() *Ledger {
	return &Ledger{
		schemas:  make(map[string]*vc.Schema),
		credDefs: make(map[string]credDef),
		revoked:  make(map[string]bool),
	}
}

// AddSchema writes the schema and returns its id.
func (l *Ledger) AddSchema(issuerDID, name, version string, attrs ...string) string {
	id := fmt.Sprintf("%s:2:%s:%s", issuerDID, name, version)
	l.l.Lock()
	defer l.l.Unlock()
	l.schemas[id] = &vc.Schema{ID: id, Name: name, Version: version, Attrs: attrs}
	return id
}

func (l *Ledger) Schema(_ context.Context, schemaID string) (*vc.Schema, error) {
	l.l.RLock()
	defer l.l.RUnlock()
	s, ok := l.schemas[schemaID]
	if !ok {
		return nil, fmt.Errorf("schema %s not found", schemaID)
	}
	c := *s
	return &c, nil
}

func (l *Ledger) CredDef(_ context.Context, credDefID string) (string, error) {
	l.l.RLock()
	defer l.l.RUnlock()
	cd, ok := l.credDefs[credDefID]
	if !ok {
		return "", fmt.Errorf("cred def %s not found", credDefID)
	}
	return dto.ToJSON(cd), nil
}

func (l *Ledger) CreateCredDef(_ context.Context, issuerDID, schemaID, tag string) (string, error) {
	l.l.Lock()
	defer l.l.Unlock()
	if _, ok := l.schemas[schemaID]; !ok {
		return "", fmt.Errorf("schema %s not found", schemaID)
	}
	id := fmt.Sprintf("%s:3:CL:%s:%s", issuerDID, schemaID, tag)
	l.credDefs[id] = credDef{ID: id, SchemaID: schemaID, Issuer: issuerDID, Tag: tag}
	return id, nil
}

func (l *Ledger) credDef(id string) (credDef, bool) {
	l.l.RLock()
	defer l.l.RUnlock()
	cd, ok := l.credDefs[id]
	return cd, ok
}

func (l *Ledger) revoke(revRegID, revID string) {
	l.l.Lock()
	defer l.l.Unlock()
	l.revoked[revRegID+"/"+revID] = true
}

func (l *Ledger) isRevoked(revRegID, revID string) bool {
	l.l.RLock()
	defer l.l.RUnlock()
	return l.revoked[revRegID+"/"+revID]
}

type offer struct {
	CredDefID string `json:"cred_def_id"`
	SchemaID  string `json:"schema_id"`
	Nonce     string `json:"nonce"`
}

type request struct {
	ProverDID string `json:"prover_did"`
	CredDefID string `json:"cred_def_id"`
	Nonce     string `json:"nonce"`
}

type credential struct {
	CredDefID string            `json:"cred_def_id"`
	SchemaID  string            `json:"schema_id"`
	Values    map[string]string `json:"values"`
	RevRegID  string            `json:"rev_reg_id"`
	CredRevID string            `json:"cred_rev_id"`
}

type attrRequest struct {
	Name string `json:"name"`
}

type proofRequest struct {
	Nonce               string                 `json:"nonce"`
	RequestedAttributes map[string]attrRequest `json:"requested_attributes"`
}

type revealed struct {
	Raw       string `json:"raw"`
	CredDefID string `json:"cred_def_id"`
	RevRegID  string `json:"rev_reg_id"`
	CredRevID string `json:"cred_rev_id"`
}

type proof struct {
	Nonce    string              `json:"nonce"`
	Revealed map[string]revealed `json:"revealed_attrs"`
}

// Engine is the credential engine of one wallet. Its stored credentials are
// its own, the ledger is shared.
type Engine struct {
	ledger *Ledger

	l      sync.Mutex
	creds  map[string]credential
	nextID int
}

func NewEngine(l *Ledger) *Engine {
	return &Engine{ledger: l, creds: make(map[string]credential)}
}

func (e *Engine) CreateOffer(_ context.Context, credDefID string) (_ string, err error) {
	defer err2.Handle(&err, "create offer")

	cd, ok := e.ledger.credDef(credDefID)
	if !ok {
		return "", fmt.Errorf("cred def %s not found", credDefID)
	}
	return dto.ToJSON(offer{CredDefID: cd.ID, SchemaID: cd.SchemaID, Nonce: uuid.New().String()}), nil
}

func (e *Engine) CreateRequest(_ context.Context, proverDID, offerJSON, credDefJSON string) (_ *vc.Requested, err error) {
	defer err2.Handle(&err, "create request")

	var o offer
	dto.FromJSONStr(offerJSON, &o)
	var cd credDef
	dto.FromJSONStr(credDefJSON, &cd)
	if o.CredDefID != cd.ID {
		return nil, fmt.Errorf("offer is for %s not %s", o.CredDefID, cd.ID)
	}
	return &vc.Requested{
		RequestJSON:  dto.ToJSON(request{ProverDID: proverDID, CredDefID: o.CredDefID, Nonce: o.Nonce}),
		MetadataJSON: dto.ToJSON(map[string]string{"nonce": o.Nonce}),
	}, nil
}

func (e *Engine) CreateCredential(_ context.Context, offerJSON, requestJSON, valuesJSON string) (_ *vc.Issued, err error) {
	defer err2.Handle(&err, "create credential")

	var (
		o      offer
		r      request
		values map[string]string
	)
	dto.FromJSONStr(offerJSON, &o)
	dto.FromJSONStr(requestJSON, &r)
	dto.FromJSONStr(valuesJSON, &values)
	if r.Nonce != o.Nonce || r.CredDefID != o.CredDefID {
		return nil, fmt.Errorf("request does not match the offer")
	}

	e.l.Lock()
	e.nextID++
	revID := fmt.Sprint(e.nextID)
	e.l.Unlock()

	c := credential{
		CredDefID: o.CredDefID,
		SchemaID:  o.SchemaID,
		Values:    values,
		RevRegID:  o.CredDefID + ":CL_ACCUM",
		CredRevID: revID,
	}
	return &vc.Issued{
		CredentialJSON:       dto.ToJSON(c),
		RevocationID:         c.CredRevID,
		RevocationRegistryID: c.RevRegID,
	}, nil
}

func (e *Engine) Revoke(_ context.Context, revRegID, revocationID string) error {
	e.ledger.revoke(revRegID, revocationID)
	return nil
}

func (e *Engine) StoreCredential(_ context.Context, requestMetadataJSON, credentialJSON, credDefJSON string) (_ string, err error) {
	defer err2.Handle(&err, "store credential")

	var c credential
	dto.FromJSONStr(credentialJSON, &c)
	var cd credDef
	dto.FromJSONStr(credDefJSON, &cd)
	if c.CredDefID != cd.ID {
		return "", fmt.Errorf("credential is for %s not %s", c.CredDefID, cd.ID)
	}

	id := uuid.New().String()
	e.l.Lock()
	e.creds[id] = c
	e.l.Unlock()
	return id, nil
}

// CreateProof reveals every requested attribute from the first stored
// credential having it.
func (e *Engine) CreateProof(_ context.Context, requestJSON string) (_ string, err error) {
	defer err2.Handle(&err, "create proof")

	var req proofRequest
	dto.FromJSONStr(requestJSON, &req)

	e.l.Lock()
	defer e.l.Unlock()

	p := proof{Nonce: req.Nonce, Revealed: make(map[string]revealed)}
	for ref, attr := range req.RequestedAttributes {
		found := false
		for _, c := range e.creds {
			if v, ok := c.Values[attr.Name]; ok {
				p.Revealed[ref] = revealed{
					Raw:       v,
					CredDefID: c.CredDefID,
					RevRegID:  c.RevRegID,
					CredRevID: c.CredRevID,
				}
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("no credential for attribute %s", attr.Name)
		}
	}
	return dto.ToJSON(p), nil
}

// VerifyProof checks that every requested attribute is revealed from a
// credential which isn't revoked.
func (e *Engine) VerifyProof(_ context.Context, requestJSON, proofJSON string) (_ bool, err error) {
	defer err2.Handle(&err, "verify proof")

	var (
		req proofRequest
		p   proof
	)
	dto.FromJSONStr(requestJSON, &req)
	dto.FromJSONStr(proofJSON, &p)
	if req.Nonce != p.Nonce {
		return false, nil
	}
	for ref := range req.RequestedAttributes {
		r, ok := p.Revealed[ref]
		if !ok {
			return false, nil
		}
		if _, ok := e.ledger.credDef(r.CredDefID); !ok {
			return false, nil
		}
		if e.ledger.isRevoked(r.RevRegID, r.CredRevID) {
			return false, nil
		}
	}
	return true, nil
}

// NewProofRequest builds the proof request JSON which asks the attributes.
func NewProofRequest(attrs ...string) string {
	req := proofRequest{
		Nonce:               uuid.New().String(),
		RequestedAttributes: make(map[string]attrRequest, len(attrs)),
	}
	for i, a := range attrs {
		req.RequestedAttributes[fmt.Sprintf("attr%d_referent", i+1)] = attrRequest{Name: a}
	}
	return dto.ToJSON(req)
}

// ErrInsufficientFunds is returned by Transfer.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Payments is the token network.
type Payments struct {
	l        sync.Mutex
	balances map[string]uint64
}

func NewPayments() *Payments {
	return &Payments{balances: make(map[string]uint64)}
}

func (p *Payments) CreateAddress(context.Context) (string, error) {
	addr := "pay:mem:" + uuid.New().String()
	p.l.Lock()
	defer p.l.Unlock()
	p.balances[addr] = 0
	return addr, nil
}

// Mint adds tokens to the address.
func (p *Payments) Mint(address string, amount uint64) {
	p.l.Lock()
	defer p.l.Unlock()
	p.balances[address] += amount
}

func (p *Payments) Balance(_ context.Context, address string) (uint64, error) {
	p.l.Lock()
	defer p.l.Unlock()
	b, ok := p.balances[address]
	if !ok {
		return 0, fmt.Errorf("unknown address %s", address)
	}
	return b, nil
}

func (p *Payments) Transfer(_ context.Context, from, to string, amount uint64) (string, error) {
	p.l.Lock()
	defer p.l.Unlock()
	if p.balances[from] < amount {
		return "", ErrInsufficientFunds
	}
	p.balances[from] -= amount
	p.balances[to] += amount
	return uuid.New().String(), nil
}
