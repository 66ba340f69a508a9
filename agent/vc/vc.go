/*
Package vc has the contracts of the verifiable credential collaborators: the
ledger client, the anoncreds engine and the payment provider. The core calls
them but their internals live outside. All JSON values are opaque to the core.
*/
package vc

import "context"

// Schema is the schema information read from the ledger.
type Schema struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Attrs   []string `json:"attrNames"`
}

// Ledger is the ledger client. Pool handles are given by the agent context.
type Ledger interface {
	Schema(ctx context.Context, schemaID string) (*Schema, error)
	CredDef(ctx context.Context, credDefID string) (credDefJSON string, err error)
	CreateCredDef(ctx context.Context, issuerDID, schemaID, tag string) (credDefID string, err error)
}

// Issued is the credential engine's result of the issuing.
type Issued struct {
	CredentialJSON       string
	RevocationID         string
	RevocationRegistryID string
}

// Requested is the credential request and its metadata which the holder
// needs when it stores the credential.
type Requested struct {
	RequestJSON  string
	MetadataJSON string
}

// Engine is the anonymous credential engine.
type Engine interface {
	// issuer
	CreateOffer(ctx context.Context, credDefID string) (offerJSON string, err error)
	CreateCredential(ctx context.Context, offerJSON, requestJSON, valuesJSON string) (*Issued, error)
	Revoke(ctx context.Context, revRegID, revocationID string) error

	// holder
	CreateRequest(ctx context.Context, proverDID, offerJSON, credDefJSON string) (*Requested, error)
	StoreCredential(ctx context.Context, requestMetadataJSON, credentialJSON, credDefJSON string) (credentialID string, err error)

	// prover and verifier
	CreateProof(ctx context.Context, requestJSON string) (proofJSON string, err error)
	VerifyProof(ctx context.Context, requestJSON, proofJSON string) (bool, error)
}

// PaymentProvider moves the tokens.
type PaymentProvider interface {
	CreateAddress(ctx context.Context) (string, error)
	Balance(ctx context.Context, address string) (uint64, error)
	Transfer(ctx context.Context, from, to string, amount uint64) (transactionID string, err error)
}
