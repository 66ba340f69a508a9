package connection

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/models/did/endpoint"
	"github.com/hyperledger/aries-framework-go/pkg/doc/did"
	"github.com/mr-tron/base58"
)

const (
	contextDIDv1   = "https://w3id.org/did/v1"
	keyTypeEd25519 = "Ed25519VerificationKey2018"
	serviceIndy    = "IndyAgent"
)

// DIDDoc is the indy style DID document the connection protocol exchanges:
// one verkey and one agent service. VMs and Services give it as the aries DID
// document parts.
type DIDDoc struct {
	Context   string      `json:"@context"`
	ID        string      `json:"id"`
	PublicKey []PublicKey `json:"publicKey"`
	Service   []Service   `json:"service"`
}

type PublicKey struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Controller      string `json:"controller"`
	PublicKeyBase58 string `json:"publicKeyBase58"`
}

type Service struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Priority        int      `json:"priority"`
	RecipientKeys   []string `json:"recipientKeys"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
}

// NewDIDDoc builds the DID doc for our side of the connection.
func NewDIDDoc(myDID, verkey, uri string, routingKeys []string) *DIDDoc {
	return &DIDDoc{
		Context: contextDIDv1,
		ID:      myDID,
		PublicKey: []PublicKey{{
			ID:              fmt.Sprintf("%s#1", myDID),
			Type:            keyTypeEd25519,
			Controller:      myDID,
			PublicKeyBase58: verkey,
		}},
		Service: []Service{{
			ID:              fmt.Sprintf("%s;indy", myDID),
			Type:            serviceIndy,
			RecipientKeys:   []string{verkey},
			RoutingKeys:     routingKeys,
			ServiceEndpoint: uri,
		}},
	}
}

// VMs returns the public keys as verification methods. Keys which aren't
// base58 are skipped.
func (d *DIDDoc) VMs() []did.VerificationMethod {
	if d == nil {
		return nil
	}
	vms := make([]did.VerificationMethod, 0, len(d.PublicKey))
	for _, pk := range d.PublicKey {
		value, err := base58.Decode(pk.PublicKeyBase58)
		if err != nil {
			continue
		}
		vms = append(vms, did.VerificationMethod{
			ID:         pk.ID,
			Type:       pk.Type,
			Controller: pk.Controller,
			Value:      value,
		})
	}
	return vms
}

// Services returns the services with DIDComm v1 endpoints.
func (d *DIDDoc) Services() []did.Service {
	if d == nil {
		return nil
	}
	services := make([]did.Service, len(d.Service))
	for i, s := range d.Service {
		services[i] = did.Service{
			ID:              s.ID,
			Type:            s.Type,
			RecipientKeys:   s.RecipientKeys,
			RoutingKeys:     s.RoutingKeys,
			ServiceEndpoint: endpoint.NewDIDCommV1Endpoint(s.ServiceEndpoint),
		}
	}
	return services
}

// Verkey returns the first public key of the doc, or the first recipient key
// if the doc has no public keys.
func (d *DIDDoc) Verkey() string {
	if vms := d.VMs(); len(vms) > 0 {
		return base58.Encode(vms[0].Value)
	}
	if services := d.Services(); len(services) > 0 && len(services[0].RecipientKeys) > 0 {
		return services[0].RecipientKeys[0]
	}
	return ""
}

// Endpoint returns the service endpoint, recipient keys and routing keys of
// the first service.
func (d *DIDDoc) Endpoint() (uri string, recipientKeys, routingKeys []string) {
	services := d.Services()
	if len(services) == 0 {
		return "", nil, nil
	}
	s := services[0]
	uri, err := s.ServiceEndpoint.URI()
	if err != nil {
		return "", nil, nil
	}
	return uri, s.RecipientKeys, s.RoutingKeys
}
