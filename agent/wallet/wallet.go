/*
Package wallet is the contract of the crypto service the agent core uses. The
wallet owns the private keys. The core only knows verkeys, i.e. base58
encoded public keys, and asks the wallet to pack and unpack the messages.
*/
package wallet

import (
	"context"

	"github.com/mr-tron/base58"
)

// Unpacked is the result of Unpack. SenderKey is empty for anoncrypted
// messages.
type Unpacked struct {
	Message      []byte
	SenderKey    string
	RecipientKey string
}

// Crypto is the wallet's crypto service.
type Crypto interface {
	// CreateKey creates a new key pair and returns its verkey.
	CreateKey(ctx context.Context) (verkey string, err error)

	// Pack encrypts the message to all of the recipient keys. Empty sender
	// key means anonymous packing.
	Pack(ctx context.Context, recipientKeys []string, senderKey string, msg []byte) ([]byte, error)

	// Unpack decrypts the message with the first recipient key we own.
	Unpack(ctx context.Context, packed []byte) (*Unpacked, error)
}

// DIDFromVerkey returns the indy style DID for the verkey: the first 16
// bytes of the key base58 encoded.
func DIDFromVerkey(verkey string) string {
	k, err := base58.Decode(verkey)
	if err != nil || len(k) < 16 {
		return ""
	}
	return base58.Encode(k[:16])
}

// CreateDID creates a key and its DID.
func CreateDID(ctx context.Context, c Crypto) (did, verkey string, err error) {
	verkey, err = c.CreateKey(ctx)
	if err != nil {
		return "", "", err
	}
	return DIDFromVerkey(verkey), verkey, nil
}
