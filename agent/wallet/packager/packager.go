/*
Package packager implements the wallet crypto service with the aries framework
packers. Authenticated messages are packed with the legacy authcrypt packer
through the aries packager, which also unpacks the JWE envelopes of the
authcrypt and anoncrypt packers. Anonymous messages use the legacy anoncrypt
packer, so both directions speak the Aries RFC 0019 envelope.

The keys are Ed25519 keys of a local KMS. Its keysets are stored to the record
store, so an agent keeps its keys over restarts.
*/
package packager

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-a2a/agent/wallet"
	"github.com/golang/glog"
	cryptoapi "github.com/hyperledger/aries-framework-go/pkg/crypto"
	"github.com/hyperledger/aries-framework-go/pkg/crypto/tinkcrypto"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/packager"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/packer"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/packer/anoncrypt"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/packer/authcrypt"
	legacyanon "github.com/hyperledger/aries-framework-go/pkg/didcomm/packer/legacy/anoncrypt"
	legacy "github.com/hyperledger/aries-framework-go/pkg/didcomm/packer/legacy/authcrypt"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/transport"
	"github.com/hyperledger/aries-framework-go/pkg/doc/jose"
	"github.com/hyperledger/aries-framework-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	registry "github.com/hyperledger/aries-framework-go/pkg/vdr"
	"github.com/hyperledger/aries-framework-go/pkg/vdr/fingerprint"
	"github.com/hyperledger/aries-framework-go/pkg/vdr/key"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

const (
	legacyTyp = "JWM/1.0"
	algAnon   = "Anoncrypt"
	keySize   = 32
)

var (
	ErrNoKey       = errors.New("no private key for any recipient")
	ErrNoRecipient = errors.New("no recipient keys")
	ErrBadKey      = errors.New("verkey is not an Ed25519 public key")
)

// provider gives the aries packers and the packager their services.
type provider struct {
	storage  *storageProvider
	keys     *kmsStorage
	crypto   cryptoapi.Crypto
	registry vdr.Registry
	packers  []packer.Packer
}

func (p *provider) Packers() []packer.Packer { return p.packers }
func (p *provider) PrimaryPacker() packer.Packer { return p.packers[0] }
func (p *provider) VDRegistry() vdr.Registry { return p.registry }
func (p *provider) KMS() kms.KeyManager { return p.keys.KMS() }
func (p *provider) Crypto() cryptoapi.Crypto { return p.crypto }
func (p *provider) StorageProvider() storage.Provider { return p.storage }

// Wallet is the crypto service. It's safe for concurrent use.
type Wallet struct {
	l        sync.RWMutex
	kids     map[string]string // verkey to KMS key ID
	store    api.Store
	packager *packager.Packager
	anon     packer.Packer
	kms      kms.KeyManager
}

var _ wallet.Crypto = (*Wallet)(nil)

// New creates a wallet over the record store. Nil store keeps the keys in
// memory.
func New(store api.Store) (w *Wallet, err error) {
	defer err2.Handle(&err, "wallet new")

	p := &provider{
		storage:  newStorageProvider(store),
		crypto:   try.To1(tinkcrypto.New()),
		registry: registry.New(registry.WithVDR(&key.VDR{})),
	}
	p.keys = try.To1(newKMSStorage(p.storage))

	// legacy authcrypt is the primary packer
	p.packers = append(p.packers, legacy.New(p))
	p.packers = append(p.packers, try.To1(authcrypt.New(p, jose.A256CBCHS512)))
	p.packers = append(p.packers, try.To1(anoncrypt.New(p, jose.A256GCM)))

	return &Wallet{
		kids:     make(map[string]string),
		store:    store,
		packager: try.To1(packager.New(p)),
		anon:     legacyanon.New(p),
		kms:      p.KMS(),
	}, nil
}

func (w *Wallet) CreateKey(ctx context.Context) (verkey string, err error) {
	defer err2.Handle(&err, "create key")

	kid, pk := try.To2(w.kms.CreateAndExportPubKeyBytes(kms.ED25519))
	verkey = base58.Encode(pk)
	if w.store != nil {
		try.To(w.store.Add(ctx, &keyRep{Verkey: verkey, KID: kid}))
	}
	w.l.Lock()
	w.kids[verkey] = kid
	w.l.Unlock()
	glog.V(3).Infoln("new key:", verkey)
	return verkey, nil
}

// owns tells if the verkey is created by this wallet.
func (w *Wallet) owns(ctx context.Context, verkey string) bool {
	w.l.RLock()
	_, ok := w.kids[verkey]
	w.l.RUnlock()
	if ok || w.store == nil {
		return ok
	}
	r, err := api.Get[keyRep](ctx, w.store, verkey)
	if err != nil {
		return false
	}
	w.l.Lock()
	w.kids[verkey] = r.KID
	w.l.Unlock()
	return true
}

func (w *Wallet) Pack(
	ctx context.Context,
	recipientKeys []string,
	senderKey string,
	msg []byte,
) (
	packed []byte,
	err error,
) {
	defer err2.Handle(&err, "pack")

	if len(recipientKeys) == 0 {
		return nil, ErrNoRecipient
	}
	if senderKey == "" {
		to := make([][]byte, 0, len(recipientKeys))
		for _, rk := range recipientKeys {
			to = append(to, try.To1(decodeKey(rk)))
		}
		packed = try.To1(w.anon.Pack("", msg, nil, to))
		glog.V(5).Infof("anoncrypted message to %v", recipientKeys)
		return packed, nil
	}

	if !w.owns(ctx, senderKey) {
		return nil, ErrNoKey
	}
	toKeys := make([]string, 0, len(recipientKeys))
	for _, rk := range recipientKeys {
		toKeys = append(toKeys, try.To1(didKey(rk)))
	}
	packed = try.To1(w.packager.PackMessage(&transport.Envelope{
		MediaTypeProfile: transport.MediaTypeProfileDIDCommAIP1,
		Message:          msg,
		FromKey:          []byte(try.To1(didKey(senderKey))),
		ToKeys:           toKeys,
	}))
	glog.V(5).Infof("authcrypted message to %v", recipientKeys)
	return packed, nil
}

func (w *Wallet) Unpack(ctx context.Context, packed []byte) (u *wallet.Unpacked, err error) {
	defer err2.Handle(&err, "unpack")

	h := try.To1(readHeader(packed))
	if h.Typ != legacyTyp {
		env := try.To1(w.packager.UnpackMessage(packed))
		return &wallet.Unpacked{
			Message:      env.Message,
			SenderKey:    verkeyOf(env.FromKey),
			RecipientKey: verkeyOf(env.ToKey),
		}, nil
	}

	recipientKey := ""
	for _, r := range h.Recipients {
		if w.owns(ctx, r.Header.KID) {
			recipientKey = r.Header.KID
			break
		}
	}
	if recipientKey == "" {
		return nil, ErrNoKey
	}

	var env *transport.Envelope
	if h.Alg == algAnon {
		env = try.To1(w.anon.Unpack(packed))
	} else {
		env = try.To1(w.packager.UnpackMessage(packed))
	}
	return &wallet.Unpacked{
		Message:      env.Message,
		SenderKey:    verkeyOf(env.FromKey),
		RecipientKey: recipientKey,
	}, nil
}

// readHeader decodes the protected header of the envelope.
func readHeader(packed []byte) (h *protected, err error) {
	defer err2.Handle(&err, "read header")

	var env envelope
	try.To(json.Unmarshal(packed, &env))
	data, err := base64.URLEncoding.DecodeString(env.Protected)
	if err != nil {
		data = try.To1(base64.RawURLEncoding.DecodeString(env.Protected))
	}
	h = new(protected)
	try.To(json.Unmarshal(data, h))
	return h, nil
}

func decodeKey(verkey string) ([]byte, error) {
	k, err := base58.Decode(verkey)
	if err != nil || len(k) != keySize {
		return nil, ErrBadKey
	}
	return k, nil
}

func didKey(verkey string) (string, error) {
	k, err := decodeKey(verkey)
	if err != nil {
		return "", err
	}
	dk, _ := fingerprint.CreateDIDKey(k)
	return dk, nil
}

// verkeyOf returns the verkey of a key the packers return: a did:key, a
// verkey or raw public key bytes.
func verkeyOf(k []byte) string {
	s := string(k)
	switch {
	case len(k) == 0:
		return ""
	case strings.HasPrefix(s, "did:key:"):
		pk, err := fingerprint.PubKeyFromDIDKey(s)
		if err != nil {
			return ""
		}
		return base58.Encode(pk)
	case len(k) == keySize:
		return base58.Encode(k)
	default:
		return s
	}
}
