package packager

import (
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/hyperledger/aries-framework-go/pkg/kms/localkms"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock/noop"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// primaryKeyURI is the master key URI of the local KMS. The keysets are not
// locked because the record store encrypts them.
const primaryKeyURI = "local-lock://primary/findy-a2a/"

// kmsStorage is the localkms provider: keysets go to the aries store of the
// storage provider.
type kmsStorage struct {
	kms      kms.KeyManager
	owner    kms.Store
	noopLock secretlock.Service
}

func newKMSStorage(owner *storageProvider) (k *kmsStorage, err error) {
	defer err2.Handle(&err, "new kms storage")

	k = &kmsStorage{
		owner:    try.To1(kms.NewAriesProviderWrapper(owner)),
		noopLock: &noop.NoLock{},
	}
	k.kms = try.To1(localkms.New(primaryKeyURI, k))
	return k, nil
}

func (k *kmsStorage) StorageProvider() kms.Store {
	return k.owner
}

func (k *kmsStorage) SecretLock() secretlock.Service {
	return k.noopLock
}

func (k *kmsStorage) KMS() kms.KeyManager {
	return k.kms
}
