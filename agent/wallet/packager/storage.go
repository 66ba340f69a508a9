package packager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const (
	level7     = 7
	dataRecord = "AriesData"
	tagBucket  = "bucket"
)

var errNotSupported = errors.New("not supported by the record store")

// dataRep is one key value pair of an aries store.
type dataRep struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Value  []byte `json:"value"`
}

func (d *dataRep) RecordID() string   { return d.Bucket + "/" + d.Key }
func (d *dataRep) RecordType() string { return dataRecord }
func (d *dataRep) Tags() map[string]string {
	return map[string]string{tagBucket: d.Bucket}
}

// storageProvider is the aries storage provider over the record store. The
// aries framework only calls it without context. Without the record store the
// data lives in memory.
type storageProvider struct {
	l       sync.Mutex
	store   api.Store
	buckets map[string]*bucket
}

func newStorageProvider(store api.Store) *storageProvider {
	return &storageProvider{
		store:   store,
		buckets: make(map[string]*bucket),
	}
}

func (s *storageProvider) OpenStore(name string) (storage.Store, error) {
	glog.V(level7).Infoln("storageProvider::OpenStore", name)

	s.l.Lock()
	defer s.l.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		b = &bucket{name: name, owner: s}
		if s.store == nil {
			b.mem = make(map[string][]byte)
		}
		s.buckets[name] = b
	}
	return b, nil
}

func (s *storageProvider) SetStoreConfig(name string, _ storage.StoreConfiguration) error {
	glog.V(level7).Infoln("storageProvider::SetStoreConfig", name)
	return nil
}

func (s *storageProvider) GetStoreConfig(name string) (storage.StoreConfiguration, error) {
	s.l.Lock()
	defer s.l.Unlock()

	if _, ok := s.buckets[name]; !ok {
		return storage.StoreConfiguration{}, storage.ErrStoreNotFound
	}
	return storage.StoreConfiguration{}, nil
}

func (s *storageProvider) GetOpenStores() []storage.Store {
	s.l.Lock()
	defer s.l.Unlock()

	stores := make([]storage.Store, 0, len(s.buckets))
	for _, b := range s.buckets {
		stores = append(stores, b)
	}
	return stores
}

// Close does nothing because the record store is closed by its owner.
func (s *storageProvider) Close() error {
	return nil
}

type bucket struct {
	l     sync.RWMutex
	name  string
	owner *storageProvider
	mem   map[string][]byte
}

// Put stores the key value pair. Tags aren't supported.
func (b *bucket) Put(key string, value []byte, tags ...storage.Tag) (err error) {
	defer err2.Handle(&err, "aries store put")

	glog.V(level7).Infoln("bucket::Put", b.name, key)
	if key == "" || value == nil {
		return fmt.Errorf("key and value are mandatory")
	}
	if len(tags) > 0 {
		return fmt.Errorf("tags: %w", errNotSupported)
	}
	if b.mem != nil {
		b.l.Lock()
		b.mem[key] = append(value[:0:0], value...)
		b.l.Unlock()
		return nil
	}

	ctx := context.Background()
	r := &dataRep{Bucket: b.name, Key: key, Value: value}
	err = b.owner.store.Update(ctx, r)
	if errors.Is(err, fault.ErrRecordNotFound) {
		err = b.owner.store.Add(ctx, r)
	}
	return err
}

// Get fails with storage.ErrDataNotFound when the key is unknown, which the
// KMS expects.
func (b *bucket) Get(key string) (_ []byte, err error) {
	defer err2.Handle(&err, "aries store get")

	glog.V(level7).Infoln("bucket::Get", b.name, key)
	if b.mem != nil {
		b.l.RLock()
		defer b.l.RUnlock()
		v, ok := b.mem[key]
		if !ok {
			return nil, storage.ErrDataNotFound
		}
		return append(v[:0:0], v...), nil
	}

	r := &dataRep{Bucket: b.name, Key: key}
	d, err := api.Get[dataRep](context.Background(), b.owner.store, r.RecordID())
	if errors.Is(err, fault.ErrRecordNotFound) {
		return nil, storage.ErrDataNotFound
	}
	try.To(err)
	return d.Value, nil
}

func (b *bucket) GetTags(key string) ([]storage.Tag, error) {
	if _, err := b.Get(key); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *bucket) GetBulk(keys ...string) (values [][]byte, err error) {
	values = make([][]byte, len(keys))
	for i, k := range keys {
		v, err := b.Get(k)
		switch {
		case errors.Is(err, storage.ErrDataNotFound):
		case err != nil:
			return nil, err
		default:
			values[i] = v
		}
	}
	return values, nil
}

func (b *bucket) Query(expression string, _ ...storage.QueryOption) (storage.Iterator, error) {
	glog.V(level7).Infoln("bucket::Query", b.name, expression)
	return nil, fmt.Errorf("query: %w", errNotSupported)
}

// Delete of an unknown key isn't an error.
func (b *bucket) Delete(key string) error {
	glog.V(level7).Infoln("bucket::Delete", b.name, key)

	if b.mem != nil {
		b.l.Lock()
		delete(b.mem, key)
		b.l.Unlock()
		return nil
	}
	r := &dataRep{Bucket: b.name, Key: key}
	err := b.owner.store.Delete(context.Background(), dataRecord, r.RecordID())
	if errors.Is(err, fault.ErrRecordNotFound) {
		return nil
	}
	return err
}

// Batch runs the operations in order. Nil value deletes the key.
func (b *bucket) Batch(operations []storage.Operation) (err error) {
	defer err2.Handle(&err, "aries store batch")

	for _, op := range operations {
		if op.Value == nil {
			try.To(b.Delete(op.Key))
			continue
		}
		try.To(b.Put(op.Key, op.Value, op.Tags...))
	}
	return nil
}

func (b *bucket) Flush() error { return nil }
func (b *bucket) Close() error { return nil }
