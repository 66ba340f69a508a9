/*
Package bolt implements the record store with bbolt. Each record type has its
own bucket. Values are GOB encoded items which are encrypted when the store
has a key, and then the bucket keys are hashes of the record IDs.
*/
package bolt

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/storage/api"
	"github.com/findy-network/findy-common-go/crypto"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	bolt "go.etcd.io/bbolt"
)

const level7 = 7

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store is closed")

type Config struct {
	Key      string // hex encoded 32 bytes, empty for plain storage
	FileName string
	FilePath string
}

// Filename returns the full name of the DB file.
func (c Config) Filename() string {
	path := "."
	if c.FilePath != "" {
		path = c.FilePath
	}
	return filepath.Join(path, c.FileName+".bolt")
}

type Store struct {
	l sync.RWMutex

	conf   Config
	db     *bolt.DB
	cipher *crypto.Cipher
}

// Open opens or creates the store file.
func Open(config Config) (s *Store, err error) {
	defer err2.Handle(&err, "bolt store open")

	s = &Store{conf: config}
	if config.Key != "" {
		k := try.To1(hex.DecodeString(config.Key))
		s.cipher = crypto.NewCipher(k)
	}
	s.db = try.To1(bolt.Open(config.Filename(), 0600, nil))
	glog.V(1).Infoln("record store open:", config.Filename())
	return s, nil
}

func (s *Store) Close() (err error) {
	defer err2.Handle(&err, "bolt store close")

	s.l.Lock()
	defer s.l.Unlock()

	if s.db == nil {
		glog.Warningf("store %s already closed", s.conf.FileName)
		return nil
	}
	try.To(s.db.Close())
	s.db = nil
	return nil
}

// Backup writes a consistent copy of the store to the file.
func (s *Store) Backup(filename string) (err error) {
	defer err2.Handle(&err, "bolt store backup")

	s.l.RLock()
	defer s.l.RUnlock()

	if s.db == nil {
		return ErrClosed
	}
	try.To(s.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(filename, 0600)
	}))
	glog.V(1).Infoln("record store backup:", filename)
	return nil
}

func (s *Store) Add(ctx context.Context, r api.Record) (err error) {
	defer err2.Handle(&err, "add %s", r.RecordType())

	return s.put(ctx, r, false)
}

func (s *Store) Update(ctx context.Context, r api.Record) (err error) {
	defer err2.Handle(&err, "update %s", r.RecordType())

	return s.put(ctx, r, true)
}

func (s *Store) put(ctx context.Context, r api.Record, mustExist bool) (err error) {
	try.To(ctx.Err())
	value := s.encrypt(dto.ToGOB(api.Item{
		ID:   r.RecordID(),
		Tags: r.Tags(),
		Data: try.To1(json.Marshal(r)),
	}))
	key := s.hash([]byte(r.RecordID()))

	return s.update(func(tx *bolt.Tx) error {
		b := try.To1(tx.CreateBucketIfNotExists([]byte(r.RecordType())))
		exists := b.Get(key) != nil
		switch {
		case mustExist && !exists:
			return fault.NotFound("%s %s", r.RecordType(), r.RecordID())
		case !mustExist && exists:
			return fmt.Errorf("%s %s already exists", r.RecordType(), r.RecordID())
		}
		glog.V(level7).Infoln("put", r.RecordType(), r.RecordID())
		return b.Put(key, value)
	})
}

func (s *Store) Get(ctx context.Context, recordType, id string) (item *api.Item, err error) {
	defer err2.Handle(&err, "get %s", recordType)

	try.To(ctx.Err())
	key := s.hash([]byte(id))
	try.To(s.view(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(recordType))
		if b == nil {
			return fault.NotFound("%s %s", recordType, id)
		}
		d := b.Get(key)
		if d == nil {
			return fault.NotFound("%s %s", recordType, id)
		}
		item = s.item(d)
		return nil
	}))
	return item, nil
}

// Search scans the bucket and matches the tags. A nil query matches all.
func (s *Store) Search(ctx context.Context, recordType string, q api.Query) (items []api.Item, err error) {
	defer err2.Handle(&err, "search %s", recordType)

	try.To(ctx.Err())
	try.To(s.view(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(recordType))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			it := s.item(v)
			if q == nil || q.Match(it.Tags) {
				items = append(items, *it)
			}
			return nil
		})
	}))
	glog.V(level7).Infof("search %s %v: %d", recordType, q, len(items))
	return items, nil
}

func (s *Store) Delete(ctx context.Context, recordType, id string) (err error) {
	defer err2.Handle(&err, "delete %s", recordType)

	try.To(ctx.Err())
	key := s.hash([]byte(id))
	return s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(recordType))
		if b == nil || b.Get(key) == nil {
			return fault.NotFound("%s %s", recordType, id)
		}
		return b.Delete(key)
	})
}

func (s *Store) update(f func(tx *bolt.Tx) error) error {
	s.l.RLock()
	defer s.l.RUnlock()

	if s.db == nil {
		return ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)
		return f(tx)
	})
}

func (s *Store) view(f func(tx *bolt.Tx) error) error {
	s.l.RLock()
	defer s.l.RUnlock()

	if s.db == nil {
		return ErrClosed
	}
	return s.db.View(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)
		return f(tx)
	})
}

// item copies the value because bolt's slices are valid only inside tx.
func (s *Store) item(d []byte) *api.Item {
	var it api.Item
	dto.FromGOB(s.decrypt(d), &it)
	return &it
}

// hash makes the bucket key of the record ID. With the cipher we don't store
// IDs as plain text.
func (s *Store) hash(key []byte) (k []byte) {
	if s.cipher != nil {
		h := md5.Sum(key)
		return h[:]
	}
	return append(key[:0:0], key...)
}

func (s *Store) encrypt(value []byte) (k []byte) {
	if s.cipher != nil {
		return s.cipher.TryEncrypt(value)
	}
	return value
}

func (s *Store) decrypt(value []byte) (k []byte) {
	if s.cipher != nil {
		return s.cipher.TryDecrypt(value)
	}
	return append(value[:0:0], value...)
}
