package packager

import (
	"context"
	"errors"
	"flag"
	"os"
	"testing"

	"github.com/findy-network/findy-a2a/agent/storage/bolt"
	"github.com/findy-network/findy-a2a/agent/wallet"
	"github.com/google/tink/go/keyset"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

var testDir string

func TestMain(m *testing.M) {
	setUp()
	code := m.Run()
	tearDown()
	os.Exit(code)
}

func setUp() {
	try.To(flag.Set("logtostderr", "true"))
	try.To(flag.Set("stderrthreshold", "WARNING"))
	try.To(flag.Set("v", "10"))
	flag.Parse()

	testDir = try.To1(os.MkdirTemp("", "packager_test"))
}

func tearDown() {
	os.RemoveAll(testDir)
}

func TestAuthcrypt(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	alice, bob := try.To1(New(nil)), try.To1(New(nil))
	aliceVk := try.To1(alice.CreateKey(ctx))
	bobVk := try.To1(bob.CreateKey(ctx))

	packed := try.To1(alice.Pack(ctx, []string{bobVk}, aliceVk, []byte("hello")))
	h := try.To1(readHeader(packed))
	assert.Equal(h.Typ, legacyTyp)
	assert.Equal(h.Alg, "Authcrypt")
	assert.SLen(h.Recipients, 1)
	assert.Equal(h.Recipients[0].Header.KID, bobVk)

	u := try.To1(bob.Unpack(ctx, packed))
	assert.Equal(string(u.Message), "hello")
	assert.Equal(u.SenderKey, aliceVk)
	assert.Equal(u.RecipientKey, bobVk)

	_, err := alice.Unpack(ctx, packed)
	assert.That(errors.Is(err, ErrNoKey))
}

func TestAnoncrypt(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	w := try.To1(New(nil))
	vk1 := try.To1(w.CreateKey(ctx))
	other := try.To1(New(nil))
	vk2 := try.To1(other.CreateKey(ctx))

	packed := try.To1(try.To1(New(nil)).Pack(ctx, []string{vk2, vk1}, "", []byte(`{"a":1}`)))
	h := try.To1(readHeader(packed))
	assert.Equal(h.Typ, legacyTyp)
	assert.Equal(h.Alg, algAnon)
	assert.SLen(h.Recipients, 2)

	u := try.To1(w.Unpack(ctx, packed))
	assert.Equal(string(u.Message), `{"a":1}`)
	assert.Equal(u.SenderKey, "")
	assert.Equal(u.RecipientKey, vk1)

	u = try.To1(other.Unpack(ctx, packed))
	assert.Equal(u.RecipientKey, vk2)
}

func TestPackErrors(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	w := try.To1(New(nil))
	vk := try.To1(w.CreateKey(ctx))

	_, err := w.Pack(ctx, nil, vk, []byte("x"))
	assert.That(errors.Is(err, ErrNoRecipient))
	_, err = w.Pack(ctx, []string{vk}, "unknown-sender", []byte("x"))
	assert.That(errors.Is(err, ErrNoKey))
	_, err = w.Pack(ctx, []string{"not-base58-0OIl"}, "", []byte("x"))
	assert.That(errors.Is(err, ErrBadKey))
	_, err = w.Unpack(ctx, []byte("garbage"))
	assert.Error(err)
}

func TestKeysFromStore(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	s := try.To1(bolt.Open(bolt.Config{
		Key:      "15308490f1e4026284594dd08d31291bc8ef2aeac730d0daf6ff87bb92d4336c",
		FileName: "keys",
		FilePath: testDir,
	}))
	defer func() { assert.NoError(s.Close()) }()

	vk := try.To1(try.To1(New(s)).CreateKey(ctx))
	other := try.To1(New(nil))
	otherVk := try.To1(other.CreateKey(ctx))

	// a fresh wallet on the same store finds the key and its keyset
	w := try.To1(New(s))
	u := try.To1(w.Unpack(ctx, try.To1(other.Pack(ctx, []string{vk}, "", []byte("stored")))))
	assert.Equal(string(u.Message), "stored")

	packed := try.To1(w.Pack(ctx, []string{otherVk}, vk, []byte("signed")))
	u = try.To1(other.Unpack(ctx, packed))
	assert.Equal(u.SenderKey, vk)
}

func TestKeysetOverRestart(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	s := try.To1(bolt.Open(bolt.Config{FileName: "keysets", FilePath: testDir}))
	w := try.To1(New(s))
	vk := try.To1(w.CreateKey(ctx))
	kid := w.kids[vk]
	put := try.To1(w.kms.Get(kid)).(*keyset.Handle)
	assert.NoError(s.Close())

	s = try.To1(bolt.Open(bolt.Config{FileName: "keysets", FilePath: testDir}))
	defer func() { assert.NoError(s.Close()) }()
	w = try.To1(New(s))
	assert.That(w.owns(ctx, vk))
	assert.Equal(w.kids[vk], kid)
	got, ok := try.To1(w.kms.Get(kid)).(*keyset.Handle)
	assert.That(ok)

	putPrimitives := try.To1(put.Primitives())
	gotPrimitives := try.To1(got.Primitives())
	assert.MNotEmpty(putPrimitives.Entries)
	assert.Equal(len(putPrimitives.Entries), len(gotPrimitives.Entries))
}

func TestStorageProvider(t *testing.T) {
	tests := []struct {
		name  string
		store func() *storageProvider
	}{
		{"memory", func() *storageProvider { return newStorageProvider(nil) }},
		{"bolt", func() *storageProvider {
			s := try.To1(bolt.Open(bolt.Config{FileName: "aries", FilePath: testDir}))
			t.Cleanup(func() { _ = s.Close() })
			return newStorageProvider(s)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			p := tt.store()
			b := try.To1(p.OpenStore("kmsdb"))
			other := try.To1(p.OpenStore("other"))
			assert.SLen(p.GetOpenStores(), 2)

			_, err := b.Get("k1")
			assert.That(errors.Is(err, storage.ErrDataNotFound))
			assert.NoError(b.Put("k1", []byte("v1")))
			assert.NoError(b.Put("k1", []byte("v2")))
			assert.DeepEqual(try.To1(b.Get("k1")), []byte("v2"))
			_, err = other.Get("k1")
			assert.That(errors.Is(err, storage.ErrDataNotFound))

			assert.NoError(b.Batch([]storage.Operation{
				{Key: "k2", Value: []byte("v3")},
				{Key: "k1"},
			}))
			values := try.To1(b.GetBulk("k1", "k2"))
			assert.That(values[0] == nil)
			assert.DeepEqual(values[1], []byte("v3"))

			assert.NoError(b.Delete("k2"))
			assert.NoError(b.Delete("k2"))
			assert.Error(b.Put("", []byte("x")))
			assert.Error(b.Put("k3", []byte("x"), storage.Tag{Name: "n"}))
			_, err = b.Query("n:v")
			assert.Error(err)
		})
	}
}

func TestDIDFromVerkey(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	did, vk := try.To2(wallet.CreateDID(context.Background(), try.To1(New(nil))))
	assert.NotEmpty(did)
	assert.NotEqual(did, vk)
	assert.Equal(wallet.DIDFromVerkey(vk), did)
	assert.Equal(wallet.DIDFromVerkey("0"), "")
	assert.Equal(verkeyOf([]byte(try.To1(didKey(vk)))), vk)
}
