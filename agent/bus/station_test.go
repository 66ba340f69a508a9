package bus

import (
	"context"
	"os"
	"testing"

	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/bolt"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

func TestStation(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	s := New()
	c1 := s.AddListener("one")
	c2 := s.AddListener("two")

	s.Broadcast(Notify{RecordType: "R", ID: "1", State: "Invited"})
	n := <-c1
	assert.Equal(n.ID, "1")
	n = <-c2
	assert.Equal(n.State, "Invited")

	s.RmListener("two")
	_, open := <-c2
	assert.That(!open)
	s.RmListener("two")

	// a full listener doesn't block
	for i := 0; i < bufSize+5; i++ {
		s.Broadcast(Notify{ID: "x"})
	}
	assert.Equal(len(c1), bufSize)
}

func TestReplaceListener(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	s := New()
	old := s.AddListener("same")
	c := s.AddListener("same")
	_, open := <-old
	assert.That(!open)

	s.Broadcast(Notify{ID: "1"})
	n := <-c
	assert.Equal(n.ID, "1")
	assert.Equal(len(s.listeners), 1)
}

func TestStore(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	dir := try.To1(os.MkdirTemp("", "bus_test"))
	defer os.RemoveAll(dir)
	db := try.To1(bolt.Open(bolt.Config{FileName: "bus", FilePath: dir}))
	defer func() { assert.NoError(db.Close()) }()

	st := New()
	c := st.AddListener("test")
	store := Store(db, st)

	ctx := context.Background()
	r := psm.NewIssueCredRep(psm.RoleIssuer, "conn-1")
	try.To(store.Add(ctx, r))
	try.To(r.Fire(psm.TriggerCredRequest))
	try.To(store.Update(ctx, r))

	n := <-c
	assert.Equal(n.RecordType, psm.IssueCredRecord)
	assert.Equal(n.State, "Offered")
	assert.Equal(n.ConnectionID, "conn-1")
	n = <-c
	assert.Equal(n.State, "Requested")

	assert.Error(store.Add(ctx, r))
	assert.Equal(len(c), 0)
}
