package bus

import (
	"context"

	"github.com/findy-network/findy-a2a/agent/psm"
	"github.com/findy-network/findy-a2a/agent/storage/api"
)

type notifyingStore struct {
	api.Store
	station *Station
}

// Store wraps the record store so that every successful Add and Update is
// broadcast to the station.
func Store(s api.Store, station *Station) api.Store {
	return &notifyingStore{Store: s, station: station}
}

func (s *notifyingStore) Add(ctx context.Context, r api.Record) error {
	if err := s.Store.Add(ctx, r); err != nil {
		return err
	}
	s.broadcast(r)
	return nil
}

func (s *notifyingStore) Update(ctx context.Context, r api.Record) error {
	if err := s.Store.Update(ctx, r); err != nil {
		return err
	}
	s.broadcast(r)
	return nil
}

func (s *notifyingStore) broadcast(r api.Record) {
	tags := r.Tags()
	state, ok := tags[psm.TagState]
	if !ok {
		return
	}
	s.station.Broadcast(Notify{
		RecordType:   r.RecordType(),
		ID:           r.RecordID(),
		State:        state,
		ConnectionID: tags[psm.TagConnectionID],
	})
}
