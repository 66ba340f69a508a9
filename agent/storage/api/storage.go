/*
Package api is the contract of the wallet record storage. All the protocol
reps are stored through it. A record is JSON data with a tag map; searches
match only the tags.
*/
package api

import (
	"context"
	"encoding/json"

	"github.com/findy-network/findy-a2a/agent/fault"
)

// ErrAmbiguous is returned by SearchOne when more than one record matches.
// Its code is fault.RecordAmbiguous.
var ErrAmbiguous = fault.ErrRecordAmbiguous

// Record is a storable rep. Tags must be derivable from the typed fields at
// any time.
type Record interface {
	RecordID() string
	RecordType() string
	Tags() map[string]string
}

// Item is a stored record in its raw form.
type Item struct {
	ID   string            `json:"id"`
	Tags map[string]string `json:"tags"`
	Data json.RawMessage   `json:"data"`
}

// Store is the record service. Get fails with fault.RecordNotFound if there
// is no record with the id.
type Store interface {
	Add(ctx context.Context, r Record) error
	Update(ctx context.Context, r Record) error
	Get(ctx context.Context, recordType, id string) (*Item, error)
	Search(ctx context.Context, recordType string, q Query) ([]Item, error)
	Delete(ctx context.Context, recordType, id string) error
}

// ptr is the constraint for record types whose pointer is the Record.
type ptr[T any] interface {
	*T
	Record
}

// Get reads the record of type T.
func Get[T any, P ptr[T]](ctx context.Context, s Store, id string) (P, error) {
	var zero P = new(T)
	item, err := s.Get(ctx, zero.RecordType(), id)
	if err != nil {
		return nil, err
	}
	return decode[T, P](item)
}

// Search returns all the records of type T matching the query. Nil query
// matches all.
func Search[T any, P ptr[T]](ctx context.Context, s Store, q Query) ([]P, error) {
	var zero P = new(T)
	items, err := s.Search(ctx, zero.RecordType(), q)
	if err != nil {
		return nil, err
	}
	res := make([]P, 0, len(items))
	for i := range items {
		r, err := decode[T, P](&items[i])
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, nil
}

// SearchOne returns exactly one record of type T. Zero matches fails with
// fault.RecordNotFound and more than one with ErrAmbiguous.
func SearchOne[T any, P ptr[T]](ctx context.Context, s Store, q Query) (P, error) {
	res, err := Search[T, P](ctx, s, q)
	if err != nil {
		return nil, err
	}
	switch len(res) {
	case 0:
		return nil, fault.NotFound("no record matches %s", q)
	case 1:
		return res[0], nil
	default:
		return nil, fault.New(fault.RecordAmbiguous, "%d records match %s", len(res), q)
	}
}

func decode[T any, P ptr[T]](item *Item) (P, error) {
	var r P = new(T)
	if err := json.Unmarshal(item.Data, r); err != nil {
		return nil, err
	}
	return r, nil
}
