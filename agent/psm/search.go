package psm

import (
	"context"
	"errors"

	"github.com/findy-network/findy-a2a/agent/fault"
	"github.com/findy-network/findy-a2a/agent/storage/api"
)

// threadRep is a protocol rep which is found by its message thread.
type threadRep[T any] interface {
	*T
	api.Record
}

// FindByThread returns the one rep of the thread on the connection in the
// role. The protocol handlers use it to continue the conversation.
func FindByThread[T any, P threadRep[T]](
	ctx context.Context,
	s api.Store,
	connectionID, threadID string,
	role Role,
) (P, error) {
	return api.SearchOne[T, P](ctx, s, api.And(
		api.Eq(TagConnectionID, connectionID),
		api.Eq(TagThreadID, threadID),
		api.Eq(TagRole, string(role)),
	))
}

// LookupThread is FindByThread for the first message of a thread: an unknown
// thread isn't an error but a nil rep. A redelivered message finds the rep
// it already created.
func LookupThread[T any, P threadRep[T]](
	ctx context.Context,
	s api.Store,
	connectionID, threadID string,
	role Role,
) (P, error) {
	rep, err := FindByThread[T, P](ctx, s, connectionID, threadID, role)
	if errors.Is(err, fault.ErrRecordNotFound) {
		return nil, nil
	}
	return rep, err
}
