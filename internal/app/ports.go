package app

import (
	"context"

	"whobible-live/internal/domain"
)

// RoomStore is the shared, concurrently-writable tree one live room is kept
// in. Paths are slash-separated ("responses/p1"); a subscriber receives the
// full current value of its subtree after every write underneath it.
// Implementations deliver notifications asynchronously but in write order
// per subscriber, so a late snapshot never overwrites a newer one.
type RoomStore interface {
	// CreateRoom fails with domain.ErrRoomCodeTaken if code is live.
	CreateRoom(ctx context.Context, code string, room domain.Room) error
	GetRoom(ctx context.Context, code string) (domain.Room, error)
	SetField(ctx context.Context, code, path string, value any) error
	// Subscribe returns an unsubscribe function. The callback value is
	// JSON-representable; decode with DecodeValue.
	Subscribe(ctx context.Context, code, path string, fn func(value any)) (func(), error)
	RemoveRoom(ctx context.Context, code string) error
}

// PoolProvider loads the people pool questions are generated from.
type PoolProvider interface {
	LoadPool(ctx context.Context) ([]domain.Person, error)
}

// SessionRegistry tracks the live host sessions of this process.
type SessionRegistry interface {
	Put(code string, session *Session)
	Get(code string) (*Session, bool)
	Delete(code string)
}
