package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"whobible-live/internal/domain"
	"whobible-live/internal/infra/memory"
)

// RoomStore layers Redis persistence over the in-process room tree.
// Notes:
//   - Subscriptions and path writes run against the local tree, reusing the
//     in-process delivery logic.
//   - Redis holds the full room document under room:{code} with a TTL that
//     is refreshed on every write, so an abandoned room expires on its own.
//   - For true multi-instance distribution you'd pair this with a pub/sub
//     projector that fans writes out to the other hosts.
type RoomStore struct {
	local  *memory.RoomStore
	client *redis.Client
	ttl    time.Duration
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		local:  memory.NewRoomStore(),
		client: client,
		ttl:    ttl,
	}
}

func (s *RoomStore) CreateRoom(ctx context.Context, code string, room domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.key(code), data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRoomCodeTaken
	}
	if err := s.local.CreateRoom(ctx, code, room); err != nil {
		_ = s.client.Del(ctx, s.key(code)).Err()
		return err
	}
	return nil
}

func (s *RoomStore) GetRoom(ctx context.Context, code string) (domain.Room, error) {
	room, err := s.local.GetRoom(ctx, code)
	if err == nil {
		return room, nil
	}

	data, rerr := s.client.Get(ctx, s.key(code)).Bytes()
	if rerr != nil {
		return domain.Room{}, err
	}
	if uerr := json.Unmarshal(data, &room); uerr != nil {
		return domain.Room{}, uerr
	}
	return room, nil
}

func (s *RoomStore) SetField(ctx context.Context, code, path string, value any) error {
	if err := s.local.SetField(ctx, code, path, value); err != nil {
		return err
	}
	// best-effort mirror; the local tree stays authoritative for this host
	if room, err := s.local.GetRoom(ctx, code); err == nil {
		if data, err := json.Marshal(room); err == nil {
			_ = s.client.Set(ctx, s.key(code), data, s.ttl).Err()
		}
	}
	return nil
}

func (s *RoomStore) Subscribe(ctx context.Context, code, path string, fn func(value any)) (func(), error) {
	return s.local.Subscribe(ctx, code, path, fn)
}

func (s *RoomStore) RemoveRoom(ctx context.Context, code string) error {
	if err := s.local.RemoveRoom(ctx, code); err != nil {
		return err
	}
	return s.client.Del(ctx, s.key(code)).Err()
}

func (s *RoomStore) key(code string) string {
	return "room:" + code
}
