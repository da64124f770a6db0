package memory

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"whobible-live/internal/app"
	"whobible-live/internal/domain"
)

// RoomStore keeps each room as a JSON-generic tree guarded by one mutex.
// Subscribers get the full value of their subtree after every write beneath
// it, delivered by a per-subscriber goroutine in write order; a slow consumer
// only ever loses superseded snapshots, never the latest one.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*roomDoc
}

type roomDoc struct {
	tree map[string]any
	subs map[*subscriber]struct{}
}

type subscriber struct {
	path string
	ch   chan any
	done chan struct{}
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*roomDoc)}
}

func (s *RoomStore) CreateRoom(_ context.Context, code string, room domain.Room) error {
	tree, err := toTree(room)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		return domain.ErrRoomCodeTaken
	}
	s.rooms[code] = &roomDoc{
		tree: tree,
		subs: make(map[*subscriber]struct{}),
	}
	return nil
}

func (s *RoomStore) GetRoom(_ context.Context, code string) (domain.Room, error) {
	s.mu.RLock()
	doc, ok := s.rooms[code]
	if !ok {
		s.mu.RUnlock()
		return domain.Room{}, domain.ErrRoomNotFound
	}
	tree := doc.tree
	var room domain.Room
	err := app.DecodeValue(tree, &room)
	s.mu.RUnlock()
	return room, err
}

func (s *RoomStore) SetField(_ context.Context, code, path string, value any) error {
	generic, err := toGeneric(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.rooms[code]
	if !ok {
		s.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	if err := setPath(doc.tree, path, generic); err != nil {
		s.mu.Unlock()
		return err
	}

	// Notify everyone whose subtree overlaps the written path. Enqueueing
	// under the lock keeps delivery order equal to commit order per
	// subscriber; send never blocks, it only drops superseded snapshots.
	for sub := range doc.subs {
		if !pathsOverlap(sub.path, path) {
			continue
		}
		sub.send(copyValue(getPath(doc.tree, sub.path)))
	}
	s.mu.Unlock()
	return nil
}

func (s *RoomStore) Subscribe(_ context.Context, code, path string, fn func(value any)) (func(), error) {
	s.mu.Lock()
	doc, ok := s.rooms[code]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrRoomNotFound
	}
	sub := &subscriber{
		path: path,
		ch:   make(chan any, 4),
		done: make(chan struct{}),
	}
	doc.subs[sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		for {
			select {
			case v := <-sub.ch:
				fn(v)
			case <-sub.done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if d, ok := s.rooms[code]; ok {
				delete(d.subs, sub)
			}
			s.mu.Unlock()
			close(sub.done)
		})
	}
	return cancel, nil
}

func (s *RoomStore) RemoveRoom(_ context.Context, code string) error {
	s.mu.Lock()
	doc, ok := s.rooms[code]
	if ok {
		delete(s.rooms, code)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	for sub := range doc.subs {
		close(sub.done)
	}
	return nil
}

// send enqueues a snapshot, dropping the oldest queued one when the buffer
// is full. Each queued value is complete, so newer always supersedes older.
func (sub *subscriber) send(value any) {
	for {
		select {
		case sub.ch <- value:
			return
		case <-sub.done:
			return
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
	}
}

func toTree(room domain.Room) (map[string]any, error) {
	generic, err := toGeneric(room)
	if err != nil {
		return nil, err
	}
	tree, ok := generic.(map[string]any)
	if !ok {
		tree = make(map[string]any)
	}
	return tree, nil
}

// toGeneric round-trips a value through JSON so the tree only ever holds
// maps, slices and primitives.
func toGeneric(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

func copyValue(value any) any {
	if value == nil {
		return nil
	}
	copied, err := toGeneric(value)
	if err != nil {
		return nil
	}
	return copied
}

func setPath(tree map[string]any, path string, value any) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return errors.New("empty field path")
	}
	node := tree
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
	return nil
}

func getPath(tree map[string]any, path string) any {
	segments := splitPath(path)
	var current any = tree
	for _, seg := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = node[seg]
	}
	return current
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func pathsOverlap(subPath, writePath string) bool {
	a := splitPath(subPath)
	b := splitPath(writePath)
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
