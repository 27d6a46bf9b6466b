package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"skwabl/turns/internal/room"
	"skwabl/turns/internal/types"
)

var (
	ErrRoomExists  = errors.New("room already exists")
	ErrRoomUnknown = errors.New("unknown room")
)

const DefaultMaxEvents = 200

// EventTruncated marks a log that has dropped its oldest events.
const EventTruncated = "events_truncated"

type Store struct {
	mu        sync.RWMutex
	rooms     map[string]*room.Room
	events    map[string][]types.Event
	maxEvents int
}

// New returns an empty store keeping at most maxEvents per room
// (DefaultMaxEvents when maxEvents <= 0).
func New(maxEvents int) *Store {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Store{
		rooms:     make(map[string]*room.Room),
		events:    make(map[string][]types.Event),
		maxEvents: maxEvents,
	}
}

func (s *Store) CreateRoom(r *room.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.ID]; ok {
		return ErrRoomExists
	}
	s.rooms[r.ID] = r
	if _, ok := s.events[r.ID]; !ok {
		s.events[r.ID] = []types.Event{}
	}
	return nil
}

func (s *Store) GetRoom(id string) *room.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[id]
}

// DeleteRoom closes the room and forgets it along with its history.
func (s *Store) DeleteRoom(id string) error {
	s.mu.Lock()
	r, ok := s.rooms[id]
	delete(s.rooms, id)
	delete(s.events, id)
	s.mu.Unlock()
	if !ok {
		return ErrRoomUnknown
	}
	r.Close()
	return nil
}

func (s *Store) ListRoomIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// CloseAll closes every room. Used on shutdown.
func (s *Store) CloseAll() {
	s.mu.RLock()
	rooms := make([]*room.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()
	for _, r := range rooms {
		r.Close()
	}
}

func (s *Store) AppendEvent(roomID, typ string, payload map[string]any) types.Event {
	evt := types.Event{Type: typ, Ts: time.Now().UTC(), Payload: payload}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		if _, known := s.events[roomID]; !known {
			// Late events from a deleted room are dropped.
			return evt
		}
	}
	evs := append(s.events[roomID], evt)
	if len(evs) > s.maxEvents {
		// One truncation marker heads the log and carries the running count;
		// the rest are the newest events.
		dropped := 0
		if evs[0].Type == EventTruncated {
			dropped, _ = evs[0].Payload["dropped"].(int)
			evs = evs[1:]
		}
		keep := s.maxEvents - 1
		dropped += len(evs) - keep
		marker := types.Event{Type: EventTruncated, Ts: time.Now().UTC(), Payload: map[string]any{"room_id": roomID, "dropped": dropped, "kept": keep}}
		evs = append([]types.Event{marker}, evs[len(evs)-keep:]...)
	}
	s.events[roomID] = evs
	return evt
}

func (s *Store) ListEvents(roomID string) []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.events[roomID]
	out := make([]types.Event, len(src))
	copy(out, src)
	return out
}
