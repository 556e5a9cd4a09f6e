package memory

import (
	"sync"
)

// MemStore tracks room membership: which room each connection belongs to and
// which connections each room holds. Rooms exist only while they have members;
// the last leave deletes the room entry.
//
// Both maps are guarded by one mutex so a membership mutation and a member-set
// snapshot can never interleave.
type MemStore struct {
	mx    *sync.Mutex
	rooms map[string]map[string]struct{}
	conns map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		mx:    &sync.Mutex{},
		rooms: make(map[string]map[string]struct{}),
		conns: make(map[string]string),
	}
}

// Join adds connID to roomID, creating the room if it has no members yet.
// A connection belongs to at most one room: joining a different room moves it,
// and prevRoom reports the room it was moved out of. Re-joining the current
// room is a no-op with joined == false.
func (ms *MemStore) Join(roomID, connID string) (prevRoom string, joined bool) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	if cur, ok := ms.conns[connID]; ok {
		if cur == roomID {
			return "", false
		}
		prevRoom = cur
		ms.remove(cur, connID)
	}

	room, ok := ms.rooms[roomID]
	if !ok {
		room = make(map[string]struct{})
		ms.rooms[roomID] = room
	}
	room[connID] = struct{}{}
	ms.conns[connID] = roomID
	return prevRoom, true
}

// Leave removes connID from its room. ok is false if the connection had no
// membership.
func (ms *MemStore) Leave(connID string) (roomID string, ok bool) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	roomID, ok = ms.conns[connID]
	if !ok {
		return "", false
	}
	ms.remove(roomID, connID)
	return roomID, true
}

// Room returns the room connID currently belongs to.
func (ms *MemStore) Room(connID string) (string, bool) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	roomID, ok := ms.conns[connID]
	return roomID, ok
}

// Members returns a snapshot of the member set of roomID. Unknown rooms yield
// an empty snapshot.
func (ms *MemStore) Members(roomID string) []string {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	room, ok := ms.rooms[roomID]
	if !ok {
		return nil
	}
	members := make([]string, 0, len(room))
	for id := range room {
		members = append(members, id)
	}
	return members
}

// remove must be called under the mutex.
func (ms *MemStore) remove(roomID, connID string) {
	delete(ms.conns, connID)
	if room, ok := ms.rooms[roomID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(ms.rooms, roomID)
		}
	}
}
