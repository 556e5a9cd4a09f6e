package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_JoinCreatesRoom(t *testing.T) {
	ms := NewMemStore()

	prev, joined := ms.Join("room1", "conn1")
	require.True(t, joined)
	require.Empty(t, prev)

	roomID, ok := ms.Room("conn1")
	require.True(t, ok)
	assert.Equal(t, "room1", roomID)
	assert.ElementsMatch(t, []string{"conn1"}, ms.Members("room1"))
}

func TestMemStore_JoinIsIdempotent(t *testing.T) {
	ms := NewMemStore()

	_, joined := ms.Join("room1", "conn1")
	require.True(t, joined)

	prev, joined := ms.Join("room1", "conn1")
	assert.False(t, joined)
	assert.Empty(t, prev)
	assert.ElementsMatch(t, []string{"conn1"}, ms.Members("room1"))
}

func TestMemStore_JoinMovesBetweenRooms(t *testing.T) {
	ms := NewMemStore()

	ms.Join("room1", "conn1")
	ms.Join("room1", "conn2")

	prev, joined := ms.Join("room2", "conn1")
	require.True(t, joined)
	assert.Equal(t, "room1", prev)

	assert.ElementsMatch(t, []string{"conn2"}, ms.Members("room1"))
	assert.ElementsMatch(t, []string{"conn1"}, ms.Members("room2"))

	roomID, ok := ms.Room("conn1")
	require.True(t, ok)
	assert.Equal(t, "room2", roomID)
}

func TestMemStore_LeaveRemovesMembership(t *testing.T) {
	ms := NewMemStore()

	ms.Join("room1", "conn1")
	ms.Join("room1", "conn2")

	roomID, ok := ms.Leave("conn1")
	require.True(t, ok)
	assert.Equal(t, "room1", roomID)
	assert.ElementsMatch(t, []string{"conn2"}, ms.Members("room1"))

	_, ok = ms.Room("conn1")
	assert.False(t, ok)
}

func TestMemStore_LeaveWithoutMembership(t *testing.T) {
	ms := NewMemStore()

	_, ok := ms.Leave("conn1")
	assert.False(t, ok)
}

func TestMemStore_EmptyRoomIsDeleted(t *testing.T) {
	ms := NewMemStore()

	ms.Join("room1", "conn1")
	_, ok := ms.Leave("conn1")
	require.True(t, ok)

	_, exists := ms.rooms["room1"]
	assert.False(t, exists, "empty room must be garbage collected")

	// the identifier is reusable afterwards
	prev, joined := ms.Join("room1", "conn2")
	require.True(t, joined)
	assert.Empty(t, prev)
	assert.ElementsMatch(t, []string{"conn2"}, ms.Members("room1"))
}

func TestMemStore_MembersOfUnknownRoom(t *testing.T) {
	ms := NewMemStore()

	assert.Empty(t, ms.Members("nope"))
}

func TestMemStore_MembersIsSnapshot(t *testing.T) {
	ms := NewMemStore()

	ms.Join("room1", "conn1")
	ms.Join("room1", "conn2")

	members := ms.Members("room1")
	ms.Join("room1", "conn3")

	assert.ElementsMatch(t, []string{"conn1", "conn2"}, members)
}
