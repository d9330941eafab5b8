/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import "sort"

// RoomRegistry tracks which clients are in which room. A room exists only
// while it has at least one member, and a client is in at most one room.
type RoomRegistry struct {
	rooms      map[int64]map[string]struct{}
	clientRoom map[string]int64
}

func newRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:      make(map[int64]map[string]struct{}),
		clientRoom: make(map[string]int64),
	}
}

// join moves clientID into roomID, leaving any room it was in before. It
// returns the previous room, if there was one other than roomID.
func (r *RoomRegistry) join(clientID string, roomID int64) (int64, bool) {
	previous, hadPrevious := r.leave(clientID)

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}
	members[clientID] = struct{}{}
	r.clientRoom[clientID] = roomID

	return previous, hadPrevious && previous != roomID
}

// leave removes clientID from its room and deletes the room once empty.
func (r *RoomRegistry) leave(clientID string) (int64, bool) {
	roomID, ok := r.clientRoom[clientID]
	if !ok {
		return 0, false
	}
	delete(r.clientRoom, clientID)

	members := r.rooms[roomID]
	delete(members, clientID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}

	return roomID, true
}

func (r *RoomRegistry) roomOf(clientID string) (int64, bool) {
	roomID, ok := r.clientRoom[clientID]
	return roomID, ok
}

func (r *RoomRegistry) exists(roomID int64) bool {
	_, ok := r.rooms[roomID]
	return ok
}

// membersOf returns the room's members sorted by client id.
func (r *RoomRegistry) membersOf(roomID int64) []string {
	members := r.rooms[roomID]

	out := make([]string, 0, len(members))
	for clientID := range members {
		out = append(out, clientID)
	}
	sort.Strings(out)

	return out
}

func (r *RoomRegistry) isMember(clientID string, roomID int64) bool {
	current, ok := r.clientRoom[clientID]
	return ok && current == roomID
}
