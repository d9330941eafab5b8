/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"math/rand/v2"
)

var adjectives = []string{
	"Brave", "Clever", "Happy", "Kind", "Quick", "Witty", "Bright", "Calm", "Bold", "Sharp",
	"Gentle", "Loyal", "Strong", "Wise", "Fierce", "Noble", "Friendly", "Quiet", "Swift", "Charming",
	"Graceful", "Fearless", "Mighty", "Playful", "Cheerful", "Daring", "Elegant", "Generous", "Humble", "Jolly",
	"Lively", "Patient", "Proud", "Sincere", "Thoughtful", "Vibrant", "Zesty", "Adventurous", "Ambitious", "Courageous",
	"Diligent", "Energetic", "Faithful", "Harmonious", "Inventive", "Joyful", "Radiant", "Resilient", "Spirited",
}

var nouns = []string{
	"Tiger", "Eagle", "Fox", "Bear", "Wolf", "Lion", "Hawk", "Shark", "Panda", "Falcon",
	"Otter", "Dolphin", "Cheetah", "Leopard", "Jaguar", "Panther", "Rabbit", "Deer", "Koala", "Penguin",
	"Turtle", "Crocodile", "Alligator", "Peacock", "Swan", "Raven", "Owl", "Parrot", "Lynx", "Seal",
	"Whale", "Octopus", "Crane", "Stork", "Hedgehog", "Badger", "Moose", "Buffalo", "Antelope", "Gazelle",
	"Kangaroo", "Wallaby", "Platypus", "Armadillo", "Sloth", "Chameleon", "Iguana", "Gecko", "Flamingo", "Toucan",
}

// Player is the display identity shown to everyone sharing a room.
type Player struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Color    string `json:"color"`
}

// PlayerDirectory remembers every client id ever identified. Entries are
// never removed.
type PlayerDirectory struct {
	players map[string]Player
	rng     *rand.Rand
}

func newPlayerDirectory(rng *rand.Rand) *PlayerDirectory {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &PlayerDirectory{
		players: make(map[string]Player),
		rng:     rng,
	}
}

func (d *PlayerDirectory) ensure(clientID string) Player {
	if p, ok := d.players[clientID]; ok {
		return p
	}

	p := Player{
		ClientID: clientID,
		Name:     d.randomName(),
		Color:    d.randomColor(),
	}
	d.players[clientID] = p

	return p
}

func (d *PlayerDirectory) lookup(clientID string) (Player, bool) {
	p, ok := d.players[clientID]
	return p, ok
}

func (d *PlayerDirectory) randomName() string {
	return fmt.Sprintf("%s%s%d",
		adjectives[d.rng.IntN(len(adjectives))],
		nouns[d.rng.IntN(len(nouns))],
		d.rng.IntN(100))
}

func (d *PlayerDirectory) randomColor() string {
	return fmt.Sprintf("#%06x", d.rng.IntN(0x1000000))
}
