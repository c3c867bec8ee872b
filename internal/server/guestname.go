package server

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
)

// Placeholder display names for connections that never supplied one.
// Uniqueness does not matter; the participant id is what routing keys
// on.

var guestAdjectives = []string{
	"swift", "quiet", "bright", "brave", "lucky", "gentle", "clever", "merry",
	"bold", "calm", "eager", "fuzzy", "jolly", "nimble", "plucky", "witty",
}

var guestAnimals = []string{
	"otter", "fox", "panda", "koala", "bunny", "hedgehog", "penguin", "narwhal",
	"sparrow", "raccoon", "ferret", "dolphin", "toucan", "lamb", "beaver", "robin",
}

// guestName generates a friendly placeholder like "swift-otter".
func guestName() string {
	adj := guestAdjectives[randomIndex(len(guestAdjectives))]
	animal := guestAnimals[randomIndex(len(guestAnimals))]
	return fmt.Sprintf("%s-%s", adj, animal)
}

// randomIndex returns a cryptographically secure random index for a
// slice of the given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		log.Panic("Failed to generate random index:", err)
	}
	return int(n.Int64())
}
