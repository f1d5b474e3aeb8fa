// Package roomname generates memorable room names.
//
// Knowing a room name is enough to join the room, so names are drawn with
// crypto/rand: one word from each of four 30-word lists.
package roomname

import (
	"crypto/rand"
	"math/big"
	"strings"
)

var lists = [][]string{adjectives, colors, animals, places}

// Generate returns a name like "quiet-amber-otter-harbor".
func Generate() string {
	words := make([]string, 0, len(lists))
	for _, list := range lists {
		words = append(words, list[randomIndex(len(list))])
	}
	return strings.Join(words, "-")
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(n int) int {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("roomname: reading random source: " + err.Error())
	}
	return int(i.Int64())
}
