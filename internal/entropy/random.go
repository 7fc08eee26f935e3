// Package entropy manages the randomness a run consumes. One run seed
// fans out into named deterministic streams, so each subsystem draws from
// its own sequence: adding a draw in terrain generation never shifts what
// the engine rolls, and the same seed always replays the same run.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"math/rand"
	"time"
)

// Stream derives the child seed for a named subsystem. Identical seed and
// name always produce the same child.
func Stream(seed int64, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}

// Rand returns a deterministic source on the named stream.
func Rand(seed int64, name string) *rand.Rand {
	return rand.New(rand.NewSource(Stream(seed, name)))
}

// RandomSeed produces a fresh run seed from the OS entropy source, for
// runs that did not pin one. Always nonzero, so a zero seed can keep
// meaning "pick one for me".
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	v := int64(binary.LittleEndian.Uint64(buf[:]) &^ (1 << 63))
	if v == 0 {
		v = 1
	}
	return v
}
