// Package identity generates short device identifiers.
//
// A device identifier is derived from a random 128-bit UUID folded down
// to 64 bits and rendered in base-36, giving a printable token of at
// most 13 characters. Collisions are not checked here; the enrollment
// layer's already-enrolled check is the collision boundary.
package identity

import (
	"encoding/binary"
	"strconv"

	"github.com/google/uuid"
)

// Generate returns a new short device identifier.
//
// The identifier is non-empty, ASCII alphanumeric (0-9a-z), and at most
// 13 characters (a 64-bit value in base-36). Two calls produce distinct
// values with overwhelming probability; uniqueness is not enforced.
func Generate() string {
	id := uuid.New()
	return strconv.FormatUint(fold(id), 36)
}

// fold reduces a 128-bit UUID to 64 bits by XORing its two halves.
// The fold is deterministic so the same UUID always yields the same
// identifier.
func fold(id uuid.UUID) uint64 {
	hi := binary.BigEndian.Uint64(id[0:8])
	lo := binary.BigEndian.Uint64(id[8:16])
	return hi ^ lo
}
