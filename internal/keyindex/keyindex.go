// Package keyindex holds the precomputed lookup from feed storage keys to
// linear grid indices. The table is static for the lifetime of a grid; it is
// generated once (cmd/keymap) into a sqlite database and loaded fully into
// memory at startup.
package keyindex

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Table maps feed keys to linear grid indices.
type Table struct {
	byKey map[string]int
}

// Lookup returns the linear index for a feed key.
func (t *Table) Lookup(key string) (int, bool) {
	i, ok := t.byKey[key]
	return i, ok
}

func (t *Table) Len() int { return len(t.byKey) }

// FromKeys builds an in-memory table where keys[i] maps to index i.
func FromKeys(keys []string) *Table {
	byKey := make(map[string]int, len(keys))
	for i, k := range keys {
		byKey[k] = i
	}
	return &Table{byKey: byKey}
}

// DeriveKey computes the feed storage key for a linear index: the hex digest
// of sha256 over the little-endian uint32 index. Matches what the gateway
// announces on the cell-change stream.
func DeriveKey(index int) (string, error) {
	if index < 0 || index > 0xffffffff {
		return "", fmt.Errorf("index %d out of range", index)
	}
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], uint32(index))
	sum := sha256.Sum256(le[:])
	return hex.EncodeToString(sum[:]), nil
}
