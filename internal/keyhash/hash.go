// Package keyhash computes the stable 64-bit key fingerprint used to route
// records into partitions. The algorithm (FNV-1a over UTF-8 bytes joined by
// a unit separator) is required to be identical on every platform so
// partition layout is reproducible.
package keyhash

import "hash/fnv"

// unitSeparator is the ASCII Unit Separator (0x1F) used to join key parts
// before hashing, so that key tuples like ["a","bc"] and ["ab","c"] never
// collide on naive concatenation.
const unitSeparator = 0x1F

// Hash returns the canonical 64-bit FNV-1a fingerprint of parts.
func Hash(parts []string) uint64 {
	h := fnv.New64a()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{unitSeparator})
		}
		h.Write([]byte(p))
	}
	return h.Sum64()
}

// PartitionOf returns the partition index for parts under n partitions.
// n must be >= 1.
func PartitionOf(parts []string, n uint32) uint32 {
	if n <= 1 {
		return 0
	}
	return uint32(Hash(parts) % uint64(n))
}
