package keyhash_test

import (
	"testing"

	"github.com/csvdiff/csvdiff/internal/keyhash"
	"github.com/stretchr/testify/assert"
)

func Test_Hash_Deterministic(t *testing.T) {
	a := keyhash.Hash([]string{"1", "alice"})
	b := keyhash.Hash([]string{"1", "alice"})
	assert.Equal(t, a, b)
}

func Test_Hash_UnitSeparatorAvoidsCollision(t *testing.T) {
	a := keyhash.Hash([]string{"a", "bc"})
	b := keyhash.Hash([]string{"ab", "c"})
	assert.NotEqual(t, a, b)
}

func Test_PartitionOf_SingleParition(t *testing.T) {
	assert.EqualValues(t, 0, keyhash.PartitionOf([]string{"anything"}, 1))
}

func Test_PartitionOf_Bounded(t *testing.T) {
	for i := 0; i < 100; i++ {
		p := keyhash.PartitionOf([]string{"row", string(rune('a' + i%26))}, 8)
		assert.Less(t, p, uint32(8))
	}
}
