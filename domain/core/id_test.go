package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Fatalf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Fatalf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestIDIsEmpty(t *testing.T) {
	assert.True(t, ID("").IsEmpty())
	assert.False(t, ID("not-empty").IsEmpty())
}

func TestDatasetHash(t *testing.T) {
	a := ComputeDatasetHash([]float64{1, 2, 3})
	b := ComputeDatasetHash([]float64{1, 2, 3})
	c := ComputeDatasetHash([]float64{3, 2, 1})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a.String(), 64)
	assert.Len(t, a.Short(), 12)
	assert.Equal(t, "abc", Hash("abc").Short())
}
