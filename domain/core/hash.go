package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

func (h Hash) String() string { return string(h) }

// Short returns the first twelve hex characters, enough to tell inputs apart in a report.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// DatasetHash fingerprints an extracted numeric sample. Order matters.
type DatasetHash Hash

// ComputeDatasetHash hashes the IEEE-754 bits of each value.
func ComputeDatasetHash(values []float64) DatasetHash {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return DatasetHash(NewHash(buf))
}

func (h DatasetHash) String() string { return Hash(h).String() }
func (h DatasetHash) Short() string  { return Hash(h).Short() }
