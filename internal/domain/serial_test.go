package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSN(t *testing.T) {
	at := time.Date(2014, 3, 7, 9, 5, 59, 0, time.UTC)

	assert.Equal(t, "14030709050042", GenerateSN(at, 42))
	assert.Equal(t, "14030709051234", GenerateSN(at, 1234))
	assert.Equal(t, "140307090512345", GenerateSN(at, 12345))
}

func TestGenerateSN_Deterministic(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, GenerateSN(at, 7), GenerateSN(at, 7))
}

func TestGenerateSN_DistinctIDs(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]int64)
	for id := int64(1); id <= 9999; id++ {
		sn := GenerateSN(at, id)
		prev, dup := seen[sn]
		assert.False(t, dup, "id %d collides with %d", id, prev)
		seen[sn] = id
	}
}
