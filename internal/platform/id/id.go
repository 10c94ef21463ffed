package id

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID issues random (v4) UUID strings.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

type RandomHex struct{}

func (RandomHex) New() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
