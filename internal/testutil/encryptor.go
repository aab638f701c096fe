package testutil

import (
	"tm-go/internal/encryption"
	"tm-go/internal/tm"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() tm.Encryptor {
	return encryption.NewTestEncryptor()
}
