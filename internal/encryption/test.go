package encryption

import (
	"bytes"
	"fmt"
	"io"

	"tm-go/internal/tm"
)

// testHeader marks data produced by TestEncryptor so "encrypted" output is
// clearly distinguishable from plaintext while staying reversible.
var testHeader = []byte("TMENC\x00\x00\x00")

// TestEncryptor is a deterministic encryptor for tests: it prepends a fixed
// header on encrypt and strips it on decrypt. No crypto involved.
type TestEncryptor struct{}

var _ tm.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor { return &TestEncryptor{} }

func (e *TestEncryptor) Setup(string) error { return nil }

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(string) (tm.DecryptionContext, error) {
	return &testDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool { return true }

type testDecryptionContext struct{}

var _ tm.DecryptionContext = (*testDecryptionContext)(nil)

func (c *testDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
