package crypto

import (
	"bytes"
	"errors"
	"fmt"
)

const redacted = "[REDACTED]"

var ErrSecretNotSerializable = errors.New("secret material can not be serialized")

// Secret holds key material. It prints as [REDACTED] under every fmt verb and refuses
// to be encoded, so it can not end up in logs or on disk by accident.
type Secret struct {
	b []byte
}

// NewSecret copies b.
func NewSecret(b []byte) *Secret {
	return &Secret{b: bytes.Clone(b)}
}

// Expose returns the underlying bytes. The caller must not retain or modify them.
func (s *Secret) Expose() []byte {
	return s.b
}

func (s *Secret) Len() int {
	return len(s.b)
}

// Zeroize overwrites the secret with zeroes.
func (s *Secret) Zeroize() {
	clear(s.b)
}

func (s *Secret) String() string {
	return redacted
}

func (s *Secret) GoString() string {
	return redacted
}

func (s *Secret) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

func (s *Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (s *Secret) MarshalCBOR() ([]byte, error) {
	return nil, ErrSecretNotSerializable
}
