package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/NethermindEth/blockvault/encoder"
	"golang.org/x/crypto/blake2b"
)

const HashLength = blake2b.Size256

var ErrInvalidHashLength = fmt.Errorf("hash must be %d bytes long", HashLength)

// Hash is a blake2b-256 digest with the least significant bit of its last byte set to 1.
// The set bit keeps a hash distinguishable from an arbitrary 32 byte array.
type Hash [HashLength]byte

// NewHash hashes b.
func NewHash(b []byte) Hash {
	h := Hash(blake2b.Sum256(b))
	h[HashLength-1] |= 1
	return h
}

// HashFromBytes reinterprets b as a hash without hashing it.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashLength {
		return h, ErrInvalidHashLength
	}
	copy(h[:], b)
	return h, nil
}

func ParseHash(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("parse hash: %w", err)
	}
	return HashFromBytes(b)
}

func (h Hash) Bytes() []byte {
	return bytes.Clone(h[:])
}

func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) MarshalCBOR() ([]byte, error) {
	return encoder.Marshal(h[:])
}

func (h *Hash) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := encoder.Unmarshal(data, &b); err != nil {
		return err
	}
	parsed, err := HashFromBytes(b)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HashOf is a Hash tagged with the type of the value it was computed from.
// A HashOf[A] can not be passed where a HashOf[B] is expected without an explicit Retype.
type HashOf[T any] Hash

// NewHashOf hashes the canonical encoding of value.
func NewHashOf[T any](value *T) (HashOf[T], error) {
	if value == nil {
		return HashOf[T]{}, errors.New("hash of nil value")
	}
	b, err := encoder.Marshal(value)
	if err != nil {
		return HashOf[T]{}, fmt.Errorf("NewHashOf: failed to encode %T: %w", value, err)
	}
	return HashOf[T](NewHash(b)), nil
}

// Retype changes the phantom type of h. Only use it where the two hashes are defined
// to be interchangeable.
func Retype[U, T any](h HashOf[T]) HashOf[U] {
	return HashOf[U](h)
}

func (h HashOf[T]) Untyped() Hash {
	return Hash(h)
}

func (h HashOf[T]) Bytes() []byte {
	return Hash(h).Bytes()
}

func (h HashOf[T]) Compare(other HashOf[T]) int {
	return Hash(h).Compare(Hash(other))
}

func (h HashOf[T]) String() string {
	return Hash(h).String()
}

func (h HashOf[T]) MarshalCBOR() ([]byte, error) {
	return Hash(h).MarshalCBOR()
}

func (h *HashOf[T]) UnmarshalCBOR(data []byte) error {
	return (*Hash)(h).UnmarshalCBOR(data)
}

// CompareHashPtr orders hashes with nil before any present value.
func CompareHashPtr[T any](a, b *HashOf[T]) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
