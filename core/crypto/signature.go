package crypto

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/NethermindEth/blockvault/encoder"
)

// Signature binds signature bytes to the public key they verify under. Two signatures are
// equal only if both the key and the bytes are equal.
type Signature struct {
	publicKey PublicKey
	payload   []byte
}

// NewSignature signs message with the private half of keyPair.
func NewSignature(keyPair KeyPair, message []byte) (Signature, error) {
	payload, err := sign(keyPair.privateKey, message)
	if err != nil {
		return Signature{}, fmt.Errorf("NewSignature: failed to sign with %s: %w", keyPair.Algorithm(), err)
	}
	return Signature{publicKey: keyPair.publicKey, payload: payload}, nil
}

// SignatureFromBytes wraps already produced signature bytes. They are not checked until Verify.
func SignatureFromBytes(publicKey PublicKey, payload []byte) Signature {
	return Signature{publicKey: publicKey, payload: bytes.Clone(payload)}
}

func SignatureFromHex(publicKey PublicKey, payload string) (Signature, error) {
	b, err := hex.DecodeString(payload)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return Signature{publicKey: publicKey, payload: b}, nil
}

func (s Signature) PublicKey() PublicKey {
	return s.publicKey
}

func (s Signature) Payload() []byte {
	return bytes.Clone(s.payload)
}

// Verify checks the signature against message.
func (s Signature) Verify(message []byte) error {
	return verify(s.publicKey, message, s.payload)
}

func (s Signature) Equal(other Signature) bool {
	return s.publicKey.Equal(other.publicKey) && bytes.Equal(s.payload, other.payload)
}

func (s Signature) Compare(other Signature) int {
	if c := s.publicKey.Compare(other.publicKey); c != 0 {
		return c
	}
	return bytes.Compare(s.payload, other.payload)
}

func (s Signature) String() string {
	return fmt.Sprintf("Signature(%s, %s)", s.publicKey, strings.ToUpper(hex.EncodeToString(s.payload)))
}

type signatureWire struct {
	PublicKey PublicKey `cbor:"1,keyasint"`
	Payload   []byte    `cbor:"2,keyasint"`
}

func (s Signature) MarshalCBOR() ([]byte, error) {
	return encoder.Marshal(signatureWire{PublicKey: s.publicKey, Payload: s.payload})
}

func (s *Signature) UnmarshalCBOR(data []byte) error {
	var wire signatureWire
	if err := encoder.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = Signature{publicKey: wire.PublicKey, payload: wire.Payload}
	return nil
}

// SignatureOf is a Signature over the canonical encoding of a T. Its equality covers both
// the key and the signature bytes.
type SignatureOf[T any] struct {
	signature Signature
}

// NewSignatureOf signs the hash of value.
func NewSignatureOf[T any](keyPair KeyPair, value *T) (SignatureOf[T], error) {
	hash, err := NewHashOf(value)
	if err != nil {
		return SignatureOf[T]{}, err
	}
	return NewSignatureOfHash(keyPair, hash)
}

// NewSignatureOfHash signs a precomputed hash.
func NewSignatureOfHash[T any](keyPair KeyPair, hash HashOf[T]) (SignatureOf[T], error) {
	signature, err := NewSignature(keyPair, hash[:])
	if err != nil {
		return SignatureOf[T]{}, err
	}
	return SignatureOf[T]{signature: signature}, nil
}

// TypedSignature asserts that signature was produced over a T.
func TypedSignature[T any](signature Signature) SignatureOf[T] {
	return SignatureOf[T]{signature: signature}
}

func (s SignatureOf[T]) Signature() Signature {
	return s.signature
}

func (s SignatureOf[T]) PublicKey() PublicKey {
	return s.signature.publicKey
}

func (s SignatureOf[T]) Payload() []byte {
	return s.signature.Payload()
}

func (s SignatureOf[T]) VerifyHash(hash HashOf[T]) error {
	return s.signature.Verify(hash[:])
}

func (s SignatureOf[T]) Verify(value *T) error {
	hash, err := NewHashOf(value)
	if err != nil {
		return err
	}
	return s.VerifyHash(hash)
}

func (s SignatureOf[T]) Equal(other SignatureOf[T]) bool {
	return s.signature.Equal(other.signature)
}

func (s SignatureOf[T]) Compare(other SignatureOf[T]) int {
	return s.signature.Compare(other.signature)
}

func (s SignatureOf[T]) String() string {
	return s.signature.String()
}

func (s SignatureOf[T]) MarshalCBOR() ([]byte, error) {
	return s.signature.MarshalCBOR()
}

func (s *SignatureOf[T]) UnmarshalCBOR(data []byte) error {
	return s.signature.UnmarshalCBOR(data)
}
