package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/NethermindEth/blockvault/encoder"
	"github.com/multiformats/go-varint"
)

// Multicodec identifiers of public keys, used by the multihash text form.
const (
	ed25519PubCodec   uint64 = 0xed
	secp256k1PubCodec uint64 = 0xe7
	blsG1PubCodec     uint64 = 0xea
	blsG2PubCodec     uint64 = 0xeb
)

func (a Algorithm) codec() uint64 {
	switch a {
	case Ed25519:
		return ed25519PubCodec
	case Secp256k1:
		return secp256k1PubCodec
	case BlsNormal:
		return blsG1PubCodec
	case BlsSmall:
		return blsG2PubCodec
	default:
		panic(ErrUnknownAlgorithm)
	}
}

func algorithmFromCodec(codec uint64) (Algorithm, error) {
	switch codec {
	case ed25519PubCodec:
		return Ed25519, nil
	case secp256k1PubCodec:
		return Secp256k1, nil
	case blsG1PubCodec:
		return BlsNormal, nil
	case blsG2PubCodec:
		return BlsSmall, nil
	default:
		return 0, fmt.Errorf("%w: %#x", ErrUnsupportedMultiKey, codec)
	}
}

// PublicKey is the public half of a key pair. Keys are ordered by algorithm first and by
// their encoded bytes second.
type PublicKey struct {
	algorithm Algorithm
	payload   []byte
}

// NewPublicKey validates payload as a public key of the given algorithm.
func NewPublicKey(algorithm Algorithm, payload []byte) (PublicKey, error) {
	if !algorithm.valid() {
		return PublicKey{}, ErrUnknownAlgorithm
	}
	if err := validatePublicKey(algorithm, payload); err != nil {
		return PublicKey{}, err
	}
	return PublicKey{algorithm: algorithm, payload: bytes.Clone(payload)}, nil
}

// ParsePublicKey parses the multihash hex form produced by String.
func ParsePublicKey(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrMalformedMultihash, err)
	}

	codec, n, err := varint.FromUvarint(b)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: codec: %v", ErrMalformedMultihash, err)
	}
	b = b[n:]
	length, n, err := varint.FromUvarint(b)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: length: %v", ErrMalformedMultihash, err)
	}
	b = b[n:]
	if uint64(len(b)) != length {
		return PublicKey{}, fmt.Errorf("%w: expected %d payload bytes, got %d", ErrMalformedMultihash, length, len(b))
	}

	algorithm, err := algorithmFromCodec(codec)
	if err != nil {
		return PublicKey{}, err
	}
	return NewPublicKey(algorithm, b)
}

func (k PublicKey) Algorithm() Algorithm {
	return k.algorithm
}

func (k PublicKey) Bytes() []byte {
	return bytes.Clone(k.payload)
}

func (k PublicKey) Compare(other PublicKey) int {
	if k.algorithm != other.algorithm {
		if k.algorithm < other.algorithm {
			return -1
		}
		return 1
	}
	return bytes.Compare(k.payload, other.payload)
}

func (k PublicKey) Equal(other PublicKey) bool {
	return k.algorithm == other.algorithm && bytes.Equal(k.payload, other.payload)
}

// String returns the multihash form: varint codec, varint length, payload, all hex encoded.
// The payload part is upper case.
func (k PublicKey) String() string {
	if !k.algorithm.valid() {
		return "<invalid public key>"
	}
	var sb strings.Builder
	sb.WriteString(hex.EncodeToString(varint.ToUvarint(k.algorithm.codec())))
	sb.WriteString(hex.EncodeToString(varint.ToUvarint(uint64(len(k.payload)))))
	sb.WriteString(strings.ToUpper(hex.EncodeToString(k.payload)))
	return sb.String()
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

type publicKeyWire struct {
	Algorithm uint8  `cbor:"1,keyasint"`
	Payload   []byte `cbor:"2,keyasint"`
}

func (k PublicKey) MarshalCBOR() ([]byte, error) {
	return encoder.Marshal(publicKeyWire{Algorithm: uint8(k.algorithm), Payload: k.payload})
}

func (k *PublicKey) UnmarshalCBOR(data []byte) error {
	var wire publicKeyWire
	if err := encoder.Unmarshal(data, &wire); err != nil {
		return err
	}
	parsed, err := NewPublicKey(Algorithm(wire.Algorithm), wire.Payload)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// PrivateKey is the secret half of a key pair. It is never encoded and never printed.
type PrivateKey struct {
	algorithm Algorithm
	secret    *Secret
}

// NewPrivateKey validates b as a private key of the given algorithm. b is copied.
func NewPrivateKey(algorithm Algorithm, b []byte) (PrivateKey, error) {
	if !algorithm.valid() {
		return PrivateKey{}, ErrUnknownAlgorithm
	}
	if _, err := derivePublicKey(algorithm, b); err != nil {
		return PrivateKey{}, err
	}
	return PrivateKey{algorithm: algorithm, secret: NewSecret(b)}, nil
}

func (k PrivateKey) Algorithm() Algorithm {
	return k.algorithm
}

// PublicKey derives the matching public key.
func (k PrivateKey) PublicKey() (PublicKey, error) {
	payload, err := derivePublicKey(k.algorithm, k.secret.Expose())
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKey{algorithm: k.algorithm, payload: payload}, nil
}

// Expose returns the raw key material. Callers must not retain it.
func (k PrivateKey) Expose() []byte {
	return k.secret.Expose()
}

// Zeroize wipes the key material. The key is unusable afterwards.
func (k PrivateKey) Zeroize() {
	k.secret.Zeroize()
}

func (k PrivateKey) String() string {
	return fmt.Sprintf("PrivateKey(%s, %s)", k.algorithm, redacted)
}

func (k PrivateKey) GoString() string {
	return k.String()
}

func (k PrivateKey) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(k.String()))
}

func (k PrivateKey) MarshalCBOR() ([]byte, error) {
	return nil, ErrSecretNotSerializable
}

type KeyPair struct {
	publicKey  PublicKey
	privateKey PrivateKey
}

// NewKeyPair checks that both halves belong to the same key.
func NewKeyPair(publicKey PublicKey, privateKey PrivateKey) (KeyPair, error) {
	if publicKey.algorithm != privateKey.algorithm {
		return KeyPair{}, ErrAlgorithmMismatch
	}
	derived, err := privateKey.PublicKey()
	if err != nil {
		return KeyPair{}, err
	}
	if !derived.Equal(publicKey) {
		return KeyPair{}, ErrKeyPairMismatch
	}
	return KeyPair{publicKey: publicKey, privateKey: privateKey}, nil
}

// GenerateKeyPair creates a key pair from the operating system's randomness source.
func GenerateKeyPair(algorithm Algorithm) (KeyPair, error) {
	if !algorithm.valid() {
		return KeyPair{}, ErrUnknownAlgorithm
	}
	secret, err := generateKey(algorithm, rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("GenerateKeyPair: %w", err)
	}
	return keyPairFromSecret(algorithm, secret)
}

// NewKeyPairFromSeed deterministically derives a key pair from seed. The same seed and
// algorithm always yield the same pair. seed is wiped before returning.
func NewKeyPairFromSeed(seed []byte, algorithm Algorithm) (KeyPair, error) {
	if !algorithm.valid() {
		clear(seed)
		return KeyPair{}, ErrUnknownAlgorithm
	}
	rng, err := newSeededReader(seed)
	if err != nil {
		return KeyPair{}, err
	}
	secret, err := generateKey(algorithm, rng)
	if err != nil {
		return KeyPair{}, fmt.Errorf("NewKeyPairFromSeed: %w", err)
	}
	return keyPairFromSecret(algorithm, secret)
}

// keyPairFromSecret takes ownership of secret and wipes it.
func keyPairFromSecret(algorithm Algorithm, secret []byte) (KeyPair, error) {
	defer clear(secret)
	privateKey, err := NewPrivateKey(algorithm, secret)
	if err != nil {
		return KeyPair{}, err
	}
	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{publicKey: publicKey, privateKey: privateKey}, nil
}

func (kp KeyPair) PublicKey() PublicKey {
	return kp.publicKey
}

func (kp KeyPair) PrivateKey() PrivateKey {
	return kp.privateKey
}

func (kp KeyPair) Algorithm() Algorithm {
	return kp.publicKey.algorithm
}

func (kp KeyPair) String() string {
	return fmt.Sprintf("KeyPair(%s, %s)", kp.publicKey, kp.privateKey)
}
