package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	secp256k1PrivateKeySize = secp256k1.PrivKeyBytesLen
	secp256k1PublicKeySize  = secp256k1.PubKeyBytesLenCompressed
	// r || s, each 32 bytes big endian
	secp256k1SignatureSize = 64
)

func secp256k1GenerateKey(rng io.Reader) ([]byte, error) {
	key, err := secp256k1.GeneratePrivateKeyFromRand(rng)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return key.Serialize(), nil
}

func secp256k1PrivateKey(secret []byte) (*secp256k1.PrivateKey, error) {
	if len(secret) != secp256k1PrivateKeySize {
		return nil, fmt.Errorf("%w: secp256k1 private key must be %d bytes", ErrMalformedKey, secp256k1PrivateKeySize)
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(secret); overflow || scalar.IsZero() {
		return nil, fmt.Errorf("%w: secp256k1 private key out of range", ErrMalformedKey)
	}
	return secp256k1.NewPrivateKey(&scalar), nil
}

func secp256k1PublicKey(secret []byte) ([]byte, error) {
	key, err := secp256k1PrivateKey(secret)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return key.PubKey().SerializeCompressed(), nil
}

func secp256k1ParsePublicKey(payload []byte) (*secp256k1.PublicKey, error) {
	if len(payload) != secp256k1PublicKeySize {
		return nil, fmt.Errorf("%w: secp256k1 public key must be %d bytes compressed", ErrMalformedKey, secp256k1PublicKeySize)
	}
	key, err := secp256k1.ParsePubKey(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return key, nil
}

func secp256k1Sign(secret, message []byte) ([]byte, error) {
	key, err := secp256k1PrivateKey(secret)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	digest := sha256.Sum256(message)
	// The compact form is recovery code || r || s. The recovery code is not kept.
	compact := ecdsa.SignCompact(key, digest[:], true)
	return compact[1:], nil
}

func secp256k1Verify(publicKey, message, signature []byte) error {
	key, err := secp256k1ParsePublicKey(publicKey)
	if err != nil {
		return err
	}
	if len(signature) != secp256k1SignatureSize {
		return fmt.Errorf("%w: secp256k1 signature must be %d bytes", ErrMalformedSignature, secp256k1SignatureSize)
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(signature[:32]); overflow {
		return fmt.Errorf("%w: r overflows the group order", ErrMalformedSignature)
	}
	if overflow := s.SetByteSlice(signature[32:]); overflow {
		return fmt.Errorf("%w: s overflows the group order", ErrMalformedSignature)
	}

	digest := sha256.Sum256(message)
	if !ecdsa.NewSignature(&r, &s).Verify(digest[:], key) {
		return ErrVerificationFailed
	}
	return nil
}
