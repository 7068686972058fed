package crypto

import (
	"crypto/ed25519"
	"fmt"
	"io"
)

func ed25519GenerateKey(rng io.Reader) ([]byte, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(rng, seed); err != nil {
		return nil, err
	}
	return seed, nil
}

func ed25519PrivateKey(secret []byte) (ed25519.PrivateKey, error) {
	if len(secret) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: ed25519 private key must be %d bytes", ErrMalformedKey, ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(secret), nil
}

func ed25519PublicKey(secret []byte) ([]byte, error) {
	key, err := ed25519PrivateKey(secret)
	if err != nil {
		return nil, err
	}
	defer clear(key)
	return []byte(key.Public().(ed25519.PublicKey)), nil
}

func ed25519ParsePublicKey(payload []byte) (ed25519.PublicKey, error) {
	if len(payload) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: ed25519 public key must be %d bytes", ErrMalformedKey, ed25519.PublicKeySize)
	}
	return payload, nil
}

func ed25519Sign(secret, message []byte) ([]byte, error) {
	key, err := ed25519PrivateKey(secret)
	if err != nil {
		return nil, err
	}
	defer clear(key)
	return ed25519.Sign(key, message), nil
}

func ed25519Verify(publicKey, message, signature []byte) error {
	key, err := ed25519ParsePublicKey(publicKey)
	if err != nil {
		return err
	}
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: ed25519 signature must be %d bytes", ErrMalformedSignature, ed25519.SignatureSize)
	}
	if !ed25519.Verify(key, message, signature) {
		return ErrVerificationFailed
	}
	return nil
}
