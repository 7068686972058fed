package crypto

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedKey        = errors.New("malformed key")
	ErrMalformedSignature  = errors.New("malformed signature")
	ErrVerificationFailed  = errors.New("signature verification failed")
	ErrAlgorithmMismatch   = errors.New("key algorithms do not match")
	ErrKeyPairMismatch     = errors.New("private key does not match public key")
	ErrMalformedMultihash  = errors.New("malformed multihash")
	ErrUnsupportedMultiKey = errors.New("unsupported multihash codec")
)

// SignatureVerificationFail reports the first signature of a set that did not verify.
type SignatureVerificationFail[T any] struct {
	Signature SignatureOf[T]
	Reason    string
	Err       error
}

func (e *SignatureVerificationFail[T]) Error() string {
	return fmt.Sprintf("Failed to verify signatures because of signature %s: %s", e.Signature.PublicKey(), e.Reason)
}

func (e *SignatureVerificationFail[T]) Unwrap() error {
	return e.Err
}
