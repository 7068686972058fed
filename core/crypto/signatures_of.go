package crypto

import (
	"iter"
	"runtime"
	"slices"

	"github.com/NethermindEth/blockvault/encoder"
	"github.com/sourcegraph/conc/pool"
)

// signatureWrapperOf identifies a signature by its public key alone. It is the element
// type of SignaturesOf and is never handed out, so the key-only equality can not leak into
// code that compares signatures.
type signatureWrapperOf[T any] struct {
	signature SignatureOf[T]
}

func (w signatureWrapperOf[T]) compareKey(key PublicKey) int {
	return w.signature.PublicKey().Compare(key)
}

// SignaturesOf is a set of signatures over the same T with at most one signature per
// public key. Members are kept sorted by public key.
//
// Mutating methods may reuse the backing storage, so use Clone before modifying a copy.
type SignaturesOf[T any] struct {
	signatures []signatureWrapperOf[T]
}

// NewSignaturesOf returns a set holding a single signature of value by keyPair.
func NewSignaturesOf[T any](keyPair KeyPair, value *T) (SignaturesOf[T], error) {
	signature, err := NewSignatureOf(keyPair, value)
	if err != nil {
		return SignaturesOf[T]{}, err
	}
	return SignaturesOfFrom(signature), nil
}

// SignaturesOfFrom builds a set. If two signatures share a public key the later one wins.
func SignaturesOfFrom[T any](signatures ...SignatureOf[T]) SignaturesOf[T] {
	var set SignaturesOf[T]
	for _, s := range signatures {
		set.Insert(s)
	}
	return set
}

// CollectSignatures builds a set from seq with the same collision rule as SignaturesOfFrom.
func CollectSignatures[T any](seq iter.Seq[SignatureOf[T]]) SignaturesOf[T] {
	var set SignaturesOf[T]
	set.Extend(seq)
	return set
}

func (s *SignaturesOf[T]) search(key PublicKey) (int, bool) {
	return slices.BinarySearchFunc(s.signatures, key, signatureWrapperOf[T].compareKey)
}

// Insert adds signature, replacing any member with the same public key. It reports whether
// a member was replaced.
func (s *SignaturesOf[T]) Insert(signature SignatureOf[T]) bool {
	i, found := s.search(signature.PublicKey())
	if found {
		s.signatures[i] = signatureWrapperOf[T]{signature: signature}
		return true
	}
	s.signatures = slices.Insert(s.signatures, i, signatureWrapperOf[T]{signature: signature})
	return false
}

func (s *SignaturesOf[T]) Extend(seq iter.Seq[SignatureOf[T]]) {
	for signature := range seq {
		s.Insert(signature)
	}
}

// Remove drops the member signed by key and reports whether there was one.
func (s *SignaturesOf[T]) Remove(key PublicKey) bool {
	i, found := s.search(key)
	if found {
		s.signatures = slices.Delete(s.signatures, i, i+1)
	}
	return found
}

func (s SignaturesOf[T]) Get(key PublicKey) (SignatureOf[T], bool) {
	i, found := s.search(key)
	if !found {
		return SignatureOf[T]{}, false
	}
	return s.signatures[i].signature, true
}

func (s SignaturesOf[T]) Contains(key PublicKey) bool {
	_, found := s.search(key)
	return found
}

func (s SignaturesOf[T]) Len() int {
	return len(s.signatures)
}

// All yields the members in public key order.
func (s SignaturesOf[T]) All() iter.Seq[SignatureOf[T]] {
	return func(yield func(SignatureOf[T]) bool) {
		for _, w := range s.signatures {
			if !yield(w.signature) {
				return
			}
		}
	}
}

func (s SignaturesOf[T]) PublicKeys() []PublicKey {
	keys := make([]PublicKey, len(s.signatures))
	for i, w := range s.signatures {
		keys[i] = w.signature.PublicKey()
	}
	return keys
}

func (s SignaturesOf[T]) Slice() []SignatureOf[T] {
	signatures := make([]SignatureOf[T], len(s.signatures))
	for i, w := range s.signatures {
		signatures[i] = w.signature
	}
	return signatures
}

func (s SignaturesOf[T]) Clone() SignaturesOf[T] {
	return SignaturesOf[T]{signatures: slices.Clone(s.signatures)}
}

// Equal compares full signatures, not only public keys.
func (s SignaturesOf[T]) Equal(other SignaturesOf[T]) bool {
	return slices.EqualFunc(s.signatures, other.signatures, func(a, b signatureWrapperOf[T]) bool {
		return a.signature.Equal(b.signature)
	})
}

// IsSubset reports whether every member of s is in other with the same signature bytes.
func (s SignaturesOf[T]) IsSubset(other SignaturesOf[T]) bool {
	for _, w := range s.signatures {
		match, found := other.Get(w.signature.PublicKey())
		if !found || !match.Equal(w.signature) {
			return false
		}
	}
	return true
}

// VerifyHash checks every member against hash. When several members are invalid the one
// with the lowest public key is reported.
func (s SignaturesOf[T]) VerifyHash(hash HashOf[T]) error {
	errs := make([]error, len(s.signatures))
	if len(s.signatures) == 1 {
		errs[0] = s.signatures[0].signature.VerifyHash(hash)
	} else {
		p := pool.New().WithMaxGoroutines(runtime.GOMAXPROCS(0))
		for i, w := range s.signatures {
			p.Go(func() {
				errs[i] = w.signature.VerifyHash(hash)
			})
		}
		p.Wait()
	}

	for i, err := range errs {
		if err != nil {
			return &SignatureVerificationFail[T]{
				Signature: s.signatures[i].signature,
				Reason:    err.Error(),
				Err:       err,
			}
		}
	}
	return nil
}

// Verify checks every member against the hash of value.
func (s SignaturesOf[T]) Verify(value *T) error {
	hash, err := NewHashOf(value)
	if err != nil {
		return err
	}
	return s.VerifyHash(hash)
}

func (s SignaturesOf[T]) MarshalCBOR() ([]byte, error) {
	return encoder.Marshal(s.Slice())
}

// UnmarshalCBOR accepts members in any order and applies the same collision rule as
// SignaturesOfFrom.
func (s *SignaturesOf[T]) UnmarshalCBOR(data []byte) error {
	var signatures []SignatureOf[T]
	if err := encoder.Unmarshal(data, &signatures); err != nil {
		return err
	}
	*s = SignaturesOfFrom(signatures...)
	return nil
}
