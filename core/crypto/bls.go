package crypto

import (
	"fmt"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// BlsNormal keeps public keys in G1 and signatures in G2. BlsSmall swaps the groups to get
// short signatures at the cost of longer keys.
const (
	blsNormalDST = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"
	blsSmallDST  = "BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_"

	blsPrivateKeySize = fr.Bytes
	// 64 bytes reduced modulo r keep the bias of the scalar negligible
	blsSeedSize = 2 * fr.Bytes
)

func blsGenerateKey(rng io.Reader) ([]byte, error) {
	seed := make([]byte, blsSeedSize)
	defer clear(seed)
	if _, err := io.ReadFull(rng, seed); err != nil {
		return nil, err
	}

	scalar := new(big.Int).SetBytes(seed)
	scalar.Mod(scalar, fr.Modulus())
	if scalar.Sign() == 0 {
		return nil, fmt.Errorf("%w: bls private key is zero", ErrMalformedKey)
	}
	return scalar.FillBytes(make([]byte, blsPrivateKeySize)), nil
}

func blsScalar(secret []byte) (*big.Int, error) {
	if len(secret) != blsPrivateKeySize {
		return nil, fmt.Errorf("%w: bls private key must be %d bytes", ErrMalformedKey, blsPrivateKeySize)
	}
	scalar := new(big.Int).SetBytes(secret)
	if scalar.Sign() == 0 || scalar.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("%w: bls private key out of range", ErrMalformedKey)
	}
	return scalar, nil
}

func blsNormalPublicKey(secret []byte) ([]byte, error) {
	scalar, err := blsScalar(secret)
	if err != nil {
		return nil, err
	}
	_, _, g1, _ := bls12381.Generators()
	var pk bls12381.G1Affine
	pk.ScalarMultiplication(&g1, scalar)
	b := pk.Bytes()
	return b[:], nil
}

func blsSmallPublicKey(secret []byte) ([]byte, error) {
	scalar, err := blsScalar(secret)
	if err != nil {
		return nil, err
	}
	_, _, _, g2 := bls12381.Generators()
	var pk bls12381.G2Affine
	pk.ScalarMultiplication(&g2, scalar)
	b := pk.Bytes()
	return b[:], nil
}

// blsParseG1 accepts only the compressed form. SetBytes checks subgroup membership.
func blsParseG1(b []byte) (*bls12381.G1Affine, error) {
	if len(b) != bls12381.SizeOfG1AffineCompressed {
		return nil, fmt.Errorf("%w: G1 point must be %d bytes", ErrMalformedKey, bls12381.SizeOfG1AffineCompressed)
	}
	var p bls12381.G1Affine
	if _, err := p.SetBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	if p.IsInfinity() {
		return nil, fmt.Errorf("%w: G1 point at infinity", ErrMalformedKey)
	}
	return &p, nil
}

func blsParseG2(b []byte) (*bls12381.G2Affine, error) {
	if len(b) != bls12381.SizeOfG2AffineCompressed {
		return nil, fmt.Errorf("%w: G2 point must be %d bytes", ErrMalformedKey, bls12381.SizeOfG2AffineCompressed)
	}
	var p bls12381.G2Affine
	if _, err := p.SetBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	if p.IsInfinity() {
		return nil, fmt.Errorf("%w: G2 point at infinity", ErrMalformedKey)
	}
	return &p, nil
}

func blsNormalSign(secret, message []byte) ([]byte, error) {
	scalar, err := blsScalar(secret)
	if err != nil {
		return nil, err
	}
	h, err := bls12381.HashToG2(message, []byte(blsNormalDST))
	if err != nil {
		return nil, err
	}
	var sig bls12381.G2Affine
	sig.ScalarMultiplication(&h, scalar)
	b := sig.Bytes()
	return b[:], nil
}

func blsSmallSign(secret, message []byte) ([]byte, error) {
	scalar, err := blsScalar(secret)
	if err != nil {
		return nil, err
	}
	h, err := bls12381.HashToG1(message, []byte(blsSmallDST))
	if err != nil {
		return nil, err
	}
	var sig bls12381.G1Affine
	sig.ScalarMultiplication(&h, scalar)
	b := sig.Bytes()
	return b[:], nil
}

// blsNormalVerify checks e(pk, H(m)) == e(g1, sig).
func blsNormalVerify(publicKey, message, signature []byte) error {
	pk, err := blsParseG1(publicKey)
	if err != nil {
		return err
	}
	if len(signature) != bls12381.SizeOfG2AffineCompressed {
		return fmt.Errorf("%w: bls signature must be %d bytes", ErrMalformedSignature, bls12381.SizeOfG2AffineCompressed)
	}
	var sig bls12381.G2Affine
	if _, err = sig.SetBytes(signature); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	h, err := bls12381.HashToG2(message, []byte(blsNormalDST))
	if err != nil {
		return err
	}
	_, _, g1, _ := bls12381.Generators()
	var negG1 bls12381.G1Affine
	negG1.Neg(&g1)

	ok, err := bls12381.PairingCheck([]bls12381.G1Affine{*pk, negG1}, []bls12381.G2Affine{h, sig})
	if err != nil {
		return err
	}
	if !ok {
		return ErrVerificationFailed
	}
	return nil
}

// blsSmallVerify checks e(sig, g2) == e(H(m), pk).
func blsSmallVerify(publicKey, message, signature []byte) error {
	pk, err := blsParseG2(publicKey)
	if err != nil {
		return err
	}
	if len(signature) != bls12381.SizeOfG1AffineCompressed {
		return fmt.Errorf("%w: bls signature must be %d bytes", ErrMalformedSignature, bls12381.SizeOfG1AffineCompressed)
	}
	var sig bls12381.G1Affine
	if _, err = sig.SetBytes(signature); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	h, err := bls12381.HashToG1(message, []byte(blsSmallDST))
	if err != nil {
		return err
	}
	_, _, _, g2 := bls12381.Generators()
	var negH bls12381.G1Affine
	negH.Neg(&h)

	ok, err := bls12381.PairingCheck([]bls12381.G1Affine{sig, negH}, []bls12381.G2Affine{g2, *pk})
	if err != nil {
		return err
	}
	if !ok {
		return ErrVerificationFailed
	}
	return nil
}
