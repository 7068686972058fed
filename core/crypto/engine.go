package crypto

import "io"

// The functions below dispatch on the algorithm tag. Each scheme only ever sees keys and
// signatures of its own algorithm.

func generateKey(algorithm Algorithm, rng io.Reader) ([]byte, error) {
	switch algorithm {
	case Ed25519:
		return ed25519GenerateKey(rng)
	case Secp256k1:
		return secp256k1GenerateKey(rng)
	case BlsNormal, BlsSmall:
		return blsGenerateKey(rng)
	default:
		return nil, ErrUnknownAlgorithm
	}
}

func derivePublicKey(algorithm Algorithm, secret []byte) ([]byte, error) {
	switch algorithm {
	case Ed25519:
		return ed25519PublicKey(secret)
	case Secp256k1:
		return secp256k1PublicKey(secret)
	case BlsNormal:
		return blsNormalPublicKey(secret)
	case BlsSmall:
		return blsSmallPublicKey(secret)
	default:
		return nil, ErrUnknownAlgorithm
	}
}

func validatePublicKey(algorithm Algorithm, payload []byte) error {
	var err error
	switch algorithm {
	case Ed25519:
		_, err = ed25519ParsePublicKey(payload)
	case Secp256k1:
		_, err = secp256k1ParsePublicKey(payload)
	case BlsNormal:
		_, err = blsParseG1(payload)
	case BlsSmall:
		_, err = blsParseG2(payload)
	default:
		err = ErrUnknownAlgorithm
	}
	return err
}

func sign(key PrivateKey, message []byte) ([]byte, error) {
	secret := key.secret.Expose()
	switch key.algorithm {
	case Ed25519:
		return ed25519Sign(secret, message)
	case Secp256k1:
		return secp256k1Sign(secret, message)
	case BlsNormal:
		return blsNormalSign(secret, message)
	case BlsSmall:
		return blsSmallSign(secret, message)
	default:
		return nil, ErrUnknownAlgorithm
	}
}

func verify(key PublicKey, message, signature []byte) error {
	switch key.algorithm {
	case Ed25519:
		return ed25519Verify(key.payload, message, signature)
	case Secp256k1:
		return secp256k1Verify(key.payload, message, signature)
	case BlsNormal:
		return blsNormalVerify(key.payload, message, signature)
	case BlsSmall:
		return blsSmallVerify(key.payload, message, signature)
	default:
		return ErrUnknownAlgorithm
	}
}
