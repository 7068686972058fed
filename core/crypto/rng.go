package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20"
)

// seededReader is a deterministic CSPRNG: a ChaCha20 key stream keyed by SHA-256 of a seed.
type seededReader struct {
	cipher *chacha20.Cipher
}

// newSeededReader wipes seed once the stream is keyed.
func newSeededReader(seed []byte) (io.Reader, error) {
	key := sha256.Sum256(seed)
	clear(seed)
	defer clear(key[:])

	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &seededReader{cipher: c}, nil
}

func (r *seededReader) Read(p []byte) (int, error) {
	clear(p)
	r.cipher.XORKeyStream(p, p)
	return len(p), nil
}
