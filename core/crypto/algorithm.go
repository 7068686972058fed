package crypto

import (
	"encoding"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

var ErrUnknownAlgorithm = errors.New("unknown algorithm (known: ed25519, secp256k1, bls_normal, bls_small)")

// Algorithm identifies a signature scheme. The numeric values are part of the wire format.
type Algorithm uint8

var (
	_ pflag.Value              = (*Algorithm)(nil)
	_ encoding.TextUnmarshaler = (*Algorithm)(nil)
	_ encoding.TextMarshaler   = Algorithm(0)
)

const (
	Ed25519 Algorithm = iota
	Secp256k1
	BlsNormal
	BlsSmall
)

// DefaultAlgorithm is used when a key is generated without naming a scheme.
const DefaultAlgorithm = Ed25519

// Algorithms lists every supported scheme in tag order.
var Algorithms = []Algorithm{Ed25519, Secp256k1, BlsNormal, BlsSmall}

func (a Algorithm) String() string {
	switch a {
	case Ed25519:
		return "ed25519"
	case Secp256k1:
		return "secp256k1"
	case BlsNormal:
		return "bls_normal"
	case BlsSmall:
		return "bls_small"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

func (a Algorithm) valid() bool {
	return a <= BlsSmall
}

// ParseAlgorithm returns the algorithm named by s, ignoring case.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms {
		if strings.EqualFold(s, a.String()) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

func (a *Algorithm) Set(s string) error {
	parsed, err := ParseAlgorithm(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a *Algorithm) Type() string {
	return "Algorithm"
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.valid() {
		return nil, ErrUnknownAlgorithm
	}
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	return a.Set(string(text))
}
