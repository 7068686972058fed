package core

import (
	"cmp"
	"fmt"

	"github.com/NethermindEth/blockvault/core/crypto"
)

// PeerID identifies a network participant by its address and signing key.
type PeerID struct {
	Address   string           `cbor:"1,keyasint"`
	PublicKey crypto.PublicKey `cbor:"2,keyasint"`
}

func (p PeerID) Compare(other PeerID) int {
	if c := cmp.Compare(p.Address, other.Address); c != 0 {
		return c
	}
	return p.PublicKey.Compare(other.PublicKey)
}

func (p PeerID) String() string {
	return fmt.Sprintf("%s@%s", p.PublicKey, p.Address)
}
