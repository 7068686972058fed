package core

import (
	"github.com/NethermindEth/blockvault/core/crypto"
)

type TransactionPayload struct {
	// The account that submitted the transaction
	Authority string `cbor:"1,keyasint"`
	// Creation time in milliseconds since the unix epoch
	CreationTimeMs uint64 `cbor:"2,keyasint"`
	// Encoded instructions, opaque to the block layer
	Instructions [][]byte `cbor:"3,keyasint"`
	// How long the transaction may wait for inclusion, in milliseconds
	TimeToLiveMs *uint64           `cbor:"4,keyasint"`
	Nonce        *uint32           `cbor:"5,keyasint"`
	Metadata     map[string]string `cbor:"6,keyasint"`
}

type SignedTransaction struct {
	Signatures crypto.SignaturesOf[TransactionPayload] `cbor:"1,keyasint"`
	Payload    TransactionPayload                      `cbor:"2,keyasint"`
}

// NewSignedTransaction signs payload with keyPair.
func NewSignedTransaction(keyPair crypto.KeyPair, payload TransactionPayload) (SignedTransaction, error) {
	signatures, err := crypto.NewSignaturesOf(keyPair, &payload)
	if err != nil {
		return SignedTransaction{}, err
	}
	return SignedTransaction{Signatures: signatures, Payload: payload}, nil
}

func (tx *SignedTransaction) Hash() (crypto.HashOf[SignedTransaction], error) {
	return crypto.NewHashOf(tx)
}

// TransactionValue is a transaction as committed in a block, together with the reason it
// was rejected if it was.
type TransactionValue struct {
	Value SignedTransaction `cbor:"1,keyasint"`
	Error *string           `cbor:"2,keyasint"`
}

// Hash is the hash of the transaction itself. Whether it was rejected does not change it.
func (v *TransactionValue) Hash() (crypto.HashOf[SignedTransaction], error) {
	return v.Value.Hash()
}

func (v *TransactionValue) Rejected() bool {
	return v.Error != nil
}

// TransactionsHash returns the merkle root over the hashes of txs, or nil if txs is empty.
func TransactionsHash(txs []TransactionValue) (*crypto.HashOf[crypto.MerkleTree[SignedTransaction]], error) {
	leaves := make([]crypto.HashOf[SignedTransaction], len(txs))
	for i := range txs {
		h, err := txs[i].Hash()
		if err != nil {
			return nil, err
		}
		leaves[i] = h
	}
	return crypto.NewMerkleTree(leaves).Root(), nil
}
