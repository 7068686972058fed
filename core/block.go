package core

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/NethermindEth/blockvault/core/crypto"
)

type (
	BlockHash        = crypto.HashOf[VersionedSignedBlock]
	TransactionsRoot = crypto.HashOf[crypto.MerkleTree[SignedTransaction]]
)

type BlockHeader struct {
	// The number of this block, starting at 1 for genesis
	Height uint64 `cbor:"1,keyasint"`
	// Creation time in milliseconds since the unix epoch
	TimestampMs uint64 `cbor:"2,keyasint"`
	// The hash of the parent block, nil for genesis
	PreviousBlockHash *BlockHash `cbor:"3,keyasint"`
	// The merkle root over the hashes of the transactions in this block
	TransactionsHash *TransactionsRoot `cbor:"4,keyasint"`
	// The peers that take part in consensus for this block
	CommitTopology []PeerID `cbor:"5,keyasint"`
	// How many view changes consensus went through before this block was produced
	ViewChangeIndex uint64 `cbor:"6,keyasint"`
	// Estimated time for consensus to finish, in milliseconds
	ConsensusEstimationMs uint64 `cbor:"7,keyasint"`
}

func (h *BlockHeader) IsGenesis() bool {
	return h.Height == 1
}

func (h *BlockHeader) Timestamp() time.Time {
	return time.UnixMilli(int64(h.TimestampMs))
}

func (h *BlockHeader) ConsensusEstimation() time.Duration {
	return time.Duration(h.ConsensusEstimationMs) * time.Millisecond
}

// Compare orders headers field by field in declaration order.
func (h *BlockHeader) Compare(other *BlockHeader) int {
	return cmp.Or(
		cmp.Compare(h.Height, other.Height),
		cmp.Compare(h.TimestampMs, other.TimestampMs),
		crypto.CompareHashPtr(h.PreviousBlockHash, other.PreviousBlockHash),
		crypto.CompareHashPtr(h.TransactionsHash, other.TransactionsHash),
		slices.CompareFunc(h.CommitTopology, other.CommitTopology, PeerID.Compare),
		cmp.Compare(h.ViewChangeIndex, other.ViewChangeIndex),
		cmp.Compare(h.ConsensusEstimationMs, other.ConsensusEstimationMs),
	)
}

type BlockPayload struct {
	Header               BlockHeader        `cbor:"1,keyasint"`
	Transactions         []TransactionValue `cbor:"2,keyasint"`
	EventRecommendations []Event            `cbor:"3,keyasint"`
}

// Equal compares headers only. The header commits to the transactions through
// TransactionsHash, so two payloads with equal headers describe the same block.
func (p *BlockPayload) Equal(other *BlockPayload) bool {
	return p.Compare(other) == 0
}

// Compare orders payloads by header.
func (p *BlockPayload) Compare(other *BlockPayload) int {
	return p.Header.Compare(&other.Header)
}

func (p *BlockPayload) Hash() (crypto.HashOf[BlockPayload], error) {
	return crypto.NewHashOf(p)
}

// SignedBlock is a block payload with the signatures of the peers that committed it.
// Decoding a SignedBlock validates it, see UnmarshalCBOR.
type SignedBlock struct {
	Signatures crypto.SignaturesOf[BlockPayload] `cbor:"1,keyasint"`
	Payload    BlockPayload                      `cbor:"2,keyasint"`
}

var ErrEmptyBlock = errors.New("Block is empty") //nolint:stylecheck

// NewSignedBlock assembles a block over txs, fills in its TransactionsHash and signs it
// with keyPair.
func NewSignedBlock(header BlockHeader, txs []TransactionValue, events []Event, keyPair crypto.KeyPair) (*SignedBlock, error) {
	if len(txs) == 0 {
		return nil, ErrEmptyBlock
	}
	root, err := TransactionsHash(txs)
	if err != nil {
		return nil, fmt.Errorf("NewSignedBlock: failed to hash transactions: %w", err)
	}
	header.TransactionsHash = root

	block := &SignedBlock{
		Payload: BlockPayload{
			Header:               header,
			Transactions:         txs,
			EventRecommendations: events,
		},
	}
	if err = block.Sign(keyPair); err != nil {
		return nil, err
	}
	return block, nil
}

func (b *SignedBlock) Header() *BlockHeader {
	return &b.Payload.Header
}

// Sign adds the signature of keyPair, replacing an earlier signature by the same key.
func (b *SignedBlock) Sign(keyPair crypto.KeyPair) error {
	hash, err := b.Payload.Hash()
	if err != nil {
		return err
	}
	signature, err := crypto.NewSignatureOfHash(keyPair, hash)
	if err != nil {
		return err
	}
	b.Signatures.Insert(signature)
	return nil
}

// AddSignature verifies signature against the payload and adds it. An invalid signature
// leaves the block unchanged.
func (b *SignedBlock) AddSignature(signature crypto.SignatureOf[BlockPayload]) error {
	hash, err := b.Payload.Hash()
	if err != nil {
		return err
	}
	if err = signature.VerifyHash(hash); err != nil {
		return fmt.Errorf("AddSignature: %w", err)
	}
	b.Signatures.Insert(signature)
	return nil
}

// ReplaceSignatures swaps the signature set for signatures if every one of them verifies.
// Otherwise the existing set is kept and the first failure is returned.
func (b *SignedBlock) ReplaceSignatures(signatures crypto.SignaturesOf[BlockPayload]) error {
	hash, err := b.Payload.Hash()
	if err != nil {
		return err
	}
	if err = signatures.VerifyHash(hash); err != nil {
		return err
	}
	b.Signatures = signatures.Clone()
	return nil
}
