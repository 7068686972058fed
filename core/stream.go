package core

import (
	"errors"

	"github.com/NethermindEth/blockvault/encoder"
)

var ErrZeroHeight = errors.New("block height must be at least 1")

// BlockSubscriptionRequest asks a peer to stream committed blocks starting at FromHeight.
type BlockSubscriptionRequest struct {
	FromHeight uint64 `cbor:"1,keyasint"`
}

func NewBlockSubscriptionRequest(fromHeight uint64) (BlockSubscriptionRequest, error) {
	if fromHeight == 0 {
		return BlockSubscriptionRequest{}, ErrZeroHeight
	}
	return BlockSubscriptionRequest{FromHeight: fromHeight}, nil
}

func (r *BlockSubscriptionRequest) UnmarshalCBOR(data []byte) error {
	type plain BlockSubscriptionRequest
	var decoded plain
	if err := encoder.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.FromHeight == 0 {
		return ErrZeroHeight
	}
	*r = BlockSubscriptionRequest(decoded)
	return nil
}

// BlockMessage carries one block of a subscription stream. Decoding it validates the block.
type BlockMessage struct {
	Block VersionedSignedBlock `cbor:"1,keyasint"`
}

// BlockRejectionReason explains why a proposed block was not committed.
type BlockRejectionReason uint8

const (
	ConsensusBlockRejection BlockRejectionReason = iota
)

func (r BlockRejectionReason) String() string {
	switch r {
	case ConsensusBlockRejection:
		return "Block was rejected during consensus"
	default:
		return "Unknown block rejection reason"
	}
}
