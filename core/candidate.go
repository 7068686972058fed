package core

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/blockvault/core/crypto"
	"github.com/NethermindEth/blockvault/encoder"
)

// Rejection reasons of blocks that fail validation on decode. The messages are shown to
// operators as is.
var (
	ErrTransactionsHashMismatch = errors.New("Transactions' hash incorrect")      //nolint:stylecheck
	ErrInvalidBlockSignatures   = errors.New("Block contains invalid signatures") //nolint:stylecheck
)

// signedBlockCandidate has the layout of SignedBlock but none of its methods, so it can be
// decoded without validation.
type signedBlockCandidate SignedBlock

// validate checks, in order, that the block has transactions, that its transactions hash
// matches the transactions it carries and that every signature verifies. Chaining to the
// previous block is not checked here.
func (c *signedBlockCandidate) validate() error {
	if len(c.Payload.Transactions) == 0 {
		return ErrEmptyBlock
	}

	actual, err := TransactionsHash(c.Payload.Transactions)
	if err != nil {
		return err
	}
	expected := c.Payload.Header.TransactionsHash
	if crypto.CompareHashPtr(expected, actual) != 0 {
		return fmt.Errorf("%w. Expected: %s, actual: %s", ErrTransactionsHashMismatch, hashString(expected), hashString(actual))
	}

	hash, err := c.Payload.Hash()
	if err != nil {
		return err
	}
	if err = c.Signatures.VerifyHash(hash); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBlockSignatures, err)
	}
	return nil
}

func hashString[T any](h *crypto.HashOf[T]) string {
	if h == nil {
		return "none"
	}
	return h.String()
}

// UnmarshalCBOR decodes a block and validates it. A block that decodes but does not pass
// validation is an error, so a *SignedBlock obtained by decoding is always valid.
func (b *SignedBlock) UnmarshalCBOR(data []byte) error {
	var candidate signedBlockCandidate
	if err := encoder.Unmarshal(data, &candidate); err != nil {
		return err
	}
	if err := candidate.validate(); err != nil {
		return err
	}
	*b = SignedBlock(candidate)
	return nil
}
