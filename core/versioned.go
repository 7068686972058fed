package core

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/blockvault/core/crypto"
	"github.com/NethermindEth/blockvault/encoder"
)

// BlockVersion1 is the only block layout there is so far.
const BlockVersion1 uint8 = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported block version")
	ErrEmptyInput         = errors.New("empty input")
)

// VersionedSignedBlock is a SignedBlock tagged with its layout version. On the wire it is
// one version byte followed by the encoding of the block.
type VersionedSignedBlock struct {
	V1 *SignedBlock
}

func NewVersionedSignedBlock(block *SignedBlock) VersionedSignedBlock {
	return VersionedSignedBlock{V1: block}
}

func (v VersionedSignedBlock) Version() uint8 {
	if v.V1 != nil {
		return BlockVersion1
	}
	return 0
}

func (v VersionedSignedBlock) block() (*SignedBlock, error) {
	if v.V1 == nil {
		return nil, ErrUnsupportedVersion
	}
	return v.V1, nil
}

// Payload returns nil if v holds no block.
func (v VersionedSignedBlock) Payload() *BlockPayload {
	if v.V1 == nil {
		return nil
	}
	return &v.V1.Payload
}

func (v VersionedSignedBlock) Header() *BlockHeader {
	if v.V1 == nil {
		return nil
	}
	return &v.V1.Payload.Header
}

func (v VersionedSignedBlock) Signatures() crypto.SignaturesOf[BlockPayload] {
	if v.V1 == nil {
		return crypto.SignaturesOf[BlockPayload]{}
	}
	return v.V1.Signatures
}

// Hash is the hash of the payload. Neither the version nor the signatures contribute to it,
// so collecting more signatures does not change the identity of a block.
func (v VersionedSignedBlock) Hash() (BlockHash, error) {
	block, err := v.block()
	if err != nil {
		return BlockHash{}, err
	}
	h, err := block.Payload.Hash()
	if err != nil {
		return BlockHash{}, err
	}
	return crypto.Retype[VersionedSignedBlock](h), nil
}

func (v VersionedSignedBlock) Sign(keyPair crypto.KeyPair) error {
	block, err := v.block()
	if err != nil {
		return err
	}
	return block.Sign(keyPair)
}

func (v VersionedSignedBlock) AddSignature(signature crypto.SignatureOf[BlockPayload]) error {
	block, err := v.block()
	if err != nil {
		return err
	}
	return block.AddSignature(signature)
}

func (v VersionedSignedBlock) ReplaceSignatures(signatures crypto.SignaturesOf[BlockPayload]) error {
	block, err := v.block()
	if err != nil {
		return err
	}
	return block.ReplaceSignatures(signatures)
}

// EncodeVersioned returns the version byte followed by the encoded block.
func (v VersionedSignedBlock) EncodeVersioned() ([]byte, error) {
	block, err := v.block()
	if err != nil {
		return nil, err
	}
	b, err := encoder.Marshal(block)
	if err != nil {
		return nil, err
	}
	return append([]byte{BlockVersion1}, b...), nil
}

// DecodeVersioned decodes and validates a block produced by EncodeVersioned. Any input,
// including a truncated or extended one, yields either a valid block or an error.
func DecodeVersioned(b []byte) (VersionedSignedBlock, error) {
	if len(b) == 0 {
		return VersionedSignedBlock{}, ErrEmptyInput
	}
	switch version := b[0]; version {
	case BlockVersion1:
		block := new(SignedBlock)
		if err := encoder.Unmarshal(b[1:], block); err != nil {
			return VersionedSignedBlock{}, err
		}
		return VersionedSignedBlock{V1: block}, nil
	default:
		return VersionedSignedBlock{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

func (v VersionedSignedBlock) MarshalCBOR() ([]byte, error) {
	b, err := v.EncodeVersioned()
	if err != nil {
		return nil, err
	}
	return encoder.Marshal(b)
}

func (v *VersionedSignedBlock) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := encoder.Unmarshal(data, &b); err != nil {
		return err
	}
	decoded, err := DecodeVersioned(b)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func (v VersionedSignedBlock) String() string {
	if v.V1 == nil {
		return "Block(empty)"
	}
	hash, err := v.Hash()
	if err != nil {
		return fmt.Sprintf("Block №%d", v.V1.Payload.Header.Height)
	}
	return fmt.Sprintf("Block №%d (hash: %s)", v.V1.Payload.Header.Height, hash)
}
