package core_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/NethermindEth/blockvault/core"
	"github.com/NethermindEth/blockvault/core/crypto"
	"github.com/NethermindEth/blockvault/encoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyPair(t testing.TB, seed string, algorithm crypto.Algorithm) crypto.KeyPair {
	t.Helper()
	kp, err := crypto.NewKeyPairFromSeed([]byte(seed), algorithm)
	require.NoError(t, err)
	return kp
}

func transaction(t testing.TB, kp crypto.KeyPair, instruction string) core.TransactionValue {
	t.Helper()
	tx, err := core.NewSignedTransaction(kp, core.TransactionPayload{
		Authority:      "alice@wonderland",
		CreationTimeMs: 1_700_000_000_000,
		Instructions:   [][]byte{[]byte(instruction)},
	})
	require.NoError(t, err)
	return core.TransactionValue{Value: tx}
}

func newBlock(t testing.TB, height uint64, txCount int, signers ...crypto.KeyPair) core.VersionedSignedBlock {
	t.Helper()
	require.NotEmpty(t, signers)

	txs := make([]core.TransactionValue, txCount)
	for i := range txs {
		txs[i] = transaction(t, signers[0], fmt.Sprintf("instruction %d/%d", height, i))
	}
	block, err := core.NewSignedBlock(core.BlockHeader{Height: height, TimestampMs: 1_700_000_000_000 + height}, txs, nil, signers[0])
	require.NoError(t, err)
	for _, kp := range signers[1:] {
		require.NoError(t, block.Sign(kp))
	}
	return core.NewVersionedSignedBlock(block)
}

func roundTrip(t *testing.T, block core.VersionedSignedBlock) (core.VersionedSignedBlock, error) {
	t.Helper()
	b, err := block.EncodeVersioned()
	require.NoError(t, err)
	return core.DecodeVersioned(b)
}

func TestGenesisBlockRoundTrip(t *testing.T) {
	kp := keyPair(t, "leader", crypto.Ed25519)
	t1 := transaction(t, kp, "mint")
	t2 := transaction(t, kp, "transfer")

	block, err := core.NewSignedBlock(core.BlockHeader{Height: 1}, []core.TransactionValue{t1, t2}, nil, kp)
	require.NoError(t, err)

	h1, err := t1.Hash()
	require.NoError(t, err)
	h2, err := t2.Hash()
	require.NoError(t, err)
	root := crypto.NewHash(append(h1.Bytes(), h2.Bytes()...))
	require.NotNil(t, block.Payload.Header.TransactionsHash)
	assert.Equal(t, root, block.Payload.Header.TransactionsHash.Untyped())
	assert.True(t, block.Header().IsGenesis())

	versioned := core.NewVersionedSignedBlock(block)
	encoded, err := versioned.EncodeVersioned()
	require.NoError(t, err)
	assert.Equal(t, core.BlockVersion1, encoded[0])

	decoded, err := core.DecodeVersioned(encoded)
	require.NoError(t, err)
	assert.Equal(t, versioned, decoded)
}

func TestNewSignedBlockRejectsEmpty(t *testing.T) {
	_, err := core.NewSignedBlock(core.BlockHeader{Height: 1}, nil, nil, keyPair(t, "leader", crypto.Ed25519))
	assert.ErrorIs(t, err, core.ErrEmptyBlock)
}

func TestDecodeValidatesBlocks(t *testing.T) {
	leader := keyPair(t, "leader", crypto.Ed25519)

	t.Run("empty block", func(t *testing.T) {
		block := &core.SignedBlock{Payload: core.BlockPayload{Header: core.BlockHeader{Height: 1}}}
		require.NoError(t, block.Sign(leader))

		_, err := roundTrip(t, core.NewVersionedSignedBlock(block))
		require.ErrorIs(t, err, core.ErrEmptyBlock)
		assert.Equal(t, "Block is empty", err.Error())
	})

	t.Run("transactions hash does not match", func(t *testing.T) {
		block := newBlock(t, 1, 2, leader)
		wrong := core.TransactionsRoot(crypto.NewHash([]byte("not the root")))
		block.V1.Payload.Header.TransactionsHash = &wrong
		block.V1.Signatures = crypto.SignaturesOf[core.BlockPayload]{}
		require.NoError(t, block.Sign(leader))

		_, err := roundTrip(t, block)
		require.ErrorIs(t, err, core.ErrTransactionsHashMismatch)
		assert.Contains(t, err.Error(), "Transactions' hash incorrect. Expected: "+wrong.String())
	})

	t.Run("transactions hash missing", func(t *testing.T) {
		block := newBlock(t, 1, 1, leader)
		block.V1.Payload.Header.TransactionsHash = nil
		block.V1.Signatures = crypto.SignaturesOf[core.BlockPayload]{}
		require.NoError(t, block.Sign(leader))

		_, err := roundTrip(t, block)
		require.ErrorIs(t, err, core.ErrTransactionsHashMismatch)
		assert.Contains(t, err.Error(), "Expected: none")
	})

	t.Run("invalid signature", func(t *testing.T) {
		block := newBlock(t, 1, 1, leader)
		other := newBlock(t, 2, 1, leader)
		forged, ok := other.Signatures().Get(leader.PublicKey())
		require.True(t, ok)
		block.V1.Signatures.Insert(forged)

		_, err := roundTrip(t, block)
		require.ErrorIs(t, err, core.ErrInvalidBlockSignatures)
		assert.Contains(t, err.Error(), "Block contains invalid signatures")

		var fail *crypto.SignatureVerificationFail[core.BlockPayload]
		require.True(t, errors.As(err, &fail))
		assert.True(t, fail.Signature.PublicKey().Equal(leader.PublicKey()))
	})

	t.Run("validation order puts emptiness first", func(t *testing.T) {
		wrong := core.TransactionsRoot(crypto.NewHash([]byte("x")))
		block := &core.SignedBlock{Payload: core.BlockPayload{Header: core.BlockHeader{Height: 1, TransactionsHash: &wrong}}}
		other := newBlock(t, 2, 1, leader)
		forged, _ := other.Signatures().Get(leader.PublicKey())
		block.Signatures.Insert(forged)

		_, err := roundTrip(t, core.NewVersionedSignedBlock(block))
		assert.ErrorIs(t, err, core.ErrEmptyBlock)
	})
}

func TestTamperedTransactionIsRejected(t *testing.T) {
	leader := keyPair(t, "leader", crypto.Ed25519)
	block := newBlock(t, 1, 2, leader)
	_, err := roundTrip(t, block)
	require.NoError(t, err)

	// the header keeps the root computed before the change
	instructions := block.V1.Payload.Transactions[1].Value.Payload.Instructions
	instructions[0][0] ^= 0x01

	_, err = roundTrip(t, block)
	require.ErrorIs(t, err, core.ErrTransactionsHashMismatch)
}

func TestCorruptedSignatureByteIsRejected(t *testing.T) {
	leader := keyPair(t, "leader", crypto.Ed25519)
	follower := keyPair(t, "follower", crypto.Ed25519)
	block := newBlock(t, 1, 1, leader, follower)

	signature, ok := block.Signatures().Get(follower.PublicKey())
	require.True(t, ok)
	payload := signature.Payload()
	payload[len(payload)/2] ^= 0x01
	block.V1.Signatures.Insert(crypto.TypedSignature[core.BlockPayload](crypto.SignatureFromBytes(follower.PublicKey(), payload)))
	require.Equal(t, 2, block.Signatures().Len())

	_, err := roundTrip(t, block)
	require.ErrorIs(t, err, core.ErrInvalidBlockSignatures)

	// one signer fewer is still a valid block
	require.True(t, block.V1.Signatures.Remove(follower.PublicKey()))
	decoded, err := roundTrip(t, block)
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.Signatures().Len())
	assert.True(t, decoded.Signatures().Contains(leader.PublicKey()))
}

func TestBlockSignedByEveryAlgorithm(t *testing.T) {
	signers := make([]crypto.KeyPair, 0, len(crypto.Algorithms))
	for _, algorithm := range crypto.Algorithms {
		signers = append(signers, keyPair(t, "peer "+algorithm.String(), algorithm))
	}

	block := newBlock(t, 3, 4, signers...)
	assert.Equal(t, len(signers), block.Signatures().Len())

	decoded, err := roundTrip(t, block)
	require.NoError(t, err)
	assert.Equal(t, block, decoded)
}

func TestRemovingASignatureKeepsTheBlockValid(t *testing.T) {
	a := keyPair(t, "a", crypto.Ed25519)
	b := keyPair(t, "b", crypto.Secp256k1)
	block := newBlock(t, 5, 1, a, b)

	signatures := block.Signatures().Clone()
	require.True(t, signatures.Remove(b.PublicKey()))
	block.V1.Signatures = signatures

	decoded, err := roundTrip(t, block)
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.Signatures().Len())
}

func TestHashIgnoresSignatures(t *testing.T) {
	block := newBlock(t, 1, 1, keyPair(t, "a", crypto.Ed25519))
	before, err := block.Hash()
	require.NoError(t, err)

	require.NoError(t, block.Sign(keyPair(t, "b", crypto.BlsNormal)))
	after, err := block.Hash()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	payloadHash, err := block.Payload().Hash()
	require.NoError(t, err)
	assert.Equal(t, payloadHash.Untyped(), after.Untyped())
}

func TestAddSignature(t *testing.T) {
	a := keyPair(t, "a", crypto.Ed25519)
	b := keyPair(t, "b", crypto.BlsSmall)
	block := newBlock(t, 1, 1, a)

	good, err := crypto.NewSignatureOf(b, block.Payload())
	require.NoError(t, err)
	require.NoError(t, block.AddSignature(good))
	assert.Equal(t, 2, block.Signatures().Len())

	other := newBlock(t, 2, 1, a)
	bad, err := crypto.NewSignatureOf(b, other.Payload())
	require.NoError(t, err)
	before := block.Signatures().Clone()
	assert.Error(t, block.AddSignature(bad))
	assert.True(t, before.Equal(block.Signatures()))
}

func TestReplaceSignaturesIsAllOrNothing(t *testing.T) {
	a := keyPair(t, "a", crypto.Ed25519)
	b := keyPair(t, "b", crypto.Secp256k1)
	c := keyPair(t, "c", crypto.BlsNormal)
	block := newBlock(t, 1, 1, a)
	other := newBlock(t, 2, 1, a)

	goodB, err := crypto.NewSignatureOf(b, block.Payload())
	require.NoError(t, err)
	goodC, err := crypto.NewSignatureOf(c, block.Payload())
	require.NoError(t, err)
	badC, err := crypto.NewSignatureOf(c, other.Payload())
	require.NoError(t, err)

	before := block.Signatures().Clone()
	err = block.ReplaceSignatures(crypto.SignaturesOfFrom(goodB, badC))
	require.Error(t, err)
	assert.True(t, before.Equal(block.Signatures()))

	replacement := crypto.SignaturesOfFrom(goodB, goodC)
	require.NoError(t, block.ReplaceSignatures(replacement))
	assert.True(t, replacement.Equal(block.Signatures()))
	assert.False(t, block.Signatures().Contains(a.PublicKey()))
}

func TestPayloadEqualityIsHeaderOnly(t *testing.T) {
	block := newBlock(t, 1, 1, keyPair(t, "a", crypto.Ed25519))
	payload := *block.Payload()
	withEvents := payload
	withEvents.EventRecommendations = []core.Event{{Kind: core.DataEvent, Data: []byte{1}}}

	assert.True(t, payload.Equal(&withEvents))
	assert.Equal(t, 0, payload.Compare(&withEvents))

	later := payload
	later.Header.Height++
	assert.False(t, payload.Equal(&later))
	assert.Equal(t, -1, payload.Compare(&later))
}

func TestHeaderCompare(t *testing.T) {
	prev := core.BlockHash(crypto.NewHash([]byte("prev")))
	key := keyPair(t, "peer", crypto.Ed25519).PublicKey()

	base := core.BlockHeader{Height: 2, TimestampMs: 10}
	tests := map[string]struct {
		other core.BlockHeader
		want  int
	}{
		"equal": {
			other: base,
			want:  0,
		},
		"higher": {
			other: core.BlockHeader{Height: 3},
			want:  -1,
		},
		"later": {
			other: core.BlockHeader{Height: 2, TimestampMs: 11},
			want:  -1,
		},
		"earlier": {
			other: core.BlockHeader{Height: 2, TimestampMs: 9},
			want:  1,
		},
		"missing hash sorts first": {
			other: core.BlockHeader{Height: 2, TimestampMs: 10, PreviousBlockHash: &prev},
			want:  -1,
		},
		"topology": {
			other: core.BlockHeader{Height: 2, TimestampMs: 10, CommitTopology: []core.PeerID{{Address: "127.0.0.1:1337", PublicKey: key}}},
			want:  -1,
		},
		"view change": {
			other: core.BlockHeader{Height: 2, TimestampMs: 10, ViewChangeIndex: 1},
			want:  -1,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, base.Compare(&test.other))
			assert.Equal(t, -test.want, test.other.Compare(&base))
		})
	}
}

func TestDecodeVersionedRejectsMalformedInput(t *testing.T) {
	block := newBlock(t, 1, 2, keyPair(t, "a", crypto.Ed25519))
	encoded, err := block.EncodeVersioned()
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := core.DecodeVersioned(nil)
		assert.ErrorIs(t, err, core.ErrEmptyInput)
	})

	t.Run("unknown version", func(t *testing.T) {
		for _, version := range []byte{0, 2, 0xff} {
			b := append([]byte{version}, encoded[1:]...)
			_, err := core.DecodeVersioned(b)
			assert.ErrorIs(t, err, core.ErrUnsupportedVersion)
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := core.DecodeVersioned(append(append([]byte(nil), encoded...), 0x00))
		assert.Error(t, err)
	})

	t.Run("every truncation", func(t *testing.T) {
		for i := 1; i < len(encoded); i++ {
			_, err := core.DecodeVersioned(encoded[:i])
			assert.Error(t, err, "truncated to %d bytes", i)
		}
	})

	t.Run("nothing to encode", func(t *testing.T) {
		_, err := core.VersionedSignedBlock{}.EncodeVersioned()
		assert.ErrorIs(t, err, core.ErrUnsupportedVersion)
		_, err = core.VersionedSignedBlock{}.Hash()
		assert.ErrorIs(t, err, core.ErrUnsupportedVersion)
	})
}

func TestBlockMessage(t *testing.T) {
	block := newBlock(t, 7, 1, keyPair(t, "a", crypto.Secp256k1))
	encoder.TestSymmetry(t, core.BlockMessage{Block: block})

	t.Run("invalid block inside a message", func(t *testing.T) {
		invalid := newBlock(t, 7, 1, keyPair(t, "a", crypto.Secp256k1))
		invalid.V1.Payload.Header.TimestampMs++
		b, err := encoder.Marshal(core.BlockMessage{Block: invalid})
		require.NoError(t, err)

		var msg core.BlockMessage
		assert.ErrorIs(t, encoder.Unmarshal(b, &msg), core.ErrInvalidBlockSignatures)
	})
}

func TestBlockSubscriptionRequest(t *testing.T) {
	_, err := core.NewBlockSubscriptionRequest(0)
	assert.ErrorIs(t, err, core.ErrZeroHeight)

	req, err := core.NewBlockSubscriptionRequest(3)
	require.NoError(t, err)
	encoder.TestSymmetry(t, req)

	b, err := encoder.Marshal(map[int]uint64{1: 0})
	require.NoError(t, err)
	var decoded core.BlockSubscriptionRequest
	assert.ErrorIs(t, encoder.Unmarshal(b, &decoded), core.ErrZeroHeight)
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "Block was rejected during consensus", core.ConsensusBlockRejection.String())
}

func FuzzDecodeVersioned(f *testing.F) {
	block := newBlock(f, 1, 2, keyPair(f, "a", crypto.Ed25519), keyPair(f, "b", crypto.BlsSmall))
	encoded, err := block.EncodeVersioned()
	require.NoError(f, err)

	f.Add(encoded)
	f.Add(encoded[:len(encoded)/2])
	f.Add([]byte{core.BlockVersion1})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		decoded, err := core.DecodeVersioned(data)
		if err != nil {
			return
		}
		reencoded, err := decoded.EncodeVersioned()
		require.NoError(t, err)
		_, err = core.DecodeVersioned(reencoded)
		require.NoError(t, err)
	})
}

func BenchmarkDecodeVersioned(b *testing.B) {
	block := newBlock(b, 1, 64, keyPair(b, "a", crypto.Ed25519), keyPair(b, "b", crypto.Secp256k1))
	encoded, err := block.EncodeVersioned()
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := core.DecodeVersioned(encoded)
		require.NoError(b, err)
	}
}

func TestBlockString(t *testing.T) {
	block := newBlock(t, 7, 1, keyPair(t, "leader", crypto.Ed25519))
	hash, err := block.Hash()
	require.NoError(t, err)

	assert.Equal(t, "Block №7 (hash: "+hash.String()+")", block.String())
	assert.Equal(t, "Block(empty)", core.VersionedSignedBlock{}.String())
}

func TestHeaderTimes(t *testing.T) {
	header := core.BlockHeader{TimestampMs: 1_700_000_000_123, ConsensusEstimationMs: 4_000}

	assert.Equal(t, int64(1_700_000_000_123), header.Timestamp().UnixMilli())
	assert.Equal(t, 4*time.Second, header.ConsensusEstimation())
}
