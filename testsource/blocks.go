// Package testsource builds deterministic keys and blocks for tests.
package testsource

import (
	"fmt"
	"testing"

	"github.com/NethermindEth/blockvault/core"
	"github.com/NethermindEth/blockvault/core/crypto"
	"github.com/stretchr/testify/require"
)

const GenesisTimestampMs = 1_700_000_000_000

func KeyPair(t testing.TB, seed string, algorithm crypto.Algorithm) crypto.KeyPair {
	t.Helper()
	kp, err := crypto.NewKeyPairFromSeed([]byte(seed), algorithm)
	require.NoError(t, err)
	return kp
}

func Transaction(t testing.TB, kp crypto.KeyPair, instruction string) core.TransactionValue {
	t.Helper()
	tx, err := core.NewSignedTransaction(kp, core.TransactionPayload{
		Authority:      "alice@wonderland",
		CreationTimeMs: GenesisTimestampMs,
		Instructions:   [][]byte{[]byte(instruction)},
	})
	require.NoError(t, err)
	return core.TransactionValue{Value: tx}
}

// Block builds a block at height on top of previous, which is nil for genesis. The first
// signer also signs the transactions.
func Block(t testing.TB, height uint64, previous *core.BlockHash, txCount int, signers ...crypto.KeyPair) core.VersionedSignedBlock {
	t.Helper()
	require.NotEmpty(t, signers)

	txs := make([]core.TransactionValue, txCount)
	for i := range txs {
		txs[i] = Transaction(t, signers[0], fmt.Sprintf("instruction %d/%d", height, i))
	}
	header := core.BlockHeader{
		Height:            height,
		TimestampMs:       GenesisTimestampMs + height,
		PreviousBlockHash: previous,
	}
	block, err := core.NewSignedBlock(header, txs, nil, signers[0])
	require.NoError(t, err)
	for _, kp := range signers[1:] {
		require.NoError(t, block.Sign(kp))
	}
	return core.NewVersionedSignedBlock(block)
}

// Chain builds n linked blocks starting at genesis.
func Chain(t testing.TB, n int, signers ...crypto.KeyPair) []core.VersionedSignedBlock {
	t.Helper()

	blocks := make([]core.VersionedSignedBlock, 0, n)
	var previous *core.BlockHash
	for height := uint64(1); height <= uint64(n); height++ {
		block := Block(t, height, previous, 1+int(height%3), signers...)
		hash, err := block.Hash()
		require.NoError(t, err)
		previous = &hash
		blocks = append(blocks, block)
	}
	return blocks
}

// Encode returns the versioned bytes of block.
func Encode(t testing.TB, block core.VersionedSignedBlock) []byte {
	t.Helper()
	b, err := block.EncodeVersioned()
	require.NoError(t, err)
	return b
}
