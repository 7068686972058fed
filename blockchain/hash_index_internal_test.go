package blockchain

import (
	"testing"

	"github.com/NethermindEth/blockvault/db"
	"github.com/NethermindEth/blockvault/db/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushIfFull(t *testing.T) {
	store := pebble.NewMemTest(t)
	batch := store.NewBatch()

	require.NoError(t, batch.Put([]byte("small"), []byte("value")))
	require.NoError(t, flushIfFull(batch))
	assert.NotZero(t, batch.Size())
	_, err := db.GetValue(store, []byte("small"))
	assert.ErrorIs(t, err, db.ErrKeyNotFound)

	require.NoError(t, batch.Put([]byte("large"), make([]byte, maxBatchSize)))
	require.NoError(t, flushIfFull(batch))
	assert.Zero(t, batch.Size())

	value, err := db.GetValue(store, []byte("small"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	// the batch keeps working after the flush
	require.NoError(t, batch.Put([]byte("after"), []byte("flush")))
	require.NoError(t, batch.Write())
	value, err = db.GetValue(store, []byte("after"))
	require.NoError(t, err)
	assert.Equal(t, []byte("flush"), value)
}
