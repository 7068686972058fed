package pebble

import (
	"time"

	"github.com/NethermindEth/blockvault/db"
	"github.com/cockroachdb/pebble"
)

var _ db.Batch = (*batch)(nil)

type batch struct {
	batch    *pebble.Batch
	db       *DB
	size     int // size of the batch in bytes
	listener db.EventListener
}

// Delete : see db.KeyValueWriter.Delete
func (b *batch) Delete(key []byte) error {
	if err := b.batch.Delete(key, nil); err != nil {
		return err
	}
	b.size += len(key)
	return nil
}

// Put : see db.KeyValueWriter.Put
func (b *batch) Put(key, value []byte) error {
	if err := b.batch.Set(key, value, nil); err != nil {
		return err
	}
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Size() int {
	return b.size
}

func (b *batch) Write() error {
	b.db.closeLock.RLock()
	defer b.db.closeLock.RUnlock()

	if b.db.closed {
		return db.ErrClosed
	}
	defer b.listener.OnSync(time.Now())

	return b.batch.Commit(pebble.Sync)
}

func (b *batch) Reset() {
	b.batch.Reset()
	b.size = 0
}
