package blockchain

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/NethermindEth/blockvault/core"
	"github.com/NethermindEth/blockvault/core/crypto"
	"github.com/NethermindEth/blockvault/db"
	"github.com/NethermindEth/blockvault/utils"
	"github.com/bits-and-blooms/bloom/v3"
)

//go:generate mockgen -destination=../mocks/mock_hash_index.go -package=mocks github.com/NethermindEth/blockvault/blockchain HashIndex

// HashIndex maps block hashes to heights and back for every block up to Indexed.
type HashIndex interface {
	// Indexed returns the height of the last indexed block, 0 if none is.
	Indexed() (uint64, error)
	// Put indexes the block at height, which must be Indexed()+1.
	Put(height uint64, hash core.BlockHash) error
	// Truncate drops every entry above height.
	Truncate(height uint64) error
	HeightOf(hash core.BlockHash) (uint64, error)
	HashAt(height uint64) (core.BlockHash, error)
	Close() error
}

// The layout of the index. A database written with a different major version is rebuilt
// from the block store.
var indexFormat = semver.MustParse("1.0.0")

var (
	ErrIndexGap     = errors.New("hash index must be extended one height at a time")
	ErrCorruptIndex = errors.New("corrupt hash index entry")

	indexedKey = db.ChainMeta.Key([]byte("indexed"))
	formatKey  = db.ChainMeta.Key([]byte("format"))
)

const (
	lenOfByteSlice    = 8
	bloomFalsePositve = 0.001
	minBloomCapacity  = 1 << 12
	// maxBatchSize is how large a deletion batch grows before it is written.
	maxBatchSize = 4 * utils.Megabyte
)

// The index is maintained in two buckets:
//
// [db.BlockHashToHeight](BlockHash) -> (Height)
// [db.BlockHeightToHash](Height) -> (BlockHash)
//
// plus the height of the last indexed block under ChainMeta. Lookups of unknown hashes are
// answered by a bloom filter without touching the database.
type dbHashIndex struct {
	store   db.KeyValueStore
	filter  *bloom.BloomFilter
	indexed uint64
}

var _ HashIndex = (*dbHashIndex)(nil)

// NewHashIndex opens the index kept in store. An index in an older layout is wiped, leaving
// it to the caller to reindex.
func NewHashIndex(store db.KeyValueStore) (HashIndex, error) {
	idx := &dbHashIndex{store: store}

	compatible, err := idx.compatible()
	if err != nil {
		return nil, err
	}
	if !compatible {
		if err := idx.wipe(); err != nil {
			return nil, err
		}
	}

	err = idx.load()
	if errors.Is(err, ErrCorruptIndex) {
		if err = idx.wipe(); err == nil {
			err = idx.load()
		}
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (i *dbHashIndex) compatible() (bool, error) {
	stored, err := db.GetValue(i.store, formatKey)
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	version, err := semver.NewVersion(string(stored))
	if err != nil {
		return false, nil
	}
	return version.Major() == indexFormat.Major(), nil
}

func (i *dbHashIndex) wipe() error {
	batch := i.store.NewBatch()
	for _, bucket := range []db.Bucket{db.BlockHashToHeight, db.BlockHeightToHash, db.ChainMeta} {
		if err := deleteBucket(i.store, batch, bucket); err != nil {
			return err
		}
	}
	if err := batch.Put(formatKey, []byte(indexFormat.String())); err != nil {
		return err
	}
	return batch.Write()
}

func deleteBucket(store db.Iterable, batch db.Batch, bucket db.Bucket) (err error) {
	it, err := store.NewIterator(bucket.Key(), true)
	if err != nil {
		return err
	}
	defer func() {
		// Prioritise closing error over other errors
		if closeErr := it.Close(); closeErr != nil {
			err = closeErr
		}
	}()

	for it.Next() {
		if err := batch.Delete(append([]byte(nil), it.Key()...)); err != nil {
			return err
		}
		if err := flushIfFull(batch); err != nil {
			return err
		}
	}
	return nil
}

// flushIfFull writes batch once it holds maxBatchSize bytes and makes it reusable.
func flushIfFull(batch db.Batch) error {
	if batch.Size() < maxBatchSize {
		return nil
	}
	if err := batch.Write(); err != nil {
		return err
	}
	batch.Reset()
	return nil
}

func decodeHeight(val []byte) (uint64, error) {
	if len(val) != lenOfByteSlice {
		return 0, fmt.Errorf("%w: height of %d bytes", ErrCorruptIndex, len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

func (i *dbHashIndex) load() (err error) {
	indexed, err := db.GetValue(i.store, indexedKey)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		i.indexed = 0
	case err != nil:
		return err
	default:
		if i.indexed, err = decodeHeight(indexed); err != nil {
			return err
		}
	}

	i.filter = bloom.NewWithEstimates(uint(max(2*i.indexed, minBloomCapacity)), bloomFalsePositve)

	it, err := i.store.NewIterator(db.BlockHashToHeight.Key(), true)
	if err != nil {
		return err
	}
	defer func() {
		// Prioritise closing error over other errors
		if closeErr := it.Close(); closeErr != nil {
			err = closeErr
		}
	}()

	prefixLen := len(db.BlockHashToHeight.Key())
	for it.Next() {
		i.filter.Add(it.Key()[prefixLen:])
	}
	return nil
}

func heightKey(height uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, lenOfByteSlice), height)
}

func (i *dbHashIndex) Indexed() (uint64, error) {
	return i.indexed, nil
}

func (i *dbHashIndex) Put(height uint64, hash core.BlockHash) error {
	if height != i.indexed+1 {
		return fmt.Errorf("%w: indexing %d after %d", ErrIndexGap, height, i.indexed)
	}

	numBytes := heightKey(height)
	batch := i.store.NewBatch()
	if err := batch.Put(db.BlockHashToHeight.Key(hash.Bytes()), numBytes); err != nil {
		return err
	}
	if err := batch.Put(db.BlockHeightToHash.Key(numBytes), hash.Bytes()); err != nil {
		return err
	}
	if err := batch.Put(indexedKey, numBytes); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}

	i.filter.Add(hash.Bytes())
	i.indexed = height
	return nil
}

// Truncate leaves removed hashes in the bloom filter, they only cost a database miss.
func (i *dbHashIndex) Truncate(height uint64) error {
	if height >= i.indexed {
		return nil
	}

	// the new height goes first so that a partly written truncation never claims removed entries
	batch := i.store.NewBatch()
	if err := batch.Put(indexedKey, heightKey(height)); err != nil {
		return err
	}
	for h := height + 1; h <= i.indexed; h++ {
		hash, err := i.HashAt(h)
		if err != nil {
			return err
		}
		if err := batch.Delete(db.BlockHashToHeight.Key(hash.Bytes())); err != nil {
			return err
		}
		if err := batch.Delete(db.BlockHeightToHash.Key(heightKey(h))); err != nil {
			return err
		}
		if err := flushIfFull(batch); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}

	i.indexed = height
	return nil
}

func (i *dbHashIndex) HeightOf(hash core.BlockHash) (uint64, error) {
	if !i.filter.Test(hash.Bytes()) {
		return 0, db.ErrKeyNotFound
	}

	var height uint64
	err := i.store.Get(db.BlockHashToHeight.Key(hash.Bytes()), func(val []byte) error {
		var err error
		height, err = decodeHeight(val)
		return err
	})
	return height, err
}

func (i *dbHashIndex) HashAt(height uint64) (core.BlockHash, error) {
	var hash core.BlockHash
	return hash, i.store.Get(db.BlockHeightToHash.Key(heightKey(height)), func(val []byte) error {
		h, err := crypto.HashFromBytes(val)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptIndex, err)
		}
		hash = core.BlockHash(h)
		return nil
	})
}

func (i *dbHashIndex) Close() error {
	return i.store.Close()
}
