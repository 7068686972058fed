package blockchain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/NethermindEth/blockvault/blockstore"
	"github.com/NethermindEth/blockvault/core"
	"github.com/NethermindEth/blockvault/core/crypto"
	"github.com/NethermindEth/blockvault/db"
	"github.com/NethermindEth/blockvault/db/pebble"
	"github.com/NethermindEth/blockvault/feed"
	"github.com/NethermindEth/blockvault/utils"
	"github.com/sourcegraph/conc/iter"
)

var (
	ErrBlockNotFound = errors.New("block not found")
	ErrChainClosed   = errors.New("chain closed")
)

type ErrIncompatibleBlock struct {
	reason string
}

func (e ErrIncompatibleBlock) Error() string {
	return fmt.Sprintf("incompatible block: %v", e.reason)
}

type options struct {
	log           utils.SimpleLogger
	storeListener db.EventListener
	indexListener db.EventListener
	index         HashIndex
}

type Option func(*options)

func WithLogger(log utils.SimpleLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithStoreListener reports the I/O of the block store files.
func WithStoreListener(listener db.EventListener) Option {
	return func(o *options) {
		o.storeListener = listener
	}
}

// WithIndexListener reports the I/O of the on-disk hash index.
func WithIndexListener(listener db.EventListener) Option {
	return func(o *options) {
		o.indexListener = listener
	}
}

// WithHashIndex replaces the index described by the config.
func WithHashIndex(index HashIndex) Option {
	return func(o *options) {
		o.index = index
	}
}

// Chain is the sequence of committed blocks kept in a block store, with a hash index on
// the side. It holds the writer lock of the store until closed.
type Chain struct {
	store *blockstore.Store
	index HashIndex
	log   utils.SimpleLogger

	newBlocks *feed.Feed[core.VersionedSignedBlock]

	mu     sync.RWMutex
	height uint64
	head   *core.BlockHash
}

// Open opens or creates the chain in cfg.Directory. Stored blocks are checked according to
// cfg.Mode. A tail of blocks that fails the checks is logged and cut off.
func Open(cfg Config, opts ...Option) (*Chain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chain config: %w", err)
	}

	o := options{
		log:           utils.NewNopZapLogger(),
		storeListener: &db.SelectiveListener{},
		indexListener: &db.SelectiveListener{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := blockstore.Open(cfg.Directory, blockstore.Unlocked,
		blockstore.WithListener(o.storeListener), blockstore.WithLogger(o.log))
	if err != nil {
		return nil, err
	}

	index := o.index
	if index == nil {
		if index, err = openIndex(&cfg, o.indexListener); err != nil {
			return nil, errors.Join(err, store.Close())
		}
	}

	c := &Chain{store: store, index: index, log: o.log, newBlocks: feed.New[core.VersionedSignedBlock]()}
	switch cfg.Mode {
	case Strict:
		err = c.initStrict()
	case Fast:
		err = c.initFast()
	}
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	c.log.Infow("Opened chain", "height", c.height, "mode", cfg.Mode)
	return c, nil
}

func openIndex(cfg *Config, listener db.EventListener) (HashIndex, error) {
	var (
		pebbleDB *pebble.DB
		err      error
	)
	if cfg.InMemoryIndex {
		pebbleDB, err = pebble.NewMem()
	} else {
		opts := []pebble.Option{pebble.WithCacheSize(cfg.IndexCacheMB), pebble.WithLogger(false)}
		if cfg.IndexMaxOpenFiles > 0 {
			opts = append(opts, pebble.WithMaxOpenFiles(cfg.IndexMaxOpenFiles))
		}
		pebbleDB, err = pebble.New(cfg.indexDirectory(), opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("open hash index: %w", err)
	}
	store := pebbleDB.WithListener(listener)

	index, err := NewHashIndex(store)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}
	return index, nil
}

// link is what chaining checks need to know about a stored block
type link struct {
	height   uint64
	previous *core.BlockHash
	hash     core.BlockHash
	err      error
}

func (c *Chain) readLink(height uint64) link {
	block, err := c.readBlock(height)
	if err != nil {
		return link{err: err}
	}
	hash, err := block.Hash()
	if err != nil {
		return link{err: err}
	}
	header := block.Header()
	return link{height: header.Height, previous: header.PreviousBlockHash, hash: hash}
}

// follows checks that l can be appended at height on top of head.
func (l *link) follows(height uint64, head *core.BlockHash) error {
	if l.err != nil {
		return l.err
	}
	if l.height != height {
		return ErrIncompatibleBlock{fmt.Sprintf("block height %d does not follow %d", l.height, height-1)}
	}
	if crypto.CompareHashPtr(l.previous, head) != 0 {
		return ErrIncompatibleBlock{"block's previous hash does not match head block hash"}
	}
	return nil
}

// initStrict decodes every stored block in parallel, then walks them in order.
func (c *Chain) initStrict() error {
	count, err := c.store.IndexCount()
	if err != nil {
		return err
	}

	heights := make([]uint64, count)
	for i := range heights {
		heights[i] = uint64(i) + 1
	}
	links := iter.Map(heights, func(height *uint64) link {
		return c.readLink(*height)
	})

	if err := c.index.Truncate(0); err != nil {
		return err
	}
	for i := range links {
		l := &links[i]
		height := uint64(i) + 1
		if err := l.follows(height, c.head); err != nil {
			return c.cutTail(height, err)
		}
		if err := c.index.Put(height, l.hash); err != nil {
			return err
		}
		c.height, c.head = height, &l.hash
	}
	return nil
}

// initFast trusts what the index already holds and only checks the blocks appended after it.
func (c *Chain) initFast() error {
	count, err := c.store.IndexCount()
	if err != nil {
		return err
	}
	indexed, err := c.index.Indexed()
	if err != nil {
		return err
	}

	if indexed > count {
		c.log.Warnw("Hash index is ahead of the block store", "indexed", indexed, "stored", count)
		if err := c.index.Truncate(count); err != nil {
			return err
		}
		indexed = count
	}
	if indexed > 0 {
		hash, err := c.index.HashAt(indexed)
		if err != nil {
			return err
		}
		c.height, c.head = indexed, &hash
	}

	for height := indexed + 1; height <= count; height++ {
		l := c.readLink(height)
		if err := l.follows(height, c.head); err != nil {
			return c.cutTail(height, err)
		}
		if err := c.index.Put(height, l.hash); err != nil {
			return err
		}
		c.height, c.head = height, &l.hash
	}
	return nil
}

// cutTail drops the block at height and everything after it.
func (c *Chain) cutTail(height uint64, reason error) error {
	c.log.Warnw("Dropping stored blocks that failed validation", "from", height, "err", reason)
	if err := c.index.Truncate(height - 1); err != nil {
		return err
	}
	return c.store.Truncate(height - 1)
}

func (c *Chain) readBlock(height uint64) (core.VersionedSignedBlock, error) {
	b, err := c.store.BlockBytesAt(height)
	if err != nil {
		if errors.Is(err, blockstore.ErrOutOfRange) {
			return core.VersionedSignedBlock{}, ErrBlockNotFound
		}
		return core.VersionedSignedBlock{}, err
	}
	block, err := core.DecodeVersioned(b)
	if err != nil {
		return core.VersionedSignedBlock{}, fmt.Errorf("decode block %d: %w", height, err)
	}
	return block, nil
}

// Height returns the height of the last block, 0 for an empty chain.
func (c *Chain) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// Head returns the hash of the last block, nil for an empty chain.
func (c *Chain) Head() *core.BlockHash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.head
}

// Store appends block after the current head. The block must have been built or decoded
// by core, so it is known to be valid on its own.
func (c *Chain) Store(block core.VersionedSignedBlock) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	header := block.Header()
	if header == nil {
		return ErrIncompatibleBlock{"block is empty"}
	}
	hash, err := block.Hash()
	if err != nil {
		return err
	}
	l := link{height: header.Height, previous: header.PreviousBlockHash, hash: hash}
	if err := l.follows(c.height+1, c.head); err != nil {
		return err
	}
	encoded, err := block.EncodeVersioned()
	if err != nil {
		return err
	}

	if _, err = c.store.Append(encoded); err != nil {
		return err
	}
	// the block is durable from here on, a missing index entry is rebuilt on the next open
	c.height, c.head = c.height+1, &hash
	c.newBlocks.Send(block)
	if err := c.index.Put(c.height, hash); err != nil {
		return fmt.Errorf("index block %d: %w", c.height, err)
	}
	return nil
}

// SubscribeNewBlocks notifies about blocks stored from now on. A slow subscriber only gets
// the latest one, use Stream to receive every block.
func (c *Chain) SubscribeNewBlocks() *feed.Subscription[core.VersionedSignedBlock] {
	return c.newBlocks.Subscribe()
}

// Stream sends every block from req.FromHeight on, in order, first the stored ones and then
// the ones stored while streaming. It returns when ctx is done, the chain is closed or send
// fails.
func (c *Chain) Stream(ctx context.Context, req core.BlockSubscriptionRequest, send func(core.BlockMessage) error) error {
	if req.FromHeight == 0 {
		return core.ErrZeroHeight
	}

	// subscribe before reading the height so no block is missed in between
	sub := c.newBlocks.Subscribe()
	defer sub.Unsubscribe()

	next := req.FromHeight
	for {
		for ; next <= c.Height(); next++ {
			block, err := c.readBlock(next)
			if err != nil {
				return err
			}
			if err := send(core.BlockMessage{Block: block}); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-sub.Recv():
			if !ok {
				return ErrChainClosed
			}
		}
	}
}

func (c *Chain) BlockByHeight(height uint64) (core.VersionedSignedBlock, error) {
	if height == 0 || height > c.Height() {
		return core.VersionedSignedBlock{}, ErrBlockNotFound
	}
	return c.readBlock(height)
}

func (c *Chain) BlockByHash(hash core.BlockHash) (core.VersionedSignedBlock, error) {
	height, err := c.index.HeightOf(hash)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return core.VersionedSignedBlock{}, ErrBlockNotFound
		}
		return core.VersionedSignedBlock{}, err
	}
	return c.BlockByHeight(height)
}

// Close ends all subscriptions and releases the index and the store with its writer lock.
func (c *Chain) Close() error {
	c.newBlocks.Close()
	return errors.Join(c.index.Close(), c.store.Close())
}
