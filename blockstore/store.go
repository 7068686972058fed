package blockstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/NethermindEth/blockvault/db"
	"github.com/NethermindEth/blockvault/utils"
)

const (
	DataFileName  = "blocks.data"
	IndexFileName = "blocks.index"
	LockFileName  = "blocks.lock"

	// IndexEntrySize is the width of one record in the index file: start then length,
	// both big-endian u64.
	IndexEntrySize = 16
)

var (
	ErrLocked     = errors.New("block store is locked by another writer")
	ErrReadOnly   = errors.New("block store is opened read-only")
	ErrOutOfRange = errors.New("block index out of range")
	ErrShortRead  = errors.New("short read from block store")
	ErrClosed     = errors.New("block store is closed")
	ErrEmptyBlock = errors.New("block is empty")
	// ErrCorruptIndex is returned for an index entry that does not describe a byte range of
	// the data file.
	ErrCorruptIndex = errors.New("corrupt block index entry")
)

// LockStatus tells Open whether the caller still needs the writer lock.
type LockStatus uint8

const (
	// Unlocked acquires the writer lock, failing with ErrLocked if someone else holds it.
	Unlocked LockStatus = iota
	// Locked opens a read-only handle that never takes the lock, whether or not a writer
	// holds it. Nothing is created or truncated.
	Locked
)

func (s LockStatus) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case Locked:
		return "locked"
	default:
		return fmt.Sprintf("LockStatus(%d)", uint8(s))
	}
}

// BlockIndex locates one block inside the data file.
type BlockIndex struct {
	Start  uint64
	Length uint64
}

// End is the offset one past the last byte of the block. It wraps for an entry that fails
// Within.
func (i BlockIndex) End() uint64 {
	return i.Start + i.Length
}

// Within reports whether the entry is a non-empty byte range ending at or before size.
func (i BlockIndex) Within(size uint64) bool {
	end := i.Start + i.Length
	return i.Length > 0 && end > i.Start && end <= size
}

func (i BlockIndex) marshal(b []byte) {
	binary.BigEndian.PutUint64(b[:8], i.Start)
	binary.BigEndian.PutUint64(b[8:IndexEntrySize], i.Length)
}

func unmarshalIndex(b []byte) BlockIndex {
	return BlockIndex{
		Start:  binary.BigEndian.Uint64(b[:8]),
		Length: binary.BigEndian.Uint64(b[8:IndexEntrySize]),
	}
}

type Stats struct {
	Blocks     uint64
	DataBytes  uint64
	IndexBytes uint64
}

type Option func(*Store)

func WithListener(listener db.EventListener) Option {
	return func(s *Store) {
		s.listener = listener
	}
}

func WithLogger(log utils.SimpleLogger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// Store is an append-only pair of files holding raw block bytes and their offsets. Any
// number of handles may read concurrently. Only the handle holding the writer lock may
// append.
type Store struct {
	dir   string
	data  *os.File
	index *os.File
	lock  *os.File // nil for read-only handles

	// guards appends and the cached sizes below
	mu        sync.Mutex
	dataSize  uint64
	indexSize uint64
	closed    bool

	listener db.EventListener
	log      utils.SimpleLogger
}

// Open opens the store in dir. With Unlocked the directory and files are created as needed,
// the writer lock is taken and any torn tail left by an interrupted append is truncated.
// With Locked both files must exist and the handle is read-only.
func Open(dir string, status LockStatus, opts ...Option) (*Store, error) {
	s := &Store{
		dir:      dir,
		listener: &db.SelectiveListener{},
		log:      utils.NewNopZapLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	switch status {
	case Unlocked:
		err = s.openWriter()
	case Locked:
		err = s.openReader()
	default:
		err = fmt.Errorf("unknown lock status %d", status)
	}
	if err != nil {
		return nil, errors.Join(err, s.closeFiles())
	}
	return s, nil
}

func (s *Store) openWriter() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create block store directory: %w", err)
	}

	var err error
	if s.lock, err = acquireLock(filepath.Join(s.dir, LockFileName)); err != nil {
		return err
	}
	if s.data, err = os.OpenFile(filepath.Join(s.dir, DataFileName), os.O_RDWR|os.O_CREATE, 0o644); err != nil {
		return err
	}
	if s.index, err = os.OpenFile(filepath.Join(s.dir, IndexFileName), os.O_RDWR|os.O_CREATE, 0o644); err != nil {
		return err
	}
	return s.repair()
}

func (s *Store) openReader() error {
	var err error
	if s.data, err = os.Open(filepath.Join(s.dir, DataFileName)); err != nil {
		return err
	}
	s.index, err = os.Open(filepath.Join(s.dir, IndexFileName))
	return err
}

// repair drops index entries that point past the end of the data file, a trailing partial
// index record and data bytes no entry references.
func (s *Store) repair() error {
	count, dataSize, indexSize, err := s.committed()
	if err != nil {
		return err
	}

	dataEnd := uint64(0)
	if count > 0 {
		last, err := s.readIndex(count - 1)
		if err != nil {
			return err
		}
		dataEnd = last.End()
	}

	if indexEnd := count * IndexEntrySize; indexEnd != indexSize {
		s.log.Warnw("Truncating block index", "entries", count, "from", indexSize, "to", indexEnd)
		if err := truncate(s.index, indexEnd); err != nil {
			return fmt.Errorf("truncate index file: %w", err)
		}
	}
	if dataEnd != dataSize {
		s.log.Warnw("Truncating block data", "from", dataSize, "to", dataEnd)
		if err := truncate(s.data, dataEnd); err != nil {
			return fmt.Errorf("truncate data file: %w", err)
		}
	}

	s.dataSize = dataEnd
	s.indexSize = count * IndexEntrySize
	return nil
}

func truncate(f *os.File, size uint64) error {
	if err := f.Truncate(int64(size)); err != nil {
		return err
	}
	return f.Sync()
}

// committed returns the number of index entries fully backed by the data file together
// with the sizes it observed. Entries are dropped from the tail until the last one lies
// within the data file and starts where the one before it ends.
func (s *Store) committed() (count, dataSize, indexSize uint64, err error) {
	// the index is stat'ed first: an append grows data before index, so every entry counted
	// here had its bytes written before the data file is measured
	indexSize, err = fileSize(s.index)
	if err != nil {
		return 0, 0, 0, err
	}
	dataSize, err = fileSize(s.data)
	if err != nil {
		return 0, 0, 0, err
	}

	for count = indexSize / IndexEntrySize; count > 0; count-- {
		ok, err := s.linked(count-1, dataSize)
		if err != nil {
			return 0, 0, 0, err
		}
		if ok {
			break
		}
	}
	return count, dataSize, indexSize, nil
}

// linked checks the entry at position against the data file size and the entry before it.
func (s *Store) linked(position, dataSize uint64) (bool, error) {
	entry, err := s.readIndex(position)
	if err != nil {
		return false, err
	}
	if !entry.Within(dataSize) {
		return false, nil
	}

	var previousEnd uint64
	if position > 0 {
		previous, err := s.readIndex(position - 1)
		if err != nil {
			return false, err
		}
		if !previous.Within(entry.Start) {
			return false, nil
		}
		previousEnd = previous.End()
	}
	return entry.Start == previousEnd, nil
}

func fileSize(f *os.File) (uint64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

func (s *Store) readIndex(position uint64) (BlockIndex, error) {
	var buf [IndexEntrySize]byte
	if err := s.readAt(s.index, buf[:], position*IndexEntrySize); err != nil {
		return BlockIndex{}, err
	}
	return unmarshalIndex(buf[:]), nil
}

func (s *Store) readAt(f *os.File, out []byte, offset uint64) error {
	defer s.listener.OnIO(false, time.Now())

	if _, err := f.ReadAt(out, int64(offset)); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %d bytes at offset %d", ErrShortRead, len(out), offset)
		}
		return err
	}
	return nil
}

// Dir returns the directory holding the store files.
func (s *Store) Dir() string {
	return s.dir
}

// ReadOnly reports whether this handle was opened without the writer lock.
func (s *Store) ReadOnly() bool {
	return s.lock == nil
}

// IndexCount returns the number of committed blocks. Readers may observe it grow between calls.
func (s *Store) IndexCount() (uint64, error) {
	if s.isClosed() {
		return 0, ErrClosed
	}
	if !s.ReadOnly() {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.indexSize / IndexEntrySize, nil
	}
	count, _, _, err := s.committed()
	return count, err
}

// ReadIndices fills out with consecutive entries starting at the 0-based position from.
func (s *Store) ReadIndices(from uint64, out []BlockIndex) error {
	count, err := s.IndexCount()
	if err != nil {
		return err
	}
	if from > count || uint64(len(out)) > count-from {
		return fmt.Errorf("%w: %d entries from %d, store has %d", ErrOutOfRange, len(out), from, count)
	}
	if len(out) == 0 {
		return nil
	}

	buf := make([]byte, len(out)*IndexEntrySize)
	if err := s.readAt(s.index, buf, from*IndexEntrySize); err != nil {
		return err
	}
	for i := range out {
		out[i] = unmarshalIndex(buf[i*IndexEntrySize:])
	}
	return nil
}

// ReadBlockBytes fills out with the data file bytes starting at offset.
func (s *Store) ReadBlockBytes(offset uint64, out []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.readAt(s.data, out, offset)
}

// BlockBytesAt returns the raw bytes of the block at the given 1-based height.
func (s *Store) BlockBytesAt(height uint64) ([]byte, error) {
	if height == 0 {
		return nil, fmt.Errorf("%w: height 0", ErrOutOfRange)
	}

	var idx [1]BlockIndex
	if err := s.ReadIndices(height-1, idx[:]); err != nil {
		return nil, err
	}
	return s.ReadBlock(idx[0])
}

// ReadBlock returns the bytes entry points at. The entry is checked against the current size
// of the data file before anything is allocated.
func (s *Store) ReadBlock(entry BlockIndex) ([]byte, error) {
	dataSize, err := s.dataSizeNow()
	if err != nil {
		return nil, err
	}
	if !entry.Within(dataSize) {
		return nil, fmt.Errorf("%w: %d bytes at offset %d, data file has %d bytes",
			ErrCorruptIndex, entry.Length, entry.Start, dataSize)
	}

	out := make([]byte, entry.Length)
	if err := s.readAt(s.data, out, entry.Start); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) dataSizeNow() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if !s.ReadOnly() {
		return s.dataSize, nil
	}
	return fileSize(s.data)
}

// Append writes block after the last one and returns where it landed. The data is synced
// before the index entry is written so a crash never leaves an entry without its bytes.
func (s *Store) Append(block []byte) (BlockIndex, error) {
	if s.ReadOnly() {
		return BlockIndex{}, ErrReadOnly
	}
	if len(block) == 0 {
		return BlockIndex{}, ErrEmptyBlock
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return BlockIndex{}, ErrClosed
	}

	entry := BlockIndex{Start: s.dataSize, Length: uint64(len(block))}
	if err := s.writeAndSync(s.data, block, entry.Start); err != nil {
		return BlockIndex{}, fmt.Errorf("write block data: %w", err)
	}

	var record [IndexEntrySize]byte
	entry.marshal(record[:])
	if err := s.writeAndSync(s.index, record[:], s.indexSize); err != nil {
		return BlockIndex{}, fmt.Errorf("write block index: %w", err)
	}

	s.dataSize = entry.End()
	s.indexSize += IndexEntrySize
	return entry, nil
}

// Truncate drops every block after the first count. Readers holding an older count will
// fail their reads past the new end.
func (s *Store) Truncate(count uint64) error {
	if s.ReadOnly() {
		return ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if current := s.indexSize / IndexEntrySize; count >= current {
		return nil
	}

	dataEnd := uint64(0)
	if count > 0 {
		last, err := s.readIndex(count - 1)
		if err != nil {
			return err
		}
		dataEnd = last.End()
	}

	// index first, so a crash in between leaves unreferenced data rather than dangling entries
	if err := truncate(s.index, count*IndexEntrySize); err != nil {
		return fmt.Errorf("truncate index file: %w", err)
	}
	s.indexSize = count * IndexEntrySize
	if err := truncate(s.data, dataEnd); err != nil {
		return fmt.Errorf("truncate data file: %w", err)
	}
	s.dataSize = dataEnd
	return nil
}

func (s *Store) writeAndSync(f *os.File, b []byte, offset uint64) error {
	start := time.Now()
	if _, err := f.WriteAt(b, int64(offset)); err != nil {
		return err
	}
	s.listener.OnIO(true, start)

	defer s.listener.OnSync(time.Now())
	return f.Sync()
}

func (s *Store) Stats() (Stats, error) {
	count, err := s.IndexCount()
	if err != nil {
		return Stats{}, err
	}
	dataSize, err := fileSize(s.data)
	if err != nil {
		return Stats{}, err
	}
	indexSize, err := fileSize(s.index)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Blocks: count, DataBytes: dataSize, IndexBytes: indexSize}, nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the files and, for a writer, the lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.closeFiles()
}

func (s *Store) closeFiles() error {
	var errs []error
	for _, f := range []*os.File{s.data, s.index} {
		if f != nil {
			errs = append(errs, f.Close())
		}
	}
	if s.lock != nil {
		errs = append(errs, releaseLock(s.lock))
	}
	return errors.Join(errs...)
}
