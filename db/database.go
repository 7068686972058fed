package db

import "io"

// Represents a data store that can read from the database
type KeyValueReader interface {
	// Retrieves a value for a given key if it exists. The value passed to cb is only valid
	// for the duration of the call.
	Get(key []byte, cb func(value []byte) error) error
}

// Represents a data store that can write to the database
type KeyValueWriter interface {
	// Inserts a given value into the data store
	Put(key []byte, value []byte) error
	// Deletes a given key from the data store
	Delete(key []byte) error
}

// Produce a batch to write to the database
type Batcher interface {
	// Creates a write-only batch
	NewBatch() Batch
}

type Iterable interface {
	// Creates an iterator over the keys starting with prefix. If withUpperBound is false the
	// iterator continues past the prefix until the end of the store.
	NewIterator(prefix []byte, withUpperBound bool) (Iterator, error)
}

// Represents a key-value data store that can handle different operations
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	Batcher
	Iterable
	io.Closer
}

// GetValue copies the value stored under key.
func GetValue(r KeyValueReader, key []byte) ([]byte, error) {
	var value []byte
	err := r.Get(key, func(v []byte) error {
		value = append([]byte(nil), v...)
		return nil
	})
	return value, err
}
