package db

import "bytes"

type Bucket byte

// Pebble does not support buckets to differentiate between groups of
// keys like Bolt or MDBX does. We use a global prefix list as a poor
// man's bucket alternative.
const (
	ChainMeta         Bucket = iota // chain metadata: format version, indexed height
	BlockHashToHeight               // BlockHash -> height
	BlockHeightToHash               // height -> BlockHash
)

// Key flattens a prefix and series of byte arrays into a single []byte.
func (b Bucket) Key(key ...[]byte) []byte {
	return append([]byte{byte(b)}, bytes.Join(key, []byte{})...)
}

// UpperBound returns the smallest key that is greater than every key starting with prefix,
// or nil if there is none.
func UpperBound(prefix []byte) []byte {
	upper := bytes.Clone(prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
