package crypto

// MerkleTree is a binary hash tree over typed leaves. Leaves keep their insertion order.
type MerkleTree[T any] struct {
	leaves []HashOf[T]
}

func NewMerkleTree[T any](leaves []HashOf[T]) *MerkleTree[T] {
	return &MerkleTree[T]{leaves: leaves}
}

// Add appends a leaf.
func (t *MerkleTree[T]) Add(leaf HashOf[T]) {
	t.leaves = append(t.leaves, leaf)
}

func (t *MerkleTree[T]) Len() int {
	return len(t.leaves)
}

// Root returns nil for a tree without leaves.
//
// Each level is built by hashing adjacent pairs as Hash(left || right). A node left
// without a sibling is carried to the next level as is.
func (t *MerkleTree[T]) Root() *HashOf[MerkleTree[T]] {
	if len(t.leaves) == 0 {
		return nil
	}

	level := make([]Hash, len(t.leaves))
	for i, leaf := range t.leaves {
		level[i] = Hash(leaf)
	}

	var buf [2 * HashLength]byte
	for len(level) > 1 {
		next := level[:0]
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				break
			}
			copy(buf[:HashLength], level[i][:])
			copy(buf[HashLength:], level[i+1][:])
			next = append(next, NewHash(buf[:]))
		}
		level = next
	}

	root := HashOf[MerkleTree[T]](level[0])
	return &root
}
