package crypto_test

import (
	"testing"

	"github.com/NethermindEth/blockvault/core/crypto"
	"github.com/NethermindEth/blockvault/encoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHash(t *testing.T) {
	// blake2b-256("") with the last bit forced
	assert.Equal(t, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a9", crypto.NewHash(nil).String())

	for _, input := range []string{"", "a", "block", "transactions"} {
		h := crypto.NewHash([]byte(input))
		assert.Equal(t, byte(1), h[crypto.HashLength-1]&1, input)
	}
}

func TestHashFromBytes(t *testing.T) {
	h := crypto.NewHash([]byte("x"))
	parsed, err := crypto.HashFromBytes(h.Bytes())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = crypto.HashFromBytes(make([]byte, 31))
	assert.ErrorIs(t, err, crypto.ErrInvalidHashLength)

	parsed, err = crypto.ParseHash(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = crypto.ParseHash("xyz")
	assert.Error(t, err)
}

func TestHashOf(t *testing.T) {
	a, err := crypto.NewHashOf(&payload{Data: "a"})
	require.NoError(t, err)
	again, err := crypto.NewHashOf(&payload{Data: "a"})
	require.NoError(t, err)
	b, err := crypto.NewHashOf(&payload{Data: "b"})
	require.NoError(t, err)

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)

	encoded, err := encoder.Marshal(&payload{Data: "a"})
	require.NoError(t, err)
	assert.Equal(t, crypto.NewHash(encoded), a.Untyped())

	retyped := crypto.Retype[string](a)
	assert.Equal(t, a.Untyped(), retyped.Untyped())

	_, err = crypto.NewHashOf[payload](nil)
	assert.Error(t, err)

	encoder.TestSymmetry(t, a)
	encoder.TestSymmetry(t, a.Untyped())
}

func TestHashDecodeRejectsWrongLength(t *testing.T) {
	b, err := encoder.Marshal(make([]byte, 33))
	require.NoError(t, err)
	var h crypto.HashOf[payload]
	assert.ErrorIs(t, encoder.Unmarshal(b, &h), crypto.ErrInvalidHashLength)
}

func TestCompareHashPtr(t *testing.T) {
	low := crypto.HashOf[payload]{}
	high := crypto.HashOf[payload]{0xff}

	assert.Equal(t, 0, crypto.CompareHashPtr[payload](nil, nil))
	assert.Equal(t, -1, crypto.CompareHashPtr(nil, &low))
	assert.Equal(t, 1, crypto.CompareHashPtr(&low, nil))
	assert.Equal(t, -1, crypto.CompareHashPtr(&low, &high))
}

func leaf(s string) crypto.HashOf[payload] {
	return crypto.HashOf[payload](crypto.NewHash([]byte(s)))
}

func pair(a, b crypto.Hash) crypto.Hash {
	return crypto.NewHash(append(a.Bytes(), b.Bytes()...))
}

func TestMerkleRoot(t *testing.T) {
	l1, l2, l3, l4, l5 := leaf("1"), leaf("2"), leaf("3"), leaf("4"), leaf("5")

	tests := map[string]struct {
		leaves []crypto.HashOf[payload]
		want   *crypto.Hash
	}{
		"no leaves": {},
		"one leaf":  {leaves: []crypto.HashOf[payload]{l1}, want: ptr(l1.Untyped())},
		"two leaves": {
			leaves: []crypto.HashOf[payload]{l1, l2},
			want:   ptr(pair(l1.Untyped(), l2.Untyped())),
		},
		"odd leaf is promoted": {
			leaves: []crypto.HashOf[payload]{l1, l2, l3},
			want:   ptr(pair(pair(l1.Untyped(), l2.Untyped()), l3.Untyped())),
		},
		"four leaves": {
			leaves: []crypto.HashOf[payload]{l1, l2, l3, l4},
			want:   ptr(pair(pair(l1.Untyped(), l2.Untyped()), pair(l3.Untyped(), l4.Untyped()))),
		},
		"five leaves": {
			leaves: []crypto.HashOf[payload]{l1, l2, l3, l4, l5},
			want: ptr(pair(
				pair(pair(l1.Untyped(), l2.Untyped()), pair(l3.Untyped(), l4.Untyped())),
				l5.Untyped(),
			)),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tree := crypto.NewMerkleTree(test.leaves)
			assert.Equal(t, len(test.leaves), tree.Len())
			root := tree.Root()
			if test.want == nil {
				assert.Nil(t, root)
				return
			}
			require.NotNil(t, root)
			assert.Equal(t, *test.want, root.Untyped())
		})
	}
}

func TestMerkleRootKeepsLeaves(t *testing.T) {
	leaves := []crypto.HashOf[payload]{leaf("1"), leaf("2"), leaf("3")}
	snapshot := append([]crypto.HashOf[payload](nil), leaves...)

	tree := crypto.NewMerkleTree(leaves)
	first := tree.Root()
	second := tree.Root()
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, leaves)

	tree.Add(leaf("4"))
	assert.NotEqual(t, first, tree.Root())
}

func ptr[T any](v T) *T {
	return &v
}
