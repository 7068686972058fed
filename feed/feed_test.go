package feed_test

import (
	"testing"

	"github.com/NethermindEth/blockvault/feed"
	"github.com/stretchr/testify/require"
)

func TestFeed(t *testing.T) {
	f := feed.New[int]()
	sub := f.Subscribe()

	f.Send(1)
	f.Send(2)
	require.Equal(t, 2, <-sub.Recv())
	select {
	case <-sub.Recv():
		// the second send should have replaced the first value
		require.Fail(t, "the channel should be empty")
	default:
	}
	f.Send(3)
	require.Equal(t, 3, <-sub.Recv())
	sub.Unsubscribe()
	_, ok := <-sub.Recv()
	require.False(t, ok, "channel should be closed")
	sub.Unsubscribe() // Unsubscribing twice is ok.
	f.Send(1)         // Sending without subscribers is ok.
}

func TestFeedClose(t *testing.T) {
	f := feed.New[string]()
	first, second := f.Subscribe(), f.Subscribe()

	f.Send("block")
	f.Close()

	// a buffered value is still delivered before the channel reports closed
	require.Equal(t, "block", <-first.Recv())
	_, ok := <-first.Recv()
	require.False(t, ok)
	require.Equal(t, "block", <-second.Recv())
	_, ok = <-second.Recv()
	require.False(t, ok)

	late := f.Subscribe()
	_, ok = <-late.Recv()
	require.False(t, ok)

	f.Send("ignored")
	second.Unsubscribe()
}
