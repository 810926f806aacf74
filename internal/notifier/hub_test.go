package notifier

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.DiscardHandler))
}

func drain(c *Client) []string {
	var out []string
	for {
		select {
		case msg := <-c.send:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestPublishReachesInterestedSubscriberOnly(t *testing.T) {
	h := testHub()
	sub1 := newClient(h, nil)
	sub2 := newClient(h, nil)
	h.register(sub1)
	h.register(sub2)
	sub1.setInterest([]string{"P1"})
	sub2.setInterest([]string{"P2"})

	h.Publish("P1", 3)

	got := drain(sub1)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"productId":"P1","stock":3}`, got[0])
	assert.Empty(t, drain(sub2), "subscriber interested in P2 sees nothing for P1")
}

func TestPublishPreservesPerSubscriberOrder(t *testing.T) {
	h := testHub()
	sub := newClient(h, nil)
	h.register(sub)
	sub.setInterest([]string{"P1"})

	h.Publish("P1", 4)
	h.Publish("P1", 2)

	got := drain(sub)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"productId":"P1","stock":4}`, got[0])
	assert.JSONEq(t, `{"productId":"P1","stock":2}`, got[1])
}

func TestSubscribeReplacesInterestSet(t *testing.T) {
	h := testHub()
	sub := newClient(h, nil)
	h.register(sub)

	sub.setInterest([]string{"P1", "P2"})
	sub.setInterest([]string{"P3"})

	h.Publish("P1", 1)
	h.Publish("P3", 7)

	got := drain(sub)
	require.Len(t, got, 1, "old interests are gone; last subscribe wins")
	assert.JSONEq(t, `{"productId":"P3","stock":7}`, got[0])
}

func TestUnregisteredClientReceivesNothing(t *testing.T) {
	h := testHub()
	sub := newClient(h, nil)
	h.register(sub)
	sub.setInterest([]string{"P1"})
	h.unregister(sub)

	h.Publish("P1", 3)

	// Channel is closed and empty.
	msg, open := <-sub.send
	assert.False(t, open)
	assert.Nil(t, msg)
}

func TestPublishNeverBlocksOnSlowClient(t *testing.T) {
	h := testHub()
	sub := newClient(h, nil)
	h.register(sub)
	sub.setInterest([]string{"P1"})

	// Overflow the buffer; extra events are dropped, not blocking.
	for i := 0; i < sendBuffer+10; i++ {
		h.Publish("P1", i)
	}

	got := drain(sub)
	assert.Len(t, got, sendBuffer)
}

func TestEnqueueAfterCloseIsNoop(t *testing.T) {
	h := testHub()
	sub := newClient(h, nil)
	h.register(sub)
	h.unregister(sub)

	// Must not panic on the closed channel.
	sub.enqueue([]byte("late"))
	h.unregister(sub)
}
