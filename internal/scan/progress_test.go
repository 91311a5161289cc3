package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/asset-scout/internal/types"
)

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster()
	first, unsubFirst := b.Subscribe("loc")
	second, unsubSecond := b.Subscribe("loc")
	other, unsubOther := b.Subscribe("other")
	defer unsubFirst()
	defer unsubSecond()
	defer unsubOther()

	event := types.ScanProgress{LocationID: "loc", Status: types.ScanScanning, ProcessedItems: 1, TotalItems: 3}
	b.Publish(event)

	assert.Equal(t, event, <-first)
	assert.Equal(t, event, <-second)
	assert.Empty(t, other)

	last, ok := b.Last("loc")
	require.True(t, ok)
	assert.Equal(t, event, last)
	_, ok = b.Last("other")
	assert.False(t, ok)
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe("loc")
	defer unsub()

	for i := range subscriberBuffer + 10 {
		b.Publish(types.ScanProgress{LocationID: "loc", ProcessedItems: i})
	}
	assert.Len(t, ch, subscriberBuffer)

	last, _ := b.Last("loc")
	assert.Equal(t, subscriberBuffer+9, last.ProcessedItems)
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe("loc")
	unsub()
	unsub()

	_, open := <-ch
	assert.False(t, open)
	b.Publish(types.ScanProgress{LocationID: "loc"})
}

func TestMultiSink(t *testing.T) {
	var got []types.ScanStatus
	sink := MultiSink{
		LogSink{},
		SinkFunc(func(e types.ScanProgress) { got = append(got, e.Status) }),
	}
	sink.Publish(types.ScanProgress{LocationID: "loc", Status: types.ScanCompleted})
	sink.Publish(types.ScanProgress{LocationID: "loc", Status: types.ScanError, Error: "boom"})
	assert.Equal(t, []types.ScanStatus{types.ScanCompleted, types.ScanError}, got)
}
