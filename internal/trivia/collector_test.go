package trivia

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func collect(t *testing.T, window time.Duration, feed func(chan<- Click)) (*PendingAnswer, []AckKind) {
	t.Helper()
	clicks := make(chan Click, 8)
	feed(clicks)

	var acks []AckKind
	pending := NewCollector(window).Collect(context.Background(), clicks, func(_ Click, ack AckKind) {
		acks = append(acks, ack)
	})
	return pending, acks
}

func TestCollectNoClicksReturnsNil(t *testing.T) {
	pending, acks := collect(t, 30*time.Millisecond, func(chan<- Click) {})
	assert.Nil(t, pending)
	assert.Empty(t, acks)
}

func TestCollectFirstClickIsRecorded(t *testing.T) {
	pending, acks := collect(t, 60*time.Millisecond, func(clicks chan<- Click) {
		clicks <- Click{TankID: 7}
	})

	if assert.NotNil(t, pending) {
		assert.Equal(t, 7, pending.TankID)
		assert.GreaterOrEqual(t, pending.ResponseTime, time.Duration(0))
	}
	assert.Equal(t, []AckKind{AckRecorded}, acks)
}

func TestCollectRevisionOverwrites(t *testing.T) {
	pending, acks := collect(t, 60*time.Millisecond, func(clicks chan<- Click) {
		clicks <- Click{TankID: 7}
		clicks <- Click{TankID: 9}
	})

	if assert.NotNil(t, pending) {
		assert.Equal(t, 9, pending.TankID)
	}
	assert.Equal(t, []AckKind{AckRecorded, AckRevised}, acks)
}

func TestCollectRepeatedChoiceIsNoOp(t *testing.T) {
	pending, acks := collect(t, 60*time.Millisecond, func(clicks chan<- Click) {
		clicks <- Click{TankID: 7}
		clicks <- Click{TankID: 7}
	})

	if assert.NotNil(t, pending) {
		assert.Equal(t, 7, pending.TankID)
	}
	assert.Equal(t, []AckKind{AckRecorded, AckUnchanged}, acks)
}

func TestCollectAnswerDoesNotCloseWindow(t *testing.T) {
	clicks := make(chan Click, 8)
	clicks <- Click{TankID: 1}

	start := time.Now()
	window := 80 * time.Millisecond
	pending := NewCollector(window).Collect(context.Background(), clicks, func(Click, AckKind) {})

	assert.NotNil(t, pending)
	assert.GreaterOrEqual(t, time.Since(start), window)
}

func TestCollectRevisionMeasuresFromWindowStart(t *testing.T) {
	clicks := make(chan Click, 8)
	clicks <- Click{TankID: 1}

	go func() {
		time.Sleep(30 * time.Millisecond)
		clicks <- Click{TankID: 2}
	}()

	pending := NewCollector(100 * time.Millisecond).Collect(context.Background(), clicks, func(Click, AckKind) {})

	if assert.NotNil(t, pending) {
		assert.Equal(t, 2, pending.TankID)
		assert.GreaterOrEqual(t, pending.ResponseTime, 30*time.Millisecond)
	}
}

func TestCollectClosedChannelWaitsOutWindow(t *testing.T) {
	clicks := make(chan Click, 8)
	clicks <- Click{TankID: 3}
	close(clicks)

	start := time.Now()
	window := 60 * time.Millisecond
	pending := NewCollector(window).Collect(context.Background(), clicks, func(Click, AckKind) {})

	if assert.NotNil(t, pending) {
		assert.Equal(t, 3, pending.TankID)
	}
	assert.GreaterOrEqual(t, time.Since(start), window)
}

func TestCollectCancelledContextReturnsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clicks := make(chan Click)
	start := time.Now()
	pending := NewCollector(time.Minute).Collect(ctx, clicks, func(Click, AckKind) {})

	assert.Nil(t, pending)
	assert.Less(t, time.Since(start), time.Second)
}
