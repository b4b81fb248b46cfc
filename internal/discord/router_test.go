package discord

import (
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/wotclan/tanktrivia/internal/trivia"
)

func TestRouterDispatchToRegisteredWindow(t *testing.T) {
	r := NewRouter(zerolog.New(io.Discard))

	clicks, release := r.Register("msg-1")
	defer release()

	assert.True(t, r.Dispatch("msg-1", trivia.Click{TankID: 5}))
	click := <-clicks
	assert.Equal(t, 5, click.TankID)
}

func TestRouterDispatchUnknownMessage(t *testing.T) {
	r := NewRouter(zerolog.New(io.Discard))
	assert.False(t, r.Dispatch("never-registered", trivia.Click{TankID: 1}))
}

func TestRouterReleaseClosesWindow(t *testing.T) {
	r := NewRouter(zerolog.New(io.Discard))

	clicks, release := r.Register("msg-1")
	release()

	_, open := <-clicks
	assert.False(t, open, "release closes the click stream")
	assert.False(t, r.Dispatch("msg-1", trivia.Click{TankID: 1}))
	assert.Equal(t, 0, r.Open())

	release() // second release is a no-op
}

func TestRouterDropsWhenSaturated(t *testing.T) {
	r := NewRouter(zerolog.New(io.Discard))

	_, release := r.Register("msg-1")
	defer release()

	for i := 0; i < clickBuffer; i++ {
		assert.True(t, r.Dispatch("msg-1", trivia.Click{TankID: i}))
	}
	assert.False(t, r.Dispatch("msg-1", trivia.Click{TankID: 99}))
}

func TestRouterDispatchDuringRelease(t *testing.T) {
	r := NewRouter(zerolog.New(io.Discard))

	// A click landing exactly as the window expires must be rejected, not
	// sent into a closed channel.
	for round := 0; round < 100; round++ {
		clicks, release := r.Register("msg")

		go func() {
			for range clicks {
			}
		}()

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 25; i++ {
					r.Dispatch("msg", trivia.Click{TankID: i})
				}
			}()
		}
		release()
		wg.Wait()

		assert.False(t, r.Dispatch("msg", trivia.Click{TankID: 1}))
	}
}

func TestRouterWindowsAreIndependent(t *testing.T) {
	r := NewRouter(zerolog.New(io.Discard))

	aClicks, releaseA := r.Register("msg-a")
	_, releaseB := r.Register("msg-b")
	defer releaseA()

	assert.Equal(t, 2, r.Open())
	releaseB()
	assert.Equal(t, 1, r.Open())

	assert.True(t, r.Dispatch("msg-a", trivia.Click{TankID: 3}))
	click := <-aClicks
	assert.Equal(t, 3, click.TankID)
}
