package discord

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/wotclan/tanktrivia/internal/trivia"
)

const clickBuffer = 8

// window is one open click sink. Its mutex covers both the closed flag and
// the send, so a dispatch can never race the close.
type window struct {
	mu     sync.Mutex
	ch     chan trivia.Click
	closed bool
}

// Router fans component clicks out to the answer window that owns the
// message. One channel per open question message; clicks for unknown or
// already-closed messages are reported back to the dispatcher.
type Router struct {
	mu      sync.RWMutex
	windows map[string]*window // message_id -> click sink
	logger  zerolog.Logger
}

func NewRouter(logger zerolog.Logger) *Router {
	return &Router{
		windows: make(map[string]*window),
		logger:  logger.With().Str("component", "click_router").Logger(),
	}
}

// Register opens a click sink for a message and returns the stream plus a
// release func. Releasing is idempotent.
func (r *Router) Register(messageID string) (<-chan trivia.Click, func()) {
	w := &window{ch: make(chan trivia.Click, clickBuffer)}

	r.mu.Lock()
	r.windows[messageID] = w
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		delete(r.windows, messageID)
		r.mu.Unlock()

		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.closed {
			w.closed = true
			close(w.ch)
		}
	}
	return w.ch, release
}

// Dispatch routes a click to its window. Returns false when no window is
// open for the message or the window's buffer is saturated.
func (r *Router) Dispatch(messageID string, click trivia.Click) bool {
	r.mu.RLock()
	w, open := r.windows[messageID]
	r.mu.RUnlock()
	if !open {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	select {
	case w.ch <- click:
		return true
	default:
		r.logger.Warn().Str("message_id", messageID).Msg("click dropped, window saturated")
		return false
	}
}

// Open reports how many windows are live.
func (r *Router) Open() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}
