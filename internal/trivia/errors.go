package trivia

import "errors"

// Expected user-facing rejections. These are not failures; callers map them
// to ephemeral notices and log at debug level only.
var (
	ErrAlreadyPlaying    = errors.New("player already has an open session")
	ErrDailyLimitReached = errors.New("daily question limit reached")
	ErrDataUnavailable   = errors.New("question data not ready yet")
	ErrDisabled          = errors.New("trivia is disabled")
)
