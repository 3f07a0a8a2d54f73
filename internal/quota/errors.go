package quota

import "errors"

// ErrLimitReached indicates the daily LLM call budget is exhausted.
var ErrLimitReached = errors.New("daily limit reached")
