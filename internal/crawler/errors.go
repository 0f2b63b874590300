package crawler

import "errors"

// ErrInvalidSeed indicates the seed URL has no host or an unsupported scheme.
// It is the only error that stops a run before the first fetch.
var ErrInvalidSeed = errors.New("invalid seed URL")
