package server

import "time"

// The dashboard serves long-lived websocket connections, so only header reads
// and idle keep-alives are bounded; the hub sets its own per-frame deadlines.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// shutdownTimeout remains a var for tests to override.
var shutdownTimeout = 10 * time.Second
