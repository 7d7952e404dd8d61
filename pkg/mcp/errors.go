package mcp

import "fmt"

// TransportError is a network-layer failure talking to a peer: connection
// refused, TLS, timeout, broken stream. The connector stays alive; the next
// call re-establishes the session.
type TransportError struct {
	Peer string
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mcp peer %q: %s: %v", e.Peer, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
