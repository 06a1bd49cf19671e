package netstack

import "errors"

// Session errors. All of them are fatal to the session they occur in: the
// session is torn down, the caller is informed the whole request failed and
// no further pairs are produced. Memory the session already holds stays
// allocated until process teardown.
var (
	// ErrUnsupportedKind rejects request kinds this processor cannot
	// drive. It signals a programming error, not a degraded delivery.
	ErrUnsupportedKind = errors.New("netstack: unsupported request kind")

	// ErrPeerHandshakeTimeout means the peer did not acknowledge the
	// session within the configured rendezvous timeout.
	ErrPeerHandshakeTimeout = errors.New("netstack: peer handshake timed out")

	// ErrUnknownPeer means no classical channel to the remote node was
	// connected before the session started.
	ErrUnknownPeer = errors.New("netstack: no channel to peer")

	// ErrSessionActive rejects a second session for a (process, remote,
	// purpose) key that is still running.
	ErrSessionActive = errors.New("netstack: session already active")

	// ErrAllocationDenied means the run's policy exhausted the allocation
	// attempt bound instead of waiting for freed memory.
	ErrAllocationDenied = errors.New("netstack: allocation denied by policy")
)
