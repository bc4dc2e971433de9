package realtime

import "errors"

var (
	// ErrSessionClosed is returned by Next once a session has been closed.
	ErrSessionClosed = errors.New("realtime: session closed")
	// ErrHubClosed is returned when joining a closed hub.
	ErrHubClosed = errors.New("realtime: hub closed")
	// ErrNoConnection is returned by the NATS adapters when built without a connection.
	ErrNoConnection = errors.New("realtime: nats connection is nil")
)
