// Package transport defines the network collaborator the client core calls
// into. The core never talks HTTP directly: manifests and wrapper redirects
// arrive through Fetch, tracking beacons leave through Post.
package transport

import "context"

type Transport interface {
	// Fetch retrieves the document at url (ad manifest or wrapper redirect).
	Fetch(ctx context.Context, url string) ([]byte, error)

	// Post fires a tracking beacon. Best effort: callers treat a failure as
	// a dropped beacon, never as a playback error.
	Post(ctx context.Context, url string) error
}
