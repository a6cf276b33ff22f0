// Package archive mirrors APOD media into object storage so stored
// rows keep pointing at a durable copy even if the upstream URL rots.
package archive

import "context"

// Archiver stores a copy of an entry's media, keyed by logical date.
type Archiver interface {
	// Preflight verifies the backend is writable before the service
	// accepts runs.
	Preflight(ctx context.Context) error

	// ArchiveMedia downloads the media at mediaURL and stores it under
	// the given logical date, returning the object key.
	ArchiveMedia(ctx context.Context, date, mediaURL string) (string, error)
}
