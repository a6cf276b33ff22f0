package pipeline

import (
	"strings"

	"github.com/skyops/apodsync/pkg/nasa"
	"github.com/skyops/apodsync/pkg/store"
)

// DefaultTitle is stored when the upstream record carries no title.
const DefaultTitle = "Unknown"

// Transform maps a raw APOD record into the canonical row for a
// logical date. Pure and deterministic: no I/O, no clock reads.
//
// The logical date always comes from the run context, never from the
// payload, so upstream date drift cannot move a row to another day.
// A missing media URL is the only hard failure; every other gap is
// defaulted.
func Transform(
	raw *nasa.APODResponse, logicalDate string,
) (*store.Entry, error) {
	if raw == nil {
		return nil, &DataError{Reason: "no raw record to transform"}
	}

	if raw.URL == "" {
		return nil, &DataError{
			Reason: "upstream record has no media url",
		}
	}

	title := raw.Title
	if title == "" {
		title = DefaultTitle
	}

	mediaType := strings.ToLower(raw.MediaType)
	switch mediaType {
	case store.MediaTypeImage, store.MediaTypeVideo:
	default:
		mediaType = store.MediaTypeImage
	}

	return &store.Entry{
		Date:        logicalDate,
		Title:       title,
		Explanation: raw.Explanation,
		MediaURL:    raw.URL,
		MediaHDURL:  raw.HDURL,
		MediaType:   mediaType,
		Copyright:   raw.Copyright,
	}, nil
}
