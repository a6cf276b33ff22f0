package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skyops/apodsync/pkg/config"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		mediaURL string
		want     string
	}{
		{
			name:     "no prefix keeps extension",
			mediaURL: "https://apod.nasa.gov/apod/image/earthrise.jpg",
			want:     "2024-01-01.jpg",
		},
		{
			name:     "prefix is prepended",
			prefix:   "apod/media",
			mediaURL: "https://apod.nasa.gov/apod/image/earthrise.png",
			want:     "apod/media/2024-01-01.png",
		},
		{
			name:     "prefix slashes trimmed",
			prefix:   "/apod/",
			mediaURL: "https://apod.nasa.gov/apod/image/earthrise.jpg",
			want:     "apod/2024-01-01.jpg",
		},
		{
			name:     "no extension",
			mediaURL: "https://apod.nasa.gov/apod/media",
			want:     "2024-01-01",
		},
		{
			name:     "query string ignored",
			mediaURL: "https://example.com/img.gif?size=large",
			want:     "2024-01-01.gif",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &s3Archiver{cfg: &config.ArchiveConfig{Prefix: tt.prefix}}
			assert.Equal(t, tt.want, a.objectKey("2024-01-01", tt.mediaURL))
		})
	}
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentTypeForKey("2024-01-01.jpg"))
	assert.Equal(t, "image/png", contentTypeForKey("apod/2024-01-01.png"))
	assert.Equal(t, "application/octet-stream", contentTypeForKey("2024-01-01"))
}
