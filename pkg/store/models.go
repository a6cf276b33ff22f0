package store

import "time"

// Known media types for an APOD entry. Anything else is coerced to
// image during transformation.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Entry is a single Astronomy Picture of the Day record, one row per
// logical date. Date carries the uniqueness constraint; ID is a
// surrogate key.
type Entry struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Date        string `gorm:"uniqueIndex;not null" json:"date"`
	Title       string `gorm:"size:500" json:"title"`
	Explanation string `gorm:"type:text" json:"explanation"`
	MediaURL    string `gorm:"type:text;not null" json:"media_url"`
	MediaHDURL  string `gorm:"type:text" json:"media_hdurl,omitempty"`
	MediaType   string `gorm:"size:50" json:"media_type"`
	Copyright   string `gorm:"size:255" json:"copyright,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
