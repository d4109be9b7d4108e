package upload

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the second-resolution, lexically sortable upload timestamp.
const TimestampLayout = "20060102_150405"

const shortIDLength = 8

// NewShortID returns the first eight hex characters of a random UUID.
func NewShortID() string {
	return uuid.NewString()[:shortIDLength]
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// BuildKey composes the storage key <prefix><timestamp>_<id>_<filename>.
func BuildKey(prefix, timestamp, id, filename string) string {
	return prefix + timestamp + "_" + id + "_" + filename
}
